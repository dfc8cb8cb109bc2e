package app

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chepyr/go-todo/internal/client"
	"github.com/chepyr/go-todo/internal/models"
	"github.com/chepyr/go-todo/internal/session"
	"github.com/google/uuid"
)

// fakeGateway keeps one user's todos in memory and answers like the service.
type fakeGateway struct {
	mu    sync.Mutex
	tasks []models.Task
	clock time.Time
	calls map[string]int

	// hook runs inside every call with the op name and its 1-based call
	// number. A list has already taken its snapshot when the hook runs.
	hook func(op string, n int)
	// failWith makes every call of the named operation fail.
	failWith map[string]error

	// session state for AuthGateway
	signedIn bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		clock:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		calls:    make(map[string]int),
		failWith: make(map[string]error),
	}
}

func (g *fakeGateway) tick() time.Time {
	g.clock = g.clock.Add(time.Second)
	return g.clock
}

func (g *fakeGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakeGateway) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func (g *fakeGateway) fail(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWith[op] = err
}

func (g *fakeGateway) setHook(fn func(op string, n int)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hook = fn
}

func (g *fakeGateway) begin(op string) (int, error) {
	g.mu.Lock()
	g.calls[op]++
	n, err, hook := g.calls[op], g.failWith[op], g.hook
	g.mu.Unlock()
	if hook != nil && op != "list" {
		hook(op, n)
	}
	return n, err
}

func (g *fakeGateway) find(id string) int {
	return slices.IndexFunc(g.tasks, func(t models.Task) bool { return t.ID.String() == id })
}

func notFound(op client.Op) error {
	return &client.APIError{Op: op, Status: http.StatusNotFound, Message: "Todo not found"}
}

func (g *fakeGateway) ListTasks(ctx context.Context) ([]models.Task, error) {
	n, err := g.begin("list")
	g.mu.Lock()
	out := slices.Clone(g.tasks)
	hook := g.hook
	g.mu.Unlock()
	slices.Reverse(out)
	if out == nil {
		out = []models.Task{}
	}
	if hook != nil {
		hook("list", n)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *fakeGateway) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if _, err := g.begin("get"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.find(id)
	if i < 0 {
		return nil, notFound(client.OpGetTask)
	}
	t := g.tasks[i]
	return &t, nil
}

func (g *fakeGateway) CreateTask(ctx context.Context, title string, description *string) (*models.Task, error) {
	if _, err := g.begin("create"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	t := models.Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: description,
		CreatedAt:   g.tick(),
	}
	g.tasks = append(g.tasks, t)
	return &t, nil
}

func (g *fakeGateway) UpdateTask(ctx context.Context, id string, title, description *string) (*models.Task, error) {
	if _, err := g.begin("update"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.find(id)
	if i < 0 {
		return nil, notFound(client.OpUpdateTask)
	}
	if title != nil {
		g.tasks[i].Title = *title
	}
	if description != nil {
		g.tasks[i].Description = description
		if *description == "" {
			g.tasks[i].Description = nil
		}
	}
	now := g.tick()
	g.tasks[i].UpdatedAt = &now
	t := g.tasks[i]
	return &t, nil
}

func (g *fakeGateway) DeleteTask(ctx context.Context, id string) error {
	if _, err := g.begin("delete"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.find(id)
	if i < 0 {
		return notFound(client.OpDeleteTask)
	}
	g.tasks = slices.Delete(g.tasks, i, i+1)
	return nil
}

func (g *fakeGateway) ToggleTask(ctx context.Context, id string) (*models.Task, error) {
	if _, err := g.begin("toggle"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.find(id)
	if i < 0 {
		return nil, notFound(client.OpToggleTask)
	}
	g.tasks[i].Completed = !g.tasks[i].Completed
	now := g.tick()
	g.tasks[i].UpdatedAt = &now
	t := g.tasks[i]
	return &t, nil
}

func (g *fakeGateway) Signup(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return g.authenticate("signup", email)
}

func (g *fakeGateway) Signin(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return g.authenticate("signin", email)
}

func (g *fakeGateway) authenticate(op, email string) (*models.AuthResponse, error) {
	if _, err := g.begin(op); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.signedIn = true
	return &models.AuthResponse{
		AccessToken: "token-" + email,
		TokenType:   models.TokenTypeBearer,
		User:        models.UserResponse{ID: uuid.New(), Email: email},
	}, nil
}

func (g *fakeGateway) Signout(ctx context.Context) error {
	_, err := g.begin("signout")
	g.mu.Lock()
	g.signedIn = false
	g.mu.Unlock()
	return err
}

// fakeSession answers Read with a fixed result.
type fakeSession bool

func (s fakeSession) Read() (session.Session, bool) {
	if !s {
		return session.Session{}, false
	}
	return session.Session{Token: "t", TokenType: "bearer"}, true
}

// fakeFeed delivers the events pushed into it.
type fakeFeed struct {
	events chan models.Event
}

func (f *fakeFeed) Subscribe(ctx context.Context, fn func(models.Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-f.events:
			if !ok {
				return nil
			}
			fn(ev)
		}
	}
}

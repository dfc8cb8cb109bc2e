// Package testutil provides testing utilities.
package testutil

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

// FakeService is an in-memory stand-in for *client.Client.
type FakeService struct {
	mu     sync.Mutex
	tasks  []models.Task // oldest first
	store  *session.Store
	userID uuid.UUID
	clock  time.Time

	// Events feeds Subscribe; closing it ends the subscription.
	Events chan models.Event

	// Error injection for testing
	SignupErr  error
	SigninErr  error
	SignoutErr error
	ListErr    error
	GetErr     error
	CreateErr  error
	UpdateErr  error
	DeleteErr  error
	ToggleErr  error

	// Calls counts requests by operation.
	Calls map[client.Op]int
}

func NewFakeService() *FakeService {
	return &FakeService{
		store:  session.NewStore(&session.MemoryStorage{}),
		userID: uuid.New(),
		clock:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Events: make(chan models.Event, 16),
		Calls:  make(map[client.Op]int),
	}
}

// SignIn stores a session without going through Signin.
func (f *FakeService) SignIn(email string) {
	f.store.Save(session.Session{Token: "fake-token", TokenType: models.TokenTypeBearer, UserID: f.userID.String(), Email: email})
}

// AddTask adds a task as if created earlier.
func (f *FakeService) AddTask(title string) models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(title, nil)
}

// Tasks returns the stored tasks, oldest first.
func (f *FakeService) Tasks() []models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.tasks)
}

func (f *FakeService) CallCount(op client.Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

func (f *FakeService) Session() *session.Store {
	return f.store
}

func (f *FakeService) addLocked(title string, description *string) models.Task {
	f.clock = f.clock.Add(time.Second)
	t := models.Task{
		ID:          uuid.New(),
		UserID:      f.userID,
		Title:       title,
		Description: description,
		CreatedAt:   f.clock,
	}
	f.tasks = append(f.tasks, t)
	return t
}

// begin counts the call and checks the session for authenticated operations.
func (f *FakeService) begin(op client.Op, injected error) error {
	f.mu.Lock()
	f.Calls[op]++
	f.mu.Unlock()
	if injected != nil {
		return injected
	}
	switch op {
	case client.OpSignup, client.OpSignin, client.OpSignout:
		return nil
	}
	_, err := f.store.Token()
	return err
}

func (f *FakeService) index(id string) int {
	return slices.IndexFunc(f.tasks, func(t models.Task) bool { return t.ID.String() == id })
}

func notFound(op client.Op) error {
	return &client.APIError{Op: op, Status: http.StatusNotFound, Message: "Todo not found"}
}

func (f *FakeService) Signup(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return f.authenticate(client.OpSignup, f.SignupErr, email)
}

func (f *FakeService) Signin(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return f.authenticate(client.OpSignin, f.SigninErr, email)
}

func (f *FakeService) authenticate(op client.Op, injected error, email string) (*models.AuthResponse, error) {
	if err := f.begin(op, injected); err != nil {
		return nil, err
	}
	f.SignIn(email)
	return &models.AuthResponse{
		AccessToken: "fake-token",
		TokenType:   models.TokenTypeBearer,
		User:        models.UserResponse{ID: f.userID, Email: email},
	}, nil
}

func (f *FakeService) Signout(ctx context.Context) error {
	err := f.begin(client.OpSignout, f.SignoutErr)
	f.store.Clear()
	return err
}

func (f *FakeService) ListTasks(ctx context.Context) ([]models.Task, error) {
	if err := f.begin(client.OpListTasks, f.ListErr); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Task, 0, len(f.tasks))
	for i := len(f.tasks) - 1; i >= 0; i-- {
		out = append(out, f.tasks[i])
	}
	return out, nil
}

func (f *FakeService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if err := f.begin(client.OpGetTask, f.GetErr); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return nil, notFound(client.OpGetTask)
	}
	t := f.tasks[i]
	return &t, nil
}

func (f *FakeService) CreateTask(ctx context.Context, title string, description *string) (*models.Task, error) {
	if err := f.begin(client.OpCreateTask, f.CreateErr); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.addLocked(strings.TrimSpace(title), description)
	return &t, nil
}

func (f *FakeService) UpdateTask(ctx context.Context, id string, title, description *string) (*models.Task, error) {
	if err := f.begin(client.OpUpdateTask, f.UpdateErr); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return nil, notFound(client.OpUpdateTask)
	}
	if title != nil {
		f.tasks[i].Title = strings.TrimSpace(*title)
	}
	if description != nil {
		f.tasks[i].Description = description
		if strings.TrimSpace(*description) == "" {
			f.tasks[i].Description = nil
		}
	}
	f.stampLocked(i)
	t := f.tasks[i]
	return &t, nil
}

func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	if err := f.begin(client.OpDeleteTask, f.DeleteErr); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return notFound(client.OpDeleteTask)
	}
	f.tasks = slices.Delete(f.tasks, i, i+1)
	return nil
}

func (f *FakeService) ToggleTask(ctx context.Context, id string) (*models.Task, error) {
	if err := f.begin(client.OpToggleTask, f.ToggleErr); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return nil, notFound(client.OpToggleTask)
	}
	f.tasks[i].Completed = !f.tasks[i].Completed
	f.stampLocked(i)
	t := f.tasks[i]
	return &t, nil
}

func (f *FakeService) stampLocked(i int) {
	f.clock = f.clock.Add(time.Second)
	now := f.clock
	f.tasks[i].UpdatedAt = &now
}

// Subscribe delivers Events until ctx ends or Events is closed.
func (f *FakeService) Subscribe(ctx context.Context, fn func(models.Event)) error {
	if err := f.begin(client.OpSubscribe, nil); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-f.Events:
			if !ok {
				return nil
			}
			fn(ev)
		}
	}
}

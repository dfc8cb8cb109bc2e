package app

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/chepyr/go-todo/internal/client"
	"github.com/chepyr/go-todo/internal/models"
	"github.com/chepyr/go-todo/internal/session"
)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// View is a copy of a TodosPage's state at one moment.
type View struct {
	State    State
	Tasks    []models.Task
	Err      string
	Redirect Route

	Creating   bool
	CreateErr  string
	Toggling   map[string]bool
	Deleting   map[string]bool
	ItemErrors map[string]string

	CompletedCount int
}

// Empty reports a loaded collection with nothing in it.
func (v View) Empty() bool {
	return v.State == StateReady && len(v.Tasks) == 0
}

// TodosPage is the todo collection view. The collection is only ever
// replaced by the result of a full fetch.
type TodosPage struct {
	mu   sync.Mutex
	gw   Gateway
	sess SessionReader

	state    State
	tasks    []models.Task
	err      string
	redirect Route

	creating   bool
	createErr  string
	toggling   map[string]bool
	deleting   map[string]bool
	itemErrors map[string]string

	// fetch generations: issued counts started fetches, applied is the
	// newest one whose result was taken
	issued    uint64
	applied   uint64
	unmounted bool
}

func NewTodosPage(gw Gateway, sess SessionReader) *TodosPage {
	return &TodosPage{
		gw:         gw,
		sess:       sess,
		toggling:   make(map[string]bool),
		deleting:   make(map[string]bool),
		itemErrors: make(map[string]string),
	}
}

// Mount checks for a session and loads the collection. Without a session the
// page redirects to sign-in and stays inert.
func (p *TodosPage) Mount(ctx context.Context) error {
	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return nil
	}
	if _, ok := p.sess.Read(); !ok {
		p.redirect = RouteSignin
		p.mu.Unlock()
		return session.ErrNoSession
	}
	p.mu.Unlock()
	return p.Reload(ctx)
}

// Reload fetches the whole collection. Results of fetches overtaken by a
// newer applied fetch, or arriving after Unmount, are dropped.
func (p *TodosPage) Reload(ctx context.Context) error {
	p.mu.Lock()
	if p.unmounted || p.redirect == RouteSignin {
		p.mu.Unlock()
		return nil
	}
	p.issued++
	gen := p.issued
	if p.state == StateUninitialized {
		p.state = StateLoading
	}
	p.mu.Unlock()

	tasks, err := p.gw.ListTasks(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted || gen <= p.applied {
		return err
	}
	p.applied = gen

	if err != nil {
		p.err = errorMessage(err)
		if p.state == StateLoading {
			p.tasks = []models.Task{}
			p.state = StateReady
		}
		p.noteAuthFailure(err)
		return err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	p.tasks = tasks
	p.err = ""
	p.state = StateReady
	return nil
}

// Create adds a task and re-fetches. The returned error covers the create
// only; a failed re-fetch shows up in the view.
func (p *TodosPage) Create(ctx context.Context, title, description string) (*models.Task, error) {
	title, err := validateTitle(title)
	if err != nil {
		p.mu.Lock()
		p.createErr = err.Error()
		p.mu.Unlock()
		return nil, err
	}

	p.mu.Lock()
	if p.creating {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	p.creating = true
	p.createErr = ""
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.creating = false
		p.mu.Unlock()
	}()

	task, err := p.gw.CreateTask(ctx, title, optional(description))
	if err != nil {
		p.mu.Lock()
		if !p.unmounted {
			p.createErr = errorMessage(err)
			p.noteAuthFailure(err)
		}
		p.mu.Unlock()
		return nil, err
	}
	p.Reload(ctx)
	return task, nil
}

// Toggle flips one task's completed flag and re-fetches. Different tasks
// may be toggled concurrently; the same task may not.
func (p *TodosPage) Toggle(ctx context.Context, id string) (*models.Task, error) {
	p.mu.Lock()
	if p.toggling[id] {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	p.toggling[id] = true
	delete(p.itemErrors, id)
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.toggling, id)
		p.mu.Unlock()
	}()

	task, err := p.gw.ToggleTask(ctx, id)
	if err != nil {
		p.recordItemError(id, err)
		return nil, err
	}
	p.Reload(ctx)
	return task, nil
}

// ConfirmDelete returns the confirmation flow for deleting one task.
func (p *TodosPage) ConfirmDelete(id string) *DeleteConfirm {
	return &DeleteConfirm{page: p, taskID: id}
}

// Follow re-fetches on every change-feed event until ctx ends or the feed
// drops. Events are hints only; the fetched collection is what counts.
func (p *TodosPage) Follow(ctx context.Context, sub Subscriber, onChange func(View)) error {
	return sub.Subscribe(ctx, func(models.Event) {
		if err := p.Reload(ctx); err == nil && onChange != nil {
			onChange(p.Snapshot())
		}
	})
}

// Signout ends the session and redirects to sign-in.
func (p *TodosPage) Signout(ctx context.Context, auth AuthGateway) error {
	err := auth.Signout(ctx)
	p.mu.Lock()
	p.redirect = RouteSignin
	p.mu.Unlock()
	return err
}

// Unmount stops the page; in-flight results are discarded from now on.
func (p *TodosPage) Unmount() {
	p.mu.Lock()
	p.unmounted = true
	p.mu.Unlock()
}

// Find looks a task up in the current collection.
func (p *TodosPage) Find(id string) (models.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.tasks {
		if t.ID.String() == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func (p *TodosPage) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return View{
		State:          p.state,
		Tasks:          slices.Clone(p.tasks),
		Err:            p.err,
		Redirect:       p.redirect,
		Creating:       p.creating,
		CreateErr:      p.createErr,
		Toggling:       maps.Clone(p.toggling),
		Deleting:       maps.Clone(p.deleting),
		ItemErrors:     maps.Clone(p.itemErrors),
		CompletedCount: models.CountCompleted(p.tasks),
	}
}

// beginDelete marks id as being deleted; false means a delete is already in flight.
func (p *TodosPage) beginDelete(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleting[id] {
		return false
	}
	p.deleting[id] = true
	delete(p.itemErrors, id)
	return true
}

func (p *TodosPage) endDelete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.deleting, id)
}

func (p *TodosPage) recordItemError(id string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return
	}
	p.itemErrors[id] = errorMessage(err)
	p.noteAuthFailure(err)
}

// noteAuthFailure must be called with p.mu held.
func (p *TodosPage) noteAuthFailure(err error) {
	if client.IsAuthError(err) {
		p.redirect = RouteSignin
	}
}

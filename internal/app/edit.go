package app

import (
	"context"
	"sync"

	"github.com/chepyr/go-todo/internal/client"
	"github.com/chepyr/go-todo/internal/models"
	"github.com/chepyr/go-todo/internal/session"
)

// EditView is a copy of an EditPage's state.
type EditView struct {
	Loaded      bool
	NotFound    bool
	Title       string
	Description string
	Saving      bool
	Err         string
	Redirect    Route
}

// EditPage loads one task into a form and saves changes back.
type EditPage struct {
	gw     Gateway
	sess   SessionReader
	taskID string

	mu          sync.Mutex
	loaded      bool
	notFound    bool
	title       string
	description string
	saving      bool
	err         string
	redirect    Route
}

func NewEditPage(gw Gateway, sess SessionReader, taskID string) *EditPage {
	return &EditPage{gw: gw, sess: sess, taskID: taskID}
}

// Load fetches the task and pre-populates the form.
func (e *EditPage) Load(ctx context.Context) error {
	if _, ok := e.sess.Read(); !ok {
		e.mu.Lock()
		e.redirect = RouteSignin
		e.mu.Unlock()
		return session.ErrNoSession
	}

	task, err := e.gw.GetTask(ctx, e.taskID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.fail(err)
		return err
	}
	e.loaded = true
	e.title = task.Title
	e.description = ""
	if task.Description != nil {
		e.description = *task.Description
	}
	return nil
}

// Submit validates and saves the form. A blank title is rejected without a
// request. On success the page redirects to the collection.
func (e *EditPage) Submit(ctx context.Context, title, description string) (*models.Task, error) {
	trimmed, err := validateTitle(title)

	e.mu.Lock()
	e.title = title
	e.description = description
	if err != nil {
		e.err = err.Error()
		e.mu.Unlock()
		return nil, err
	}
	if e.saving {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	e.saving = true
	e.err = ""
	e.mu.Unlock()

	desc := description
	task, err := e.gw.UpdateTask(ctx, e.taskID, &trimmed, &desc)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		e.fail(err)
		return nil, err
	}
	e.redirect = RouteTodos
	return task, nil
}

// fail must be called with e.mu held.
func (e *EditPage) fail(err error) {
	switch {
	case client.IsAuthError(err):
		e.redirect = RouteSignin
	case client.IsNotFound(err):
		e.notFound = true
	}
	e.err = errorMessage(err)
}

func (e *EditPage) Snapshot() EditView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EditView{
		Loaded:      e.loaded,
		NotFound:    e.notFound,
		Title:       e.title,
		Description: e.description,
		Saving:      e.saving,
		Err:         e.err,
		Redirect:    e.redirect,
	}
}

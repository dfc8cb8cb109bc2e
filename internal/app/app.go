// Package app holds the page controllers that keep the client's view of the
// user's todos consistent with the service. Every page guards its own state
// and never holds its lock across a network call.
package app

import (
	"context"
	"errors"
	"strings"

	"github.com/chepyr/go-todo/internal/client"
	"github.com/chepyr/go-todo/internal/models"
	"github.com/chepyr/go-todo/internal/session"
)

// ErrBusy is returned when the same control is triggered while its request is in flight.
var ErrBusy = errors.New("operation already in progress")

// Route is where the UI should navigate next. The zero value means stay.
type Route string

const (
	RouteNone   Route = ""
	RouteSignin Route = "/signin"
	RouteTodos  Route = "/todos"
)

// Gateway is the part of *client.Client the todo pages use.
type Gateway interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, title string, description *string) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, title, description *string) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ToggleTask(ctx context.Context, id string) (*models.Task, error)
}

type AuthGateway interface {
	Signup(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Signin(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Signout(ctx context.Context) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, fn func(models.Event)) error
}

type SessionReader interface {
	Read() (session.Session, bool)
}

var (
	_ Gateway     = (*client.Client)(nil)
	_ AuthGateway = (*client.Client)(nil)
	_ Subscriber  = (*client.Client)(nil)
)

// ValidationError is a rejected input caught before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Message: "Title is required"}
	}
	return title, nil
}

// optional turns a blank description into "no description".
func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

package client

import (
	"errors"
	"net/http"

	"github.com/chepyr/go-todo/internal/session"
)

// Op names one gateway operation; it picks the fallback failure message.
type Op string

const (
	OpSignup     Op = "signup"
	OpSignin     Op = "signin"
	OpSignout    Op = "signout"
	OpListTasks  Op = "list"
	OpGetTask    Op = "get"
	OpCreateTask Op = "create"
	OpUpdateTask Op = "update"
	OpDeleteTask Op = "delete"
	OpToggleTask Op = "toggle"
	OpSubscribe  Op = "subscribe"
)

var fallbackMessages = map[Op]string{
	OpSignup:     "Signup failed",
	OpSignin:     "Signin failed",
	OpSignout:    "Signout failed",
	OpListTasks:  "Failed to fetch todos",
	OpGetTask:    "Failed to fetch todo",
	OpCreateTask: "Failed to create todo",
	OpUpdateTask: "Failed to update todo",
	OpDeleteTask: "Failed to delete todo",
	OpToggleTask: "Failed to toggle todo",
	OpSubscribe:  "Failed to follow changes",
}

func (op Op) FallbackMessage() string {
	if msg, ok := fallbackMessages[op]; ok {
		return msg
	}
	return "Request failed"
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Op      Op
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// TransportError means no usable answer arrived at all.
type TransportError struct {
	Op  Op
	Err error
}

func (e *TransportError) Error() string {
	return e.Op.FallbackMessage()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err means the user has to sign in again.
func IsAuthError(err error) bool {
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrExpired) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports a 404 from a task operation.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

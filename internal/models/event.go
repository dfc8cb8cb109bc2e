package models

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTodoCreated EventType = "todo.created"
	EventTodoUpdated EventType = "todo.updated"
	EventTodoToggled EventType = "todo.toggled"
	EventTodoDeleted EventType = "todo.deleted"
)

// Event announces a change to one of a user's todos.
// It carries no task body: receivers re-fetch from the service.
type Event struct {
	Type   EventType `json:"event"`
	TodoID uuid.UUID `json:"todo_id"`
	UserID uuid.UUID `json:"user_id"`
	At     time.Time `json:"at"`
}

func NewEvent(typ EventType, task *Task) Event {
	return Event{Type: typ, TodoID: task.ID, UserID: task.UserID, At: time.Now().UTC()}
}

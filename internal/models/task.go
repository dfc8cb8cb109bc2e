package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is a single todo item owned by a user.
// UpdatedAt stays nil until the first update or toggle.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// TaskInput is the request body for create and update.
type TaskInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// CountCompleted returns how many tasks in the slice are completed.
func CountCompleted(tasks []Task) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

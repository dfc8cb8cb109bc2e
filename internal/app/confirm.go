package app

import (
	"context"
	"errors"
	"sync"
)

// ErrNotOpen is returned by Confirm when the prompt is not showing.
var ErrNotOpen = errors.New("delete confirmation is not open")

// DeleteConfirm is the open/cancel/confirm step in front of a delete.
// Cancel never touches the service.
type DeleteConfirm struct {
	page   *TodosPage
	taskID string

	mu   sync.Mutex
	open bool
	busy bool
	err  string
}

func (d *DeleteConfirm) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	d.err = ""
}

func (d *DeleteConfirm) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.busy {
		d.open = false
	}
}

// Confirm deletes the task. It needs an open prompt and at most one delete
// per task may be in flight on the page. On success the page re-fetches; on
// failure the error is kept, the dialog closes and the task is left as it was.
func (d *DeleteConfirm) Confirm(ctx context.Context) error {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return ErrBusy
	}
	if !d.open {
		d.mu.Unlock()
		return ErrNotOpen
	}
	if !d.page.beginDelete(d.taskID) {
		d.mu.Unlock()
		return ErrBusy
	}
	d.busy = true
	d.err = ""
	d.mu.Unlock()

	err := d.page.gw.DeleteTask(ctx, d.taskID)
	d.page.endDelete(d.taskID)

	d.mu.Lock()
	d.busy = false
	d.open = false
	if err != nil {
		d.err = errorMessage(err)
	}
	d.mu.Unlock()

	if err != nil {
		d.page.recordItemError(d.taskID, err)
		return err
	}
	d.page.Reload(ctx)
	return nil
}

func (d *DeleteConfirm) TaskID() string { return d.taskID }

func (d *DeleteConfirm) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *DeleteConfirm) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

func (d *DeleteConfirm) Err() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

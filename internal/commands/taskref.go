package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/chepyr/go-todo/internal/app"
	"github.com/chepyr/go-todo/internal/client"
	"github.com/chepyr/go-todo/internal/exitcode"
	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
)

// TaskRef points at a task either by its 1-based position in the list or by id.
type TaskRef struct {
	Num int
	ID  string
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef reads the reference from the first argument.
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	arg := args[0]
	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{Num: num}, nil
	}
	if id, err := uuid.Parse(arg); err == nil {
		return TaskRef{ID: id.String()}, nil
	}
	return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// openPage mounts the todo collection. A non-zero code means the error was
// already reported.
func openPage(ctx context.Context, svc Service, errOut io.Writer) (*app.TodosPage, int) {
	page := app.NewTodosPage(svc, svc.Session())
	if err := page.Mount(ctx); err != nil {
		return nil, report(errOut, err)
	}
	return page, exitcode.Success
}

// resolveTask turns a reference into a task of the mounted page. An id that
// is not listed is passed through so the service gets the final say.
func resolveTask(page *app.TodosPage, ref TaskRef, errOut io.Writer) (models.Task, int) {
	if ref.ID != "" {
		if task, ok := page.Find(ref.ID); ok {
			return task, exitcode.Success
		}
		return models.Task{ID: uuid.MustParse(ref.ID)}, exitcode.Success
	}
	tasks := page.Snapshot().Tasks
	if ref.Num < 1 || ref.Num > len(tasks) {
		fmt.Fprintf(errOut, "error: task number out of range: %d\n", ref.Num)
		return models.Task{}, exitcode.UserError
	}
	return tasks[ref.Num-1], exitcode.Success
}

// parseRef parses and reports a bad reference.
func parseRef(args []string, errOut io.Writer) (TaskRef, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return TaskRef{}, exitcode.UserError
	}
	return ref, exitcode.Success
}

// report prints err and maps it to an exit code.
func report(errOut io.Writer, err error) int {
	var vErr *app.ValidationError
	switch {
	case errors.As(err, &vErr):
		fmt.Fprintf(errOut, "error: %s\n", vErr.Message)
		return exitcode.UserError
	case errors.Is(err, app.ErrBusy):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case client.IsAuthError(err):
		fmt.Fprintf(errOut, "error: auth error: %v (run: todo signin)\n", err)
		return exitcode.AuthError
	case client.IsNotFound(err):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

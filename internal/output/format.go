// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chepyr/go-todo/internal/models"
)

// FormatTask formats a task line for the list.
// Format: "{N:>4}  [x] {TITLE}\n"
func FormatTask(w io.Writer, num int, task models.Task) {
	mark := " "
	if task.Completed {
		mark = "x"
	}
	fmt.Fprintf(w, "%4d  [%s] %s\n", num, mark, normalizeTitle(task.Title))
}

// FormatCounter prints the completed/total line under the list.
func FormatCounter(w io.Writer, completed, total int) {
	fmt.Fprintf(w, "%d of %d completed\n", completed, total)
}

// FormatDetail prints every field of one task.
func FormatDetail(w io.Writer, task models.Task) {
	desc := "-"
	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		desc = *task.Description
	}
	completed := "no"
	if task.Completed {
		completed = "yes"
	}
	updated := "-"
	if task.UpdatedAt != nil {
		updated = formatTime(*task.UpdatedAt)
	}

	fmt.Fprintf(w, "id:          %s\n", task.ID)
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "description: %s\n", desc)
	fmt.Fprintf(w, "completed:   %s\n", completed)
	fmt.Fprintf(w, "created:     %s\n", formatTime(task.CreatedAt))
	fmt.Fprintf(w, "updated:     %s\n", updated)
}

// FormatEvent prints one change-feed event.
func FormatEvent(w io.Writer, ev models.Event) {
	fmt.Fprintf(w, "%s  %s  %s\n", formatTime(ev.At), ev.Type, ev.TodoID)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

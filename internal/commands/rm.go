package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd deletes a task after a y/N confirmation on stdin.
type RmCmd struct {
	prompter
	yes bool
}

// SetYes skips the confirmation (for testing).
func (c *RmCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "todo rm [common flags] [--yes] <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
	ref, code := parseRef(args, errOut)
	if code != exitcode.Success {
		return code
	}
	page, code := openPage(ctx, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	task, code := resolveTask(page, ref, errOut)
	if code != exitcode.Success {
		return code
	}

	confirm := page.ConfirmDelete(task.ID.String())
	confirm.Open()
	if !c.yes {
		label := task.Title
		if label == "" {
			label = task.ID.String()
		}
		answer, err := c.ask(errOut, fmt.Sprintf("Delete %q? This cannot be undone. [y/N] ", label))
		if err != nil || !isYes(answer) {
			confirm.Cancel()
			if !cfg.Quiet {
				fmt.Fprintln(out, "cancelled")
			}
			return exitcode.Success
		}
	}

	if err := confirm.Confirm(ctx); err != nil {
		return report(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

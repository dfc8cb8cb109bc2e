package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/exitcode"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd toggles a task: open tasks are completed, completed ones reopened.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task's completed state" }
func (c *DoneCmd) Usage() string     { return "todo done [common flags] <ref>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
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

	toggled, err := page.Toggle(ctx, task.ID.String())
	if err != nil {
		return report(errOut, err)
	}
	if !cfg.Quiet {
		state := "reopened"
		if toggled.Completed {
			state = "completed"
		}
		fmt.Fprintf(out, "ok %s\n", state)
	}
	return exitcode.Success
}

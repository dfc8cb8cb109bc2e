package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/chepyr/go-todo/internal/app"
	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/exitcode"
	"github.com/chepyr/go-todo/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command; it also runs for `todo` with no args.
type ListCmd struct{}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks, newest first" }
func (c *ListCmd) Usage() string     { return "todo list [common flags]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
	page, code := openPage(ctx, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	printView(cfg, page.Snapshot(), out)
	return exitcode.Success
}

func printView(cfg *config.ClientConfig, v app.View, out io.Writer) {
	if v.Empty() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return
	}
	for i, task := range v.Tasks {
		output.FormatTask(out, i+1, task)
	}
	if !cfg.Quiet {
		output.FormatCounter(out, v.CompletedCount, len(v.Tasks))
	}
}

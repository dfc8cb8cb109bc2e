package commands

import (
	"context"
	"flag"
	"io"

	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/exitcode"
	"github.com/chepyr/go-todo/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

type ShowCmd struct{}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Show one task" }
func (c *ShowCmd) Usage() string     { return "todo show [common flags] <ref>" }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
	ref, code := parseRef(args, errOut)
	if code != exitcode.Success {
		return code
	}
	id := ref.ID
	if id == "" {
		page, code := openPage(ctx, svc, errOut)
		if code != exitcode.Success {
			return code
		}
		task, code := resolveTask(page, ref, errOut)
		if code != exitcode.Success {
			return code
		}
		id = task.ID.String()
	}

	task, err := svc.GetTask(ctx, id)
	if err != nil {
		return report(errOut, err)
	}
	output.FormatDetail(out, *task)
	return exitcode.Success
}

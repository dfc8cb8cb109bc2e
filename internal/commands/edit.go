package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/chepyr/go-todo/internal/app"
	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/exitcode"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd changes a task's title and/or description. Fields that are not
// given keep their current value.
type EditCmd struct {
	title       *string
	description *string
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(title string) { c.title = &title }

// SetDescription sets the new description (for testing).
func (c *EditCmd) SetDescription(desc string) { c.description = &desc }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "todo edit [common flags] [--title <text>] [--description <text>] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.description = nil, nil
	setter := func(dst **string) func(string) error {
		return func(s string) error {
			*dst = &s
			return nil
		}
	}
	fs.Func("title", "", setter(&c.title))
	fs.Func("t", "", setter(&c.title))
	fs.Func("description", "", setter(&c.description))
	fs.Func("d", "", setter(&c.description))
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
	ref, code := parseRef(args, errOut)
	if code != exitcode.Success {
		return code
	}
	if c.title == nil && c.description == nil {
		fmt.Fprintln(errOut, "error: nothing to change (use --title or --description)")
		return exitcode.UserError
	}

	page, code := openPage(ctx, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	task, code := resolveTask(page, ref, errOut)
	if code != exitcode.Success {
		return code
	}

	edit := app.NewEditPage(svc, svc.Session(), task.ID.String())
	if err := edit.Load(ctx); err != nil {
		return report(errOut, err)
	}
	form := edit.Snapshot()
	title, desc := form.Title, form.Description
	if c.title != nil {
		title = *c.title
	}
	if c.description != nil {
		desc = *c.description
	}

	if _, err := edit.Submit(ctx, title, desc); err != nil {
		return report(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

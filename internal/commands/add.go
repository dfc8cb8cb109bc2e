package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chepyr/go-todo/internal/app"
	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/exitcode"
)

func init() {
	Register(&AddCmd{})
}

type AddCmd struct {
	description string
}

// SetDescription sets the description (for testing).
func (c *AddCmd) SetDescription(desc string) {
	c.description = desc
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string     { return "todo add [common flags] [--description <text>] <title...>" }
func (c *AddCmd) NeedsAuth() bool   { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
	page := app.NewTodosPage(svc, svc.Session())
	task, err := page.Create(ctx, strings.Join(args, " "), c.description)
	if err != nil {
		return report(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %s\n", task.ID)
	}
	return exitcode.Success
}

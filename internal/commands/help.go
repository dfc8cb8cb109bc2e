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
	Register(&HelpCmd{})
}

type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todo help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  todo                                           List tasks
  todo list [common flags]
  todo show [common flags] <ref>
  todo add [common flags] [--description <text>] <title...>
  todo edit [common flags] [--title <text>] [--description <text>] <ref>
  todo done [common flags] <ref>                 Toggle completed
  todo rm [common flags] [--yes] <ref>
  todo watch [common flags]                      Reprint the list on every change
  todo signup [common flags] <email>             Password is read from stdin
  todo signin [common flags] <email>
  todo signout [common flags]
  todo help
  todo version

<ref> is a number from the list or a task id.

Common flags:
  --api <url>      Service base URL (default $TODO_API_URL or http://localhost:8000/api)
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`

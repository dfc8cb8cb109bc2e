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
	Register(&WatchCmd{})
}

// WatchCmd prints the list and reprints it whenever the service reports a change.
type WatchCmd struct{}

func (c *WatchCmd) Name() string      { return "watch" }
func (c *WatchCmd) Aliases() []string { return nil }
func (c *WatchCmd) Synopsis() string  { return "Follow changes to the list" }
func (c *WatchCmd) Usage() string     { return "todo watch [common flags]" }
func (c *WatchCmd) NeedsAuth() bool   { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
	page, code := openPage(ctx, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	printView(cfg, page.Snapshot(), out)

	err := page.Follow(ctx, svc, func(v app.View) {
		fmt.Fprintln(out, "--")
		printView(cfg, v, out)
	})
	page.Unmount()
	if err != nil {
		return report(errOut, err)
	}
	return exitcode.Success
}

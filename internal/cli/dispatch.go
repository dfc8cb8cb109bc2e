// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chepyr/go-todo/internal/client"
	"github.com/chepyr/go-todo/internal/commands"
	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/exitcode"
	"github.com/chepyr/go-todo/internal/session"
)

// ServiceFactory creates the Service for one run.
type ServiceFactory func(ctx context.Context, cfg *config.ClientConfig) (commands.Service, error)

// NewService talks to the configured service and keeps the session in the
// config directory.
func NewService(ctx context.Context, cfg *config.ClientConfig) (commands.Service, error) {
	store := session.NewStore(&session.FileStorage{Dir: cfg.ConfigDir})
	var opts []client.Option
	if cfg.Debug {
		opts = append(opts, client.WithDebugLog(log.New(os.Stderr, "debug: ", log.LstdFlags)))
	}
	return client.New(cfg.APIURL, store, opts...), nil
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	if factory == nil {
		factory = NewService
	}
	return &Dispatcher{registry: registry, factory: factory}
}

// Run parses arguments and dispatches to the matching command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	// flags require a command
	if strings.HasPrefix(args[0], "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
		return exitcode.UserError
	}
	return d.dispatch(ctx, args[0], args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(name)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var apiURL, configDir string
	var quiet, debug bool
	fs.StringVar(&apiURL, "api", "", "")
	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		reportFlagError(errOut, err)
		return exitcode.UserError
	}
	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") && positional[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return exitcode.UserError
	}

	cfg, err := config.LoadClient(apiURL, configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	svc, err := d.factory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
		return exitcode.BackendError
	}

	if cmd.NeedsAuth() {
		if _, err := svc.Session().Token(); err != nil {
			switch {
			case errors.Is(err, session.ErrExpired):
				fmt.Fprintln(errOut, "error: session expired (run: todo signin)")
			case errors.Is(err, session.ErrNoSession):
				fmt.Fprintln(errOut, "error: not signed in (run: todo signin)")
			default:
				fmt.Fprintf(errOut, "error: auth error: %s\n", err)
			}
			return exitcode.AuthError
		}
	}

	return cmd.Run(ctx, cfg, svc, positional, out, errOut)
}

func reportFlagError(errOut io.Writer, err error) {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument: "):
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", strings.TrimPrefix(msg, "flag needs an argument: "))
	case strings.HasPrefix(msg, "flag provided but not defined: "):
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", strings.TrimPrefix(msg, "flag provided but not defined: "))
	default:
		fmt.Fprintf(errOut, "error: %s\n", msg)
	}
}

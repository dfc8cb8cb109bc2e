// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"github.com/chepyr/go-todo/internal/app"
	"github.com/chepyr/go-todo/internal/client"
	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/session"
)

// Service is everything commands need from the todo service.
type Service interface {
	app.Gateway
	app.AuthGateway
	app.Subscriber
	Session() *session.Store
}

var _ Service = (*client.Client)(nil)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a stored session.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command and returns the exit code.
	// args contains positional arguments after flag parsing.
	Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int
}

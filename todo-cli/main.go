// Command todo-cli is the terminal client for the todo service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chepyr/go-todo/internal/cli"
	"github.com/chepyr/go-todo/internal/commands"
	"github.com/chepyr/go-todo/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, cli.NewService)
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chepyr/go-todo/internal/app"
	"github.com/chepyr/go-todo/internal/client"
	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/exitcode"
	"github.com/chepyr/go-todo/internal/models"
)

func init() {
	Register(&SignupCmd{})
	Register(&SigninCmd{})
	Register(&SignoutCmd{})
}

// prompter reads answers from stdin unless an input is set.
type prompter struct {
	in io.Reader
}

// SetInput replaces stdin (for testing).
func (p *prompter) SetInput(r io.Reader) {
	p.in = r
}

func (p *prompter) ask(errOut io.Writer, question string) (string, error) {
	in := p.in
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprint(errOut, question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type SignupCmd struct{ prompter }

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return nil }
func (c *SignupCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *SignupCmd) Usage() string     { return "todo signup [common flags] <email>" }
func (c *SignupCmd) NeedsAuth() bool   { return false }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
	form := app.NewSignupForm(svc)
	return runAuth(ctx, cfg, &c.prompter, form.Submit, args, out, errOut)
}

type SigninCmd struct{ prompter }

func (c *SigninCmd) Name() string      { return "signin" }
func (c *SigninCmd) Aliases() []string { return []string{"login"} }
func (c *SigninCmd) Synopsis() string  { return "Sign in" }
func (c *SigninCmd) Usage() string     { return "todo signin [common flags] <email>" }
func (c *SigninCmd) NeedsAuth() bool   { return false }

func (c *SigninCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SigninCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
	form := app.NewSigninForm(svc)
	return runAuth(ctx, cfg, &c.prompter, form.Submit, args, out, errOut)
}

type submitFunc func(ctx context.Context, email, password string) (*models.AuthResponse, error)

// runAuth is shared by signup and signin. The password is read from stdin.
func runAuth(ctx context.Context, cfg *config.ClientConfig, p *prompter, submit submitFunc, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}
	password, err := p.ask(errOut, "Password: ")
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read password: %v\n", err)
		return exitcode.UserError
	}

	resp, err := submit(ctx, args[0], password)
	if err != nil {
		var vErr *app.ValidationError
		var tErr *client.TransportError
		switch {
		case errors.As(err, &vErr), errors.As(err, &tErr):
			return report(errOut, err)
		default:
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.AuthError
		}
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "signed in as %s\n", resp.User.Email)
	}
	return exitcode.Success
}

type SignoutCmd struct{}

func (c *SignoutCmd) Name() string      { return "signout" }
func (c *SignoutCmd) Aliases() []string { return []string{"logout"} }
func (c *SignoutCmd) Synopsis() string  { return "Sign out and remove the stored session" }
func (c *SignoutCmd) Usage() string     { return "todo signout [common flags]" }
func (c *SignoutCmd) NeedsAuth() bool   { return false }

func (c *SignoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SignoutCmd) Run(ctx context.Context, cfg *config.ClientConfig, svc Service, args []string, out, errOut io.Writer) int {
	if _, ok := svc.Session().Read(); !ok {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not signed in")
		}
		return exitcode.Success
	}

	page := app.NewTodosPage(svc, svc.Session())
	if err := page.Signout(ctx, svc); err != nil {
		// the local session is gone either way
		fmt.Fprintf(errOut, "warning: %v\n", err)
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

package app

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/chepyr/go-todo/internal/models"
)

const minPasswordLength = 8

// FormView is a copy of an auth form's state.
type FormView struct {
	Submitting bool
	Err        string
	Redirect   Route
}

type authForm struct {
	mu         sync.Mutex
	submitting bool
	err        string
	redirect   Route
}

func (f *authForm) submit(ctx context.Context, validate func() error, call func(context.Context) (*models.AuthResponse, error)) (*models.AuthResponse, error) {
	f.mu.Lock()
	if err := validate(); err != nil {
		f.err = err.Error()
		f.mu.Unlock()
		return nil, err
	}
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	f.submitting = true
	f.err = ""
	f.mu.Unlock()

	resp, err := call(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		f.err = errorMessage(err)
		return nil, err
	}
	f.redirect = RouteTodos
	return resp, nil
}

func (f *authForm) Snapshot() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormView{Submitting: f.submitting, Err: f.err, Redirect: f.redirect}
}

// SignupForm registers a new account; success stores the session through
// the gateway and redirects to the todos view.
type SignupForm struct {
	authForm
	auth AuthGateway
}

func NewSignupForm(auth AuthGateway) *SignupForm {
	return &SignupForm{auth: auth}
}

func (f *SignupForm) Submit(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = strings.TrimSpace(email)
	return f.submit(ctx, func() error {
		return validateSignup(email, password)
	}, func(ctx context.Context) (*models.AuthResponse, error) {
		return f.auth.Signup(ctx, email, password)
	})
}

type SigninForm struct {
	authForm
	auth AuthGateway
}

func NewSigninForm(auth AuthGateway) *SigninForm {
	return &SigninForm{auth: auth}
}

func (f *SigninForm) Submit(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = strings.TrimSpace(email)
	return f.submit(ctx, func() error {
		return requireCredentials(email, password)
	}, func(ctx context.Context) (*models.AuthResponse, error) {
		return f.auth.Signin(ctx, email, password)
	})
}

func requireCredentials(email, password string) error {
	if email == "" || password == "" {
		return &ValidationError{Field: "email", Message: "Email and password are required"}
	}
	return nil
}

func validateSignup(email, password string) error {
	if err := requireCredentials(email, password); err != nil {
		return err
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return &ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return &ValidationError{Field: "password", Message: "Password must be at least 8 characters"}
	}
	return nil
}

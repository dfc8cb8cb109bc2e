package app

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/chepyr/go-todo/internal/client"
)

func TestSignupForm_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantMsg  string
	}{
		{"missing email", "", "password123", "Email and password are required"},
		{"missing password", "a@b.co", "", "Email and password are required"},
		{"no at sign", "user.example.com", "password123", "Please enter a valid email address"},
		{"no dot", "user@example", "password123", "Please enter a valid email address"},
		{"seven chars", "user@example.com", "1234567", "Password must be at least 8 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			form := NewSignupForm(gw)

			_, err := form.Submit(context.Background(), tt.email, tt.password)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Message != tt.wantMsg {
				t.Fatalf("error = %v, want %q", err, tt.wantMsg)
			}
			if gw.total() != 0 {
				t.Error("request sent for invalid input")
			}
			if v := form.Snapshot(); v.Err != tt.wantMsg || v.Redirect != RouteNone {
				t.Errorf("view = %+v", v)
			}
		})
	}
}

func TestSignupForm_Success(t *testing.T) {
	gw := newFakeGateway()
	form := NewSignupForm(gw)

	resp, err := form.Submit(context.Background(), " user@example.com ", "12345678")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.User.Email != "user@example.com" {
		t.Errorf("email = %q", resp.User.Email)
	}
	if v := form.Snapshot(); v.Redirect != RouteTodos || v.Submitting || v.Err != "" {
		t.Errorf("view = %+v", v)
	}
}

func TestSigninForm(t *testing.T) {
	gw := newFakeGateway()
	form := NewSigninForm(gw)

	if _, err := form.Submit(context.Background(), "user@example.com", ""); err == nil {
		t.Fatal("expected a validation error")
	}
	if gw.count("signin") != 0 {
		t.Fatal("request sent without a password")
	}

	// short passwords are the server's call on sign-in
	gw.fail("signin", &client.APIError{Op: client.OpSignin, Status: http.StatusUnauthorized, Message: "Invalid email or password"})
	if _, err := form.Submit(context.Background(), "user@example.com", "short"); err == nil {
		t.Fatal("expected the server error")
	}
	if v := form.Snapshot(); v.Err != "Invalid email or password" || v.Redirect != RouteNone {
		t.Errorf("view = %+v", v)
	}

	gw.fail("signin", nil)
	if _, err := form.Submit(context.Background(), "user@example.com", "password123"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v := form.Snapshot(); v.Err != "" || v.Redirect != RouteTodos {
		t.Errorf("view = %+v", v)
	}
}

// Package client talks to the todo service over its REST contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chepyr/go-todo/internal/models"
	"github.com/chepyr/go-todo/internal/session"
)

// Client is safe for concurrent use. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *session.Store
	debug      *log.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request; without it only the caller's context does.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithDebugLog logs every request and response status.
func WithDebugLog(l *log.Logger) Option {
	return func(c *Client) { c.debug = l }
}

func New(baseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		store:      store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *session.Store {
	return c.store
}

func (c *Client) Signup(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, OpSignup, "/auth/signup", email, password)
}

func (c *Client) Signin(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, OpSignin, "/auth/signin", email, password)
}

func (c *Client) authenticate(ctx context.Context, op Op, path, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	body := models.Credentials{Email: email, Password: password}
	if err := c.do(ctx, op, http.MethodPost, path, false, body, &resp); err != nil {
		return nil, err
	}
	err := c.store.Save(session.Session{
		Token:     resp.AccessToken,
		TokenType: resp.TokenType,
		UserID:    resp.User.ID.String(),
		Email:     resp.User.Email,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signout always drops the local session. A failed server call is still
// returned so the caller can report it.
func (c *Client) Signout(ctx context.Context) error {
	var err error
	if _, ok := c.store.Read(); ok {
		err = c.do(ctx, OpSignout, http.MethodPost, "/auth/signout", true, nil, nil)
	}
	if clearErr := c.store.Clear(); clearErr != nil {
		return clearErr
	}
	if IsAuthError(err) {
		return nil
	}
	return err
}

func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := c.do(ctx, OpListTasks, http.MethodGet, "/todos", true, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, OpGetTask, http.MethodGet, taskPath(id), true, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CreateTask(ctx context.Context, title string, description *string) (*models.Task, error) {
	var task models.Task
	body := models.TaskInput{Title: title, Description: description}
	if err := c.do(ctx, OpCreateTask, http.MethodPost, "/todos", true, body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask sends only the fields that are non-nil.
func (c *Client) UpdateTask(ctx context.Context, id string, title, description *string) (*models.Task, error) {
	var task models.Task
	body := struct {
		Title       *string `json:"title,omitempty"`
		Description *string `json:"description,omitempty"`
	}{title, description}
	if err := c.do(ctx, OpUpdateTask, http.MethodPut, taskPath(id), true, body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, OpDeleteTask, http.MethodDelete, taskPath(id), true, nil, nil)
}

func (c *Client) ToggleTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, OpToggleTask, http.MethodPatch, taskPath(id)+"/complete", true, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func taskPath(id string) string {
	return "/todos/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, op Op, method, path string, auth bool, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if err := c.authorize(op, req); err != nil {
			return err
		}
	}

	if c.debug != nil {
		c.debug.Printf("%s %s", method, req.URL)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	if c.debug != nil {
		c.debug.Printf("%s %s -> %d", method, req.URL, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Op: op, Status: resp.StatusCode, Message: op.FallbackMessage()}
		var errBody models.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil && errBody.Detail != "" {
			apiErr.Message = errBody.Detail
		}
		if auth && resp.StatusCode == http.StatusUnauthorized {
			if err := c.store.Clear(); err != nil {
				log.Printf("Failed to clear rejected session: %v", err)
			}
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return nil
}

// authorize fails without touching the network when no usable token is stored.
func (c *Client) authorize(op Op, req *http.Request) error {
	tok, err := c.store.Token()
	if err != nil {
		if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrExpired) {
			return err
		}
		return &TransportError{Op: op, Err: err}
	}
	tok.SetAuthHeader(req)
	return nil
}

// Package session keeps the signed-in user's bearer token between runs.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

var (
	// ErrNoSession is returned when no one is signed in.
	ErrNoSession = errors.New("not signed in")
	// ErrExpired is returned when the stored token's exp claim has passed.
	// The session is cleared before it is returned.
	ErrExpired = errors.New("session expired")
)

// Session is what signup and signin leave behind on the client.
type Session struct {
	Token     string `json:"access_token"`
	TokenType string `json:"token_type"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
}

// Storage is where a Store persists its session.
// Load returns ErrNoSession when nothing is stored.
type Storage interface {
	Load() (Session, error)
	Save(Session) error
	Remove() error
}

// Store is safe for concurrent use; it is also an oauth2.TokenSource.
type Store struct {
	mu      sync.Mutex
	storage Storage
	current *Session
	loaded  bool
	now     func() time.Time
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage, now: time.Now}
}

func (s *Store) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Save(sess); err != nil {
		return err
	}
	s.current = &sess
	s.loaded = true
	return nil
}

// Read returns the current session. An expired session is cleared and reported as absent.
func (s *Store) Read() (Session, bool) {
	sess, err := s.active()
	return sess, err == nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

// Token implements oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	sess, err := s.active()
	if err != nil {
		return nil, err
	}
	tokenType := sess.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken: sess.Token,
		TokenType:   tokenType,
		Expiry:      ExpiresAt(sess.Token),
	}, nil
}

func (s *Store) active() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		sess, err := s.storage.Load()
		switch {
		case errors.Is(err, ErrNoSession):
		case err != nil:
			return Session{}, err
		default:
			s.current = &sess
		}
		s.loaded = true
	}
	if s.current == nil || s.current.Token == "" {
		return Session{}, ErrNoSession
	}

	if exp := ExpiresAt(s.current.Token); !exp.IsZero() && !s.now().Before(exp) {
		if err := s.clearLocked(); err != nil {
			return Session{}, err
		}
		return Session{}, ErrExpired
	}
	return *s.current, nil
}

func (s *Store) clearLocked() error {
	s.current = nil
	s.loaded = true
	return s.storage.Remove()
}

// ExpiresAt reads the exp claim without verifying the signature; only the
// server can verify it. Tokens that are not JWTs, or carry no exp, never expire here.
func ExpiresAt(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

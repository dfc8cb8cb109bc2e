package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chepyr/go-todo/internal/db"
	"github.com/chepyr/go-todo/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/sha3"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 100
	maxEmailLength    = 255

	// bcrypt rejects inputs longer than this many bytes.
	bcryptMaxInput = 72
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if !h.allowAuthAttempt(w, r) {
		return
	}
	input, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if !validateEmail(w, input.Email) {
		return
	}
	if n := utf8.RuneCountInString(input.Password); n < minPasswordLength || n > maxPasswordLength {
		sendError(w, fmt.Sprintf("Password must be between %d and %d characters",
			minPasswordLength, maxPasswordLength), http.StatusUnprocessableEntity)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := h.UserRepo.GetByEmail(ctx, input.Email); err == nil {
		sendError(w, "Email already registered", http.StatusBadRequest)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		log.Printf("Error checking email %s: %v", input.Email, err)
		sendError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	hash, err := bcrypt.GenerateFromPassword(bcryptInput(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		sendError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.UserRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, db.ErrEmailTaken) {
			sendError(w, "Email already registered", http.StatusBadRequest)
			return
		}
		log.Printf("Error creating user %s: %v", input.Email, err)
		sendError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.sendAuthResponse(w, user, http.StatusCreated)
	log.Printf("User registered: %s", user.Email)
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	if !h.allowAuthAttempt(w, r) {
		return
	}
	input, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if !validateEmail(w, input.Email) {
		return
	}
	if input.Password == "" || utf8.RuneCountInString(input.Password) > maxPasswordLength {
		sendError(w, "Password is required", http.StatusUnprocessableEntity)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.UserRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		log.Printf("Error retrieving user by email %s: %v", input.Email, err)
		sendError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash), bcryptInput(input.Password)); err != nil {
		log.Printf("Invalid password for email: %s", input.Email)
		sendError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.sendAuthResponse(w, user, http.StatusOK)
	log.Printf("User logged in: %s", user.Email)
}

// Signout only acknowledges; tokens are stateless and the client drops its copy.
func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	log.Printf("User signed out: %s", userID)
	sendJSON(w, http.StatusOK, models.MessageResponse{Message: "Successfully signed out"})
}

// bcryptInput returns the bytes handed to bcrypt. Passwords over bcrypt's
// limit are reduced to a base64 SHA3-256 digest first, so every accepted
// length can be hashed and all of its bytes count.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha3.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (h *Handler) allowAuthAttempt(w http.ResponseWriter, r *http.Request) bool {
	clientIP := clientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		log.Printf("Rate limit exceeded for IP: %s", clientIP)
		sendError(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
		return false
	}
	return true
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (models.Credentials, bool) {
	var input models.Credentials
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("Error decoding JSON: %v", err)
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return input, false
	}
	input.Email = strings.TrimSpace(input.Email)
	return input, true
}

func validateEmail(w http.ResponseWriter, email string) bool {
	if email == "" || len(email) > maxEmailLength || !emailRegex.MatchString(email) {
		sendError(w, "Invalid email address", http.StatusUnprocessableEntity)
		return false
	}
	return true
}

func (h *Handler) sendAuthResponse(w http.ResponseWriter, user *models.User, status int) {
	token, err := h.generateToken(user.ID.String())
	if err != nil {
		log.Printf("Error generating token: %v", err)
		sendError(w, "Cannot create token", http.StatusInternalServerError)
		return
	}
	sendJSON(w, status, models.AuthResponse{
		AccessToken: token,
		TokenType:   models.TokenTypeBearer,
		User:        user.Response(),
	})
}

func (h *Handler) generateToken(sub string) (string, error) {
	if len(h.JWTSecret) == 0 {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	})

	tokenString, err := token.SignedString(h.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return tokenString, nil
}

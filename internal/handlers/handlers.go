package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/chepyr/go-todo/internal/cache"
	"github.com/chepyr/go-todo/internal/db"
	"github.com/chepyr/go-todo/internal/events"
	"github.com/chepyr/go-todo/internal/models"
)

const requestTimeout = 5 * time.Second

type Handler struct {
	UserRepo    db.UserRepositoryInterface
	TodoRepo    db.TodoRepositoryInterface
	Cache       cache.TodoCache
	Events      events.Publisher
	RateLimiter *RateLimiter
	WSHub       *WSHub

	JWTSecret []byte
	TokenTTL  time.Duration
}

func (h *Handler) todoCache() cache.TodoCache {
	if h.Cache == nil {
		return cache.NopCache{}
	}
	return h.Cache
}

// publish is best effort: a dead subscriber never fails the request.
func (h *Handler) publish(ctx context.Context, typ models.EventType, task *models.Task) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Publish(ctx, models.NewEvent(typ, task)); err != nil {
		log.Printf("Failed to publish %s for todo %s: %v", typ, task.ID, err)
	}
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, models.ErrorResponse{Detail: message})
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

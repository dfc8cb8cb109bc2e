package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chepyr/go-todo/internal/db"
	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 2000
)

// GET /todos
func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cached, version, cacheErr := h.todoCache().GetList(ctx, userID)
	if cacheErr != nil {
		log.Printf("Cache read failed for user %s: %v", userID, cacheErr)
	} else if cached != nil {
		sendJSON(w, http.StatusOK, cached)
		return
	}

	tasks, err := h.TodoRepo.ListByUserID(ctx, userID)
	if err != nil {
		log.Printf("Failed to list todos for user %s: %v", userID, err)
		sendError(w, "Failed to fetch todos", http.StatusInternalServerError)
		return
	}
	// without a version from the read there is nothing safe to write back
	if cacheErr == nil {
		if err := h.todoCache().SetList(ctx, userID, version, tasks); err != nil {
			log.Printf("Cache write failed for user %s: %v", userID, err)
		}
	}
	sendJSON(w, http.StatusOK, tasks)
}

// POST /todos
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	title, ok := validateTitle(w, input.Title)
	if !ok || !validateDescription(w, input.Description) {
		return
	}

	task := &models.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.TodoRepo.Create(ctx, task); err != nil {
		log.Printf("Failed to create todo: %v", err)
		sendError(w, "Failed to create todo", http.StatusInternalServerError)
		return
	}
	h.afterMutation(ctx, models.EventTodoCreated, task)
	w.Header().Set("Location", "/todos/"+task.ID.String())
	sendJSON(w, http.StatusCreated, task)
}

// GET /todos/{id}
func (h *Handler) GetTodo(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := h.routeIDs(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	task, err := h.TodoRepo.GetByID(ctx, todoID, userID)
	if err != nil {
		sendRepoError(w, err, "Failed to fetch todo")
		return
	}
	sendJSON(w, http.StatusOK, task)
}

// PUT /todos/{id}; absent fields keep their stored value
func (h *Handler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := h.routeIDs(w, r)
	if !ok {
		return
	}

	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	var title string
	if input.Title != nil {
		if title, ok = validateTitle(w, *input.Title); !ok {
			return
		}
	}
	if !validateDescription(w, input.Description) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	task, err := h.TodoRepo.GetByID(ctx, todoID, userID)
	if err != nil {
		sendRepoError(w, err, "Failed to update todo")
		return
	}
	if input.Title != nil {
		task.Title = title
	}
	if input.Description != nil {
		// an empty description clears it
		task.Description = input.Description
		if strings.TrimSpace(*input.Description) == "" {
			task.Description = nil
		}
	}
	now := time.Now().UTC()
	task.UpdatedAt = &now

	if err := h.TodoRepo.Update(ctx, task); err != nil {
		sendRepoError(w, err, "Failed to update todo")
		return
	}
	h.afterMutation(ctx, models.EventTodoUpdated, task)
	sendJSON(w, http.StatusOK, task)
}

// PATCH /todos/{id}/complete
func (h *Handler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := h.routeIDs(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	task, err := h.TodoRepo.ToggleCompleted(ctx, todoID, userID, time.Now().UTC())
	if err != nil {
		sendRepoError(w, err, "Failed to toggle todo")
		return
	}
	h.afterMutation(ctx, models.EventTodoToggled, task)
	sendJSON(w, http.StatusOK, task)
}

// DELETE /todos/{id}
func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := h.routeIDs(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.TodoRepo.Delete(ctx, todoID, userID); err != nil {
		sendRepoError(w, err, "Failed to delete todo")
		return
	}
	h.afterMutation(ctx, models.EventTodoDeleted, &models.Task{ID: todoID, UserID: userID})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) afterMutation(ctx context.Context, typ models.EventType, task *models.Task) {
	if err := h.todoCache().Invalidate(ctx, task.UserID); err != nil {
		log.Printf("Cache invalidation failed for user %s: %v", task.UserID, err)
	}
	h.publish(ctx, typ, task)
}

func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		sendError(w, credentialsError, http.StatusUnauthorized)
	}
	return userID, ok
}

func (h *Handler) routeIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	todoID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		sendError(w, "Invalid todo ID format", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, todoID, true
}

// foreign todos are reported exactly like missing ones
func sendRepoError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Todo not found", http.StatusNotFound)
		return
	}
	log.Printf("%s: %v", fallback, err)
	sendError(w, fallback, http.StatusInternalServerError)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(strings.ToLower(ct), "application/json")
}

func validateTitle(w http.ResponseWriter, raw string) (string, bool) {
	title := strings.TrimSpace(raw)
	if title == "" {
		sendError(w, "Title is required", http.StatusUnprocessableEntity)
		return "", false
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		sendError(w, "Title must be at most 255 characters", http.StatusUnprocessableEntity)
		return "", false
	}
	return title, true
}

func validateDescription(w http.ResponseWriter, desc *string) bool {
	if desc != nil && utf8.RuneCountInString(*desc) > maxDescriptionLength {
		sendError(w, "Description must be at most 2000 characters", http.StatusUnprocessableEntity)
		return false
	}
	return true
}

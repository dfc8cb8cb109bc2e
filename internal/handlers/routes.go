package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	APIPrefix   string
	CORSOrigins []string
	Version     string
}

/*
routes (under the API prefix):
- POST /auth/signup, POST /auth/signin, POST /auth/signout
- GET, POST /todos
- GET, PUT, DELETE /todos/{id}
- PATCH /todos/{id}/complete
- GET /ws
plus GET /health and GET / at the root
*/
func NewRouter(h *Handler, cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, "Not Found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, map[string]string{
			"name":    "go-todo",
			"version": cfg.Version,
			"docs":    cfg.APIPrefix + "/todos",
		})
	}).Methods(http.MethodGet)

	api := r
	if prefix := strings.TrimRight(cfg.APIPrefix, "/"); prefix != "" {
		api = r.PathPrefix(prefix).Subrouter()
	}

	api.HandleFunc("/auth/signup", h.Signup).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/signin", h.Signin).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/signout", h.AuthMiddleware(h.Signout)).Methods(http.MethodPost, http.MethodOptions)

	api.HandleFunc("/todos", h.AuthMiddleware(h.ListTodos)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/todos", h.AuthMiddleware(h.CreateTodo)).Methods(http.MethodPost)
	api.HandleFunc("/todos/{id}", h.AuthMiddleware(h.GetTodo)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/todos/{id}", h.AuthMiddleware(h.UpdateTodo)).Methods(http.MethodPut)
	api.HandleFunc("/todos/{id}", h.AuthMiddleware(h.DeleteTodo)).Methods(http.MethodDelete)
	api.HandleFunc("/todos/{id}/complete", h.AuthMiddleware(h.ToggleTodo)).Methods(http.MethodPatch, http.MethodOptions)

	api.HandleFunc("/ws", h.AuthMiddleware(h.HandleWebSocket)).Methods(http.MethodGet)
	return r
}

func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowed["*"] || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "3600")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

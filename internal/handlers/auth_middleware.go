package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ctxKey int

const userIDKey ctxKey = iota

const credentialsError = "Could not validate credentials"

/*
Verify the bearer JWT, check that its subject is a known user
and put the user ID into the request context
*/
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			sendError(w, credentialsError, http.StatusUnauthorized)
			return
		}

		userID, err := h.parseToken(tokenString)
		if err != nil {
			log.Printf("Rejected token: %v", err)
			w.Header().Set("WWW-Authenticate", "Bearer")
			sendError(w, credentialsError, http.StatusUnauthorized)
			return
		}

		if h.UserRepo != nil {
			if _, err := h.UserRepo.GetByID(r.Context(), userID); err != nil {
				log.Printf("Token subject %s not found: %v", userID, err)
				w.Header().Set("WWW-Authenticate", "Bearer")
				sendError(w, credentialsError, http.StatusUnauthorized)
				return
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func (h *Handler) parseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return h.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(sub)
}

func userIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

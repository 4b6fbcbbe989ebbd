package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/taskgrid/taskgrid/board"
	"github.com/taskgrid/taskgrid/database"
	"github.com/taskgrid/taskgrid/services"
)

type contextKey string

const userContextKey contextKey = "user"

type AuthMiddleware struct {
	authService *services.AuthService
	store       *database.Store
}

func NewAuthMiddleware(authService *services.AuthService, store *database.Store) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		store:       store,
	}
}

// Auth verifies the Bearer token, loads the user it identifies, and stores
// the user in the request context. Requests without a valid identity are
// rejected before reaching any handler.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WebSocket upgrades can't set headers; allow token via query.
		tokenString := r.URL.Query().Get("token")

		if tokenString == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, fmt.Errorf("%w: missing authorization header", board.ErrUnauthorized))
				return
			}

			// Extract token from Bearer format
			authParts := strings.Split(authHeader, " ")
			if len(authParts) != 2 || authParts[0] != "Bearer" {
				writeError(w, fmt.Errorf("%w: invalid authorization format", board.ErrUnauthorized))
				return
			}
			tokenString = authParts[1]
		}

		// Verify token
		userID, err := m.authService.VerifyJWT(tokenString)
		if err != nil {
			writeError(w, fmt.Errorf("%w: invalid token", board.ErrUnauthorized))
			return
		}

		// Resolve the current user; admin status always comes from the
		// store, never from the token.
		user, err := m.store.GetUser(userID)
		if err != nil {
			if errors.Is(err, board.ErrNotFound) {
				writeError(w, fmt.Errorf("%w: unknown user", board.ErrUnauthorized))
				return
			}
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated user placed in the context by Auth.
func currentUser(r *http.Request) (board.User, bool) {
	user, ok := r.Context().Value(userContextKey).(board.User)
	return user, ok
}

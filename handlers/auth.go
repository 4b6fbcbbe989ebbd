package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/taskgrid/taskgrid/board"
	"github.com/taskgrid/taskgrid/database"
	"github.com/taskgrid/taskgrid/services"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
	store       *database.Store
}

func NewAuthHandler(authService *services.AuthService, store *database.Store) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		store:       store,
	}
}

// Login handles the login request (sending a magic link)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// Parse request
	var req struct {
		Email string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
		return
	}

	// Validate email
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid email address"})
		return
	}

	// Get base URL from request or use default
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, r.Host)

	// Generate magic link
	magicLink, err := h.authService.GenerateMagicLink(req.Email, baseURL)
	if err != nil {
		log.Printf("Error generating magic link: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to generate login link"})
		return
	}

	// Return success response with magic link for development
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "success",
		"message":   "Magic link has been sent",
		"magicLink": magicLink, // For development only
	})
}

// HandleMagicLink processes a magic link token, provisions the user on first
// login, and redirects to the frontend with a session token.
func (h *AuthHandler) HandleMagicLink(w http.ResponseWriter, r *http.Request) {
	// Get token from query
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing token"})
		return
	}

	// Verify token
	email, err := h.authService.VerifyMagicLinkToken(token)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid or expired token"})
		return
	}

	// Look the user up, creating them on first login
	user, err := h.store.GetUserByExternalID(email)
	if errors.Is(err, board.ErrNotFound) {
		user, err = h.store.CreateUser(board.User{
			ExternalID: email,
			Name:       displayName(email),
			Admin:      isBootstrapAdmin(email),
		})
	}
	if err != nil {
		log.Printf("Error provisioning user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Authentication error"})
		return
	}

	// Create JWT session token
	jwtToken, err := h.authService.CreateJWT(user.ID)
	if err != nil {
		log.Printf("Error creating JWT: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Authentication error"})
		return
	}

	// Redirect to frontend with token
	redirectURL := fmt.Sprintf("/?token=%s", jwtToken)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// VerifyToken checks a session token and returns the current user
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	// Get token from Authorization header
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

	// Verify token
	userID, err := h.authService.VerifyJWT(authParts[1])
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid token", board.ErrUnauthorized))
		return
	}

	user, err := h.store.GetUser(userID)
	if err != nil {
		writeError(w, fmt.Errorf("%w: unknown user", board.ErrUnauthorized))
		return
	}

	// Return success with the current user
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "valid",
		"user":   user,
	})
}

// displayName derives a default name from the local part of an email.
func displayName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// isBootstrapAdmin grants admin to the configured ADMIN_EMAIL on first login.
func isBootstrapAdmin(email string) bool {
	admin := os.Getenv("ADMIN_EMAIL")
	return admin != "" && strings.EqualFold(admin, email)
}

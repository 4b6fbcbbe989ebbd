package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/taskgrid/taskgrid/board"
	"github.com/taskgrid/taskgrid/database"
)

// UserHandler handles the user endpoints. Listing is open to every board
// member; mutations are admin only.
type UserHandler struct {
	store *database.Store
}

func NewUserHandler(store *database.Store) *UserHandler {
	return &UserHandler{store: store}
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get handles GET /api/users/{id}. "me" resolves to the current user.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "me" {
		actor, ok := currentUser(r)
		if !ok {
			writeError(w, board.ErrUnauthorized)
			return
		}
		id = actor.ID
	}

	user, err := h.store.GetUser(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Create handles POST /api/users. Admin only; normally users are provisioned
// on first login, this exists for pre-seeding a board.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(r)
	if !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}
	if err := board.RequireAdmin(actor); err != nil {
		writeError(w, err)
		return
	}

	var req board.User
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &board.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, &board.ValidationError{Field: "name", Reason: "must not be empty"})
		return
	}

	user, err := h.store.CreateUser(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Update handles PATCH /api/users/{id}. Admin only; this is where cumulative
// points and roles are awarded.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(r)
	if !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}
	if err := board.RequireAdmin(actor); err != nil {
		writeError(w, err)
		return
	}

	var req board.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &board.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	user, err := h.store.UpdateUser(mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

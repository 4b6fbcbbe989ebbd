package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskgrid/taskgrid/board"
	"github.com/taskgrid/taskgrid/database"
	"github.com/taskgrid/taskgrid/services"
)

// ColumnHandler handles the column CRUD endpoints.
type ColumnHandler struct {
	store *database.Store
	hub   *services.Hub
}

func NewColumnHandler(store *database.Store, hub *services.Hub) *ColumnHandler {
	return &ColumnHandler{
		store: store,
		hub:   hub,
	}
}

// List handles GET /api/columns, returning columns in display order.
func (h *ColumnHandler) List(w http.ResponseWriter, r *http.Request) {
	cols, err := h.store.ListColumns()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board.SortColumns(cols))
}

// Create handles POST /api/columns. Admin only; the title bound is checked
// before any store call.
func (h *ColumnHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(r)
	if !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}
	if err := board.RequireAdmin(actor); err != nil {
		writeError(w, err)
		return
	}

	var req board.Column
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &board.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	if err := board.ValidateColumnTitle(req.Title); err != nil {
		writeError(w, err)
		return
	}

	col, err := h.store.CreateColumn(req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(services.Event{Type: "column.created", Data: col})
	writeJSON(w, http.StatusCreated, col)
}

// Update handles PATCH /api/columns/{id}.
func (h *ColumnHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(r)
	if !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}
	if err := board.RequireAdmin(actor); err != nil {
		writeError(w, err)
		return
	}

	var req board.ColumnPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &board.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	if req.Title != nil {
		if err := board.ValidateColumnTitle(*req.Title); err != nil {
			writeError(w, err)
			return
		}
	}

	col, err := h.store.UpdateColumn(mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(services.Event{Type: "column.updated", Data: col})
	writeJSON(w, http.StatusOK, col)
}

// Delete handles DELETE /api/columns/{id}.
func (h *ColumnHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(r)
	if !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}
	if err := board.RequireAdmin(actor); err != nil {
		writeError(w, err)
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.store.DeleteColumn(id); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(services.Event{Type: "column.deleted", Data: map[string]string{"id": id}})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

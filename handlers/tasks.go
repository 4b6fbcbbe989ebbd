package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/taskgrid/taskgrid/board"
	"github.com/taskgrid/taskgrid/database"
	"github.com/taskgrid/taskgrid/services"
)

// TaskHandler handles the task CRUD endpoints. State changes go through the
// workflow state machine; everything else is an admin-only field edit.
type TaskHandler struct {
	store *database.Store
	hub   *services.Hub
}

func NewTaskHandler(store *database.Store, hub *services.Hub) *TaskHandler {
	return &TaskHandler{
		store: store,
		hub:   hub,
	}
}

// List handles GET /api/tasks?state=a,b&assigned_to=me|<id>
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(r)
	if !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}

	var q board.TaskQuery
	if raw := r.URL.Query().Get("state"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			state := board.TaskState(strings.TrimSpace(s))
			if err := board.ValidateState(state); err != nil {
				writeError(w, err)
				return
			}
			q.States = append(q.States, state)
		}
	}
	if assigned := r.URL.Query().Get("assigned_to"); assigned != "" {
		// "me" is sugar for the current user's id
		if assigned == "me" {
			assigned = actor.ID
		}
		q.AssignedTo = assigned
	}

	tasks, err := h.store.ListTasks(q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Get handles GET /api/tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.store.GetTask(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Create handles POST /api/tasks. New tasks always start in the "new" state
// with no assignee; the cell the user clicked pre-fills col_id and row.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}

	var req board.NewTask
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &board.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	if err := board.ValidateTaskTitle(req.Title); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.store.CreateTask(req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(services.Event{Type: "task.created", Data: task})
	writeJSON(w, http.StatusCreated, task)
}

// Update handles PATCH and PUT /api/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(r)
	if !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}

	var req board.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &board.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	id := mux.Vars(r)["id"]
	task, err := h.store.GetTask(id)
	if err != nil {
		writeError(w, err)
		return
	}

	patch := board.TaskPatch{}

	// A state change is a workflow transition, validated against the
	// transition table with the authenticated actor. The resulting
	// assignment is derived from the transition, never taken from the
	// request: explicit assigned_to_id values are ignored.
	if req.State != nil && *req.State != task.State {
		if err := board.ValidateState(*req.State); err != nil {
			writeError(w, err)
			return
		}
		action, found := board.ActionFor(task.State, *req.State)
		if !found {
			writeError(w, fmt.Errorf("%w: no action moves a task from %q to %q", board.ErrInvalidTransition, task.State, *req.State))
			return
		}
		next, err := board.Transition(task, action, actor)
		if err != nil {
			writeError(w, err)
			return
		}
		patch.State = &next.State
		patch.AssignedToID = &next.AssignedToID
	}

	// Everything else is an admin-only field edit, independent of state.
	fieldEdit := req.Title != nil || req.ReferenceURL != nil || req.Points != nil ||
		req.Technology != nil || req.ColID != nil || req.Row != nil ||
		req.Priority != nil || req.Locked != nil
	if fieldEdit {
		if err := board.RequireAdmin(actor); err != nil {
			writeError(w, err)
			return
		}
		if req.Title != nil {
			if err := board.ValidateTaskTitle(*req.Title); err != nil {
				writeError(w, err)
				return
			}
			patch.Title = req.Title
		}
		if req.ReferenceURL != nil {
			normalized, err := board.NormalizeReferenceURL(*req.ReferenceURL)
			if err != nil {
				writeError(w, err)
				return
			}
			patch.ReferenceURL = &normalized
		}
		if req.Points != nil {
			if err := board.ValidatePoints(*req.Points); err != nil {
				writeError(w, err)
				return
			}
			patch.Points = req.Points
		}
		if req.Technology != nil {
			if err := board.ValidateTechnology(*req.Technology); err != nil {
				writeError(w, err)
				return
			}
			patch.Technology = req.Technology
		}
		patch.ColID = req.ColID
		patch.Row = req.Row
		patch.Priority = req.Priority
		patch.Locked = req.Locked
	}

	updated, err := h.store.UpdateTask(id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(services.Event{Type: "task.updated", Data: updated})
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/tasks/{id}. Admin only; the confirmation dialog
// lives in the client.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.store.DeleteTask(id); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(services.Event{Type: "task.deleted", Data: map[string]string{"id": id}})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

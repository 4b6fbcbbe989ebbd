package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/taskgrid/taskgrid/board"
	"github.com/taskgrid/taskgrid/database"
	"github.com/taskgrid/taskgrid/services"
)

// AssistantHandler backs the chat assistant's sync action: it mirrors a
// board task into the ClickUp list mapped to the task's column.
type AssistantHandler struct {
	store   *database.Store
	clickup *services.ClickUpClient
	hub     *services.Hub
}

func NewAssistantHandler(store *database.Store, clickup *services.ClickUpClient, hub *services.Hub) *AssistantHandler {
	return &AssistantHandler{
		store:   store,
		clickup: clickup,
		hub:     hub,
	}
}

// SyncTask handles POST /api/assistant/sync. The task may be referenced by
// its id or by the human-facing serial id the assistant shows users.
func (h *AssistantHandler) SyncTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}

	var req struct {
		TaskID      string `json:"task_id"`
		Description string `json:"description,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TaskID == "" {
		writeError(w, &board.ValidationError{Field: "task_id", Reason: "required"})
		return
	}

	task, err := h.store.GetTask(req.TaskID)
	if errors.Is(err, board.ErrNotFound) {
		task, err = h.store.GetTaskBySerial(req.TaskID)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if task.ClickupSync {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": fmt.Sprintf("task %q (%s) is already synced with ClickUp", task.Title, task.SerialID),
		})
		return
	}

	// Sync only works when an admin has mapped the task's column to a list.
	if task.ColID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "cannot sync task: it is not placed in a column",
		})
		return
	}
	col, err := h.store.GetColumn(task.ColID)
	if err != nil {
		writeError(w, err)
		return
	}
	if col.ClickupListID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": fmt.Sprintf("cannot sync task: column %q has no ClickUp list mapping", col.Title),
		})
		return
	}

	tech := string(task.Technology)
	if tech == "" {
		tech = string(board.TechFullstack)
	}
	priority := 3
	if task.Priority {
		priority = 1
	}

	payload := services.ClickUpTask{
		Name:        task.Title,
		Description: req.Description,
		Tags:        []string{tech},
		Points:      task.Points,
		Priority:    priority,
	}

	remoteID, err := h.clickup.CreateTask(r.Context(), col.ClickupListID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	// Pair the remote task back to the board task through a custom field,
	// when one is configured.
	if fieldID := os.Getenv("CLICKUP_TASK_FIELD_ID"); fieldID != "" {
		if err := h.clickup.SetCustomField(r.Context(), remoteID, fieldID, task.SerialID); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := h.store.SetTaskSynced(task.ID); err != nil {
		writeError(w, err)
		return
	}

	task.ClickupSync = true
	h.hub.Broadcast(services.Event{Type: "task.updated", Data: task})

	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "success",
		"message":        fmt.Sprintf("task %q (%s) has been synced with ClickUp", task.Title, task.SerialID),
		"remote_task_id": remoteID,
	})
}

// ListRemoteTasks handles GET /api/assistant/remote-tasks?col_id=, letting
// the assistant show what already lives in the mapped ClickUp list.
func (h *AssistantHandler) ListRemoteTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}

	colID := r.URL.Query().Get("col_id")
	if colID == "" {
		writeError(w, &board.ValidationError{Field: "col_id", Reason: "required"})
		return
	}

	col, err := h.store.GetColumn(colID)
	if err != nil {
		writeError(w, err)
		return
	}
	if col.ClickupListID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": fmt.Sprintf("column %q has no ClickUp list mapping", col.Title),
		})
		return
	}

	tasks, err := h.clickup.ListTasks(r.Context(), col.ClickupListID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

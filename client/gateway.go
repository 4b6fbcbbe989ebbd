// Package client is the Mutation Gateway: a thin REST client for the board
// API that validates locally before calling out, caches task lists keyed by
// their filter tuple, and invalidates those caches after every successful
// mutation. It does not retry and applies no optimistic local changes: a
// failed call is surfaced once and leaves cached state untouched.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/taskgrid/taskgrid/board"
)

// Gateway issues create/update/delete requests against the board API on
// behalf of one authenticated user.
type Gateway struct {
	baseURL    string
	token      string
	actor      board.User
	httpClient *http.Client

	mu        sync.Mutex
	taskLists map[string][]board.Task
}

// New builds a gateway for the given API base URL, session token, and the
// user the token belongs to. The actor is used for local authorization
// checks so admin-only edits by non-admins never reach the wire.
func New(baseURL, token string, actor board.User) *Gateway {
	return &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		actor:      actor,
		httpClient: http.DefaultClient,
		taskLists:  make(map[string][]board.Task),
	}
}

// queryKey canonically serializes a filter tuple so equivalent queries share
// one cache entry. States are sorted; the empty query is the all-tasks key.
func queryKey(q board.TaskQuery) string {
	states := make([]string, len(q.States))
	for i, s := range q.States {
		states[i] = string(s)
	}
	sort.Strings(states)
	return fmt.Sprintf("tasks?assigned_to=%s&state=%s", q.AssignedTo, strings.Join(states, ","))
}

// ListTasks returns tasks matching the query, served from cache when the
// same filter tuple was fetched since the last mutation.
func (g *Gateway) ListTasks(ctx context.Context, q board.TaskQuery) ([]board.Task, error) {
	key := queryKey(q)

	g.mu.Lock()
	if cached, ok := g.taskLists[key]; ok {
		g.mu.Unlock()
		return append([]board.Task(nil), cached...), nil
	}
	g.mu.Unlock()

	path := "/api/tasks"
	params := []string{}
	if len(q.States) > 0 {
		states := make([]string, len(q.States))
		for i, s := range q.States {
			states[i] = string(s)
		}
		params = append(params, "state="+strings.Join(states, ","))
	}
	if q.AssignedTo != "" {
		params = append(params, "assigned_to="+q.AssignedTo)
	}
	if len(params) > 0 {
		path += "?" + strings.Join(params, "&")
	}

	var tasks []board.Task
	if err := g.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.taskLists[key] = append([]board.Task(nil), tasks...)
	g.mu.Unlock()

	return tasks, nil
}

// CreateTask validates the title locally, creates the task, and invalidates
// every cached task list.
func (g *Gateway) CreateTask(ctx context.Context, t board.NewTask) (board.Task, error) {
	if g.actor.ID == "" {
		return board.Task{}, fmt.Errorf("%w: not signed in", board.ErrUnauthorized)
	}
	if err := board.ValidateTaskTitle(t.Title); err != nil {
		return board.Task{}, err
	}

	var created board.Task
	if err := g.do(ctx, http.MethodPost, "/api/tasks", t, &created); err != nil {
		return board.Task{}, err
	}
	g.invalidateTaskLists()
	return created, nil
}

// UpdateTask validates the patch locally (field bounds, admin-only edits,
// transition table) before issuing the PATCH. Rejections cost no network
// call; a successful update invalidates every cached task list.
func (g *Gateway) UpdateTask(ctx context.Context, id string, p board.TaskPatch) (board.Task, error) {
	if g.actor.ID == "" {
		return board.Task{}, fmt.Errorf("%w: not signed in", board.ErrUnauthorized)
	}

	fieldEdit := p.Title != nil || p.ReferenceURL != nil || p.Points != nil ||
		p.Technology != nil || p.ColID != nil || p.Row != nil ||
		p.Priority != nil || p.Locked != nil
	if fieldEdit {
		if err := board.RequireAdmin(g.actor); err != nil {
			return board.Task{}, err
		}
	}
	if p.Title != nil {
		if err := board.ValidateTaskTitle(*p.Title); err != nil {
			return board.Task{}, err
		}
	}
	if p.ReferenceURL != nil {
		normalized, err := board.NormalizeReferenceURL(*p.ReferenceURL)
		if err != nil {
			return board.Task{}, err
		}
		p.ReferenceURL = &normalized
	}
	if p.Points != nil {
		if err := board.ValidatePoints(*p.Points); err != nil {
			return board.Task{}, err
		}
	}
	if p.Technology != nil {
		if err := board.ValidateTechnology(*p.Technology); err != nil {
			return board.Task{}, err
		}
	}
	if p.State != nil {
		if err := board.ValidateState(*p.State); err != nil {
			return board.Task{}, err
		}
	}

	var updated board.Task
	if err := g.do(ctx, http.MethodPatch, "/api/tasks/"+id, p, &updated); err != nil {
		return board.Task{}, err
	}
	g.invalidateTaskLists()
	return updated, nil
}

// Transition applies a workflow action to a task the gateway already holds,
// validating it against the transition table locally so illegal or
// unauthorized transitions never reach the wire.
func (g *Gateway) Transition(ctx context.Context, task board.Task, action board.Action) (board.Task, error) {
	next, err := board.Transition(task, action, g.actor)
	if err != nil {
		return board.Task{}, err
	}

	patch := board.TaskPatch{State: &next.State}
	var updated board.Task
	if err := g.do(ctx, http.MethodPatch, "/api/tasks/"+task.ID, patch, &updated); err != nil {
		return board.Task{}, err
	}
	g.invalidateTaskLists()
	return updated, nil
}

// DeleteTask removes a task. The confirmed flag carries the UI's explicit
// confirmation; without it, and for non-admins, no request is made.
func (g *Gateway) DeleteTask(ctx context.Context, id string, confirmed bool) error {
	if err := board.RequireAdmin(g.actor); err != nil {
		return err
	}
	if !confirmed {
		return &board.ValidationError{Field: "confirmed", Reason: "deletion requires explicit confirmation"}
	}

	if err := g.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil); err != nil {
		return err
	}
	g.invalidateTaskLists()
	return nil
}

// ListColumns returns all columns in display order. Column lists are small
// and change rarely; they are fetched fresh each time.
func (g *Gateway) ListColumns(ctx context.Context) ([]board.Column, error) {
	var cols []board.Column
	if err := g.do(ctx, http.MethodGet, "/api/columns", nil, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// CreateColumn validates the title locally before the POST. Admin only.
func (g *Gateway) CreateColumn(ctx context.Context, c board.Column) (board.Column, error) {
	if err := board.RequireAdmin(g.actor); err != nil {
		return board.Column{}, err
	}
	if err := board.ValidateColumnTitle(c.Title); err != nil {
		return board.Column{}, err
	}

	var created board.Column
	if err := g.do(ctx, http.MethodPost, "/api/columns", c, &created); err != nil {
		return board.Column{}, err
	}
	return created, nil
}

// UpdateColumn applies a partial column update. Admin only.
func (g *Gateway) UpdateColumn(ctx context.Context, id string, p board.ColumnPatch) (board.Column, error) {
	if err := board.RequireAdmin(g.actor); err != nil {
		return board.Column{}, err
	}
	if p.Title != nil {
		if err := board.ValidateColumnTitle(*p.Title); err != nil {
			return board.Column{}, err
		}
	}

	var updated board.Column
	if err := g.do(ctx, http.MethodPatch, "/api/columns/"+id, p, &updated); err != nil {
		return board.Column{}, err
	}
	return updated, nil
}

// ListUsers returns all board members.
func (g *Gateway) ListUsers(ctx context.Context) ([]board.User, error) {
	var users []board.User
	if err := g.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SyncTask invokes the assistant's ClickUp sync action for a task.
func (g *Gateway) SyncTask(ctx context.Context, taskID, description string) error {
	body := map[string]string{"task_id": taskID, "description": description}
	if err := g.do(ctx, http.MethodPost, "/api/assistant/sync", body, nil); err != nil {
		return err
	}
	g.invalidateTaskLists()
	return nil
}

// invalidateTaskLists drops the all-tasks cache entry and every filtered one.
func (g *Gateway) invalidateTaskLists() {
	g.mu.Lock()
	g.taskLists = make(map[string][]board.Task)
	g.mu.Unlock()
}

func (g *Gateway) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewBuffer(buf)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &board.BackendError{Status: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errBody)
		return apiError(resp.StatusCode, errBody.Error)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &board.BackendError{Status: resp.StatusCode, Message: "malformed response"}
		}
	}
	return nil
}

// apiError maps server status codes back onto the error taxonomy so callers
// can use errors.Is regardless of which side rejected the operation.
func apiError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", board.ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", board.ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", board.ErrInvalidTransition, msg)
	default:
		return &board.BackendError{Status: status, Message: msg}
	}
}

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskgrid/taskgrid/board"
)

var (
	member     = board.User{ID: "u-member", Name: "member"}
	boardAdmin = board.User{ID: "u-admin", Name: "admin", Admin: true}
)

// fakeAPI is a minimal board API that counts requests per method+path.
type fakeAPI struct {
	server *httptest.Server
	hits   atomic.Int64
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/tasks":
			json.NewEncoder(w).Encode([]board.Task{
				{ID: "t1", Title: "one", State: board.StateNew},
				{ID: "t2", Title: "two", State: board.StateAssigned, AssignedToID: "u-member"},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/tasks":
			var n board.NewTask
			json.NewDecoder(r.Body).Decode(&n)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(board.Task{ID: "t-new", Title: n.Title, State: board.StateNew})
		case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/api/tasks/"):
			json.NewEncoder(w).Encode(board.Task{ID: strings.TrimPrefix(r.URL.Path, "/api/tasks/")})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/tasks/"):
			json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
		case r.URL.Path == "/api/columns":
			json.NewEncoder(w).Encode([]board.Column{})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "no such route"})
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func TestListTasksCachesByFilterTuple(t *testing.T) {
	api := newFakeAPI(t)
	g := New(api.server.URL, "token", member)
	ctx := context.Background()

	q := board.TaskQuery{States: []board.TaskState{board.StateNew, board.StateAssigned}}
	first, err := g.ListTasks(ctx, q)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(1), api.hits.Load())

	// same filter tuple: served from cache, no second request
	second, err := g.ListTasks(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), api.hits.Load())

	// state order doesn't matter: the key is canonical
	_, err = g.ListTasks(ctx, board.TaskQuery{States: []board.TaskState{board.StateAssigned, board.StateNew}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), api.hits.Load())

	// a different tuple is a different cache entry
	_, err = g.ListTasks(ctx, board.TaskQuery{AssignedTo: "u-member"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), api.hits.Load())
}

func TestMutationsInvalidateTaskCaches(t *testing.T) {
	api := newFakeAPI(t)
	g := New(api.server.URL, "token", boardAdmin)
	ctx := context.Background()

	// warm two cache entries
	_, err := g.ListTasks(ctx, board.TaskQuery{})
	require.NoError(t, err)
	_, err = g.ListTasks(ctx, board.TaskQuery{AssignedTo: "u-member"})
	require.NoError(t, err)
	require.Equal(t, int64(2), api.hits.Load())

	_, err = g.CreateTask(ctx, board.NewTask{Title: "fresh"})
	require.NoError(t, err)
	require.Equal(t, int64(3), api.hits.Load())

	// both the all-tasks list and the filtered list refetch
	_, err = g.ListTasks(ctx, board.TaskQuery{})
	require.NoError(t, err)
	_, err = g.ListTasks(ctx, board.TaskQuery{AssignedTo: "u-member"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), api.hits.Load())
}

func TestLocalValidationMakesNoNetworkCall(t *testing.T) {
	api := newFakeAPI(t)
	ctx := context.Background()

	t.Run("title too long", func(t *testing.T) {
		g := New(api.server.URL, "token", member)
		_, err := g.CreateTask(ctx, board.NewTask{Title: strings.Repeat("x", 51)})
		var ve *board.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("points by non-admin", func(t *testing.T) {
		g := New(api.server.URL, "token", member)
		points := 5
		_, err := g.UpdateTask(ctx, "t1", board.TaskPatch{Points: &points})
		assert.ErrorIs(t, err, board.ErrUnauthorized)
	})

	t.Run("points outside the fixed set", func(t *testing.T) {
		g := New(api.server.URL, "token", boardAdmin)
		points := 4
		_, err := g.UpdateTask(ctx, "t1", board.TaskPatch{Points: &points})
		var ve *board.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("delete by non-admin", func(t *testing.T) {
		g := New(api.server.URL, "token", member)
		assert.ErrorIs(t, g.DeleteTask(ctx, "t1", true), board.ErrUnauthorized)
	})

	t.Run("delete without confirmation", func(t *testing.T) {
		g := New(api.server.URL, "token", boardAdmin)
		var ve *board.ValidationError
		assert.ErrorAs(t, g.DeleteTask(ctx, "t1", false), &ve)
	})

	t.Run("column title too long", func(t *testing.T) {
		g := New(api.server.URL, "token", boardAdmin)
		_, err := g.CreateColumn(ctx, board.Column{Title: strings.Repeat("x", 31)})
		var ve *board.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	assert.Equal(t, int64(0), api.hits.Load(), "rejected operations must not reach the wire")
}

func TestTransitionValidatesLocally(t *testing.T) {
	api := newFakeAPI(t)
	ctx := context.Background()

	// the assignee completing their own task goes through
	g := New(api.server.URL, "token", member)
	task := board.Task{ID: "t2", State: board.StateAssigned, AssignedToID: member.ID}
	_, err := g.Transition(ctx, task, board.ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, int64(1), api.hits.Load())

	// someone else's task: rejected before the request is built
	other := board.Task{ID: "t9", State: board.StateAssigned, AssignedToID: "someone-else"}
	_, err = g.Transition(ctx, other, board.ActionComplete)
	assert.ErrorIs(t, err, board.ErrUnauthorized)

	// illegal hop: also local
	fresh := board.Task{ID: "t1", State: board.StateNew}
	_, err = g.Transition(ctx, fresh, board.ActionReview)
	assert.ErrorIs(t, err, board.ErrInvalidTransition)

	assert.Equal(t, int64(1), api.hits.Load())
}

func TestGatewayNormalizesReferenceURL(t *testing.T) {
	var sent board.TaskPatch
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&sent)
		json.NewEncoder(w).Encode(board.Task{ID: "t1"})
	}))
	defer server.Close()

	g := New(server.URL, "token", boardAdmin)
	url := "example.com/docs"
	_, err := g.UpdateTask(context.Background(), "t1", board.TaskPatch{ReferenceURL: &url})
	require.NoError(t, err)
	require.NotNil(t, sent.ReferenceURL)
	assert.Equal(t, "https://example.com/docs", *sent.ReferenceURL)
}

func TestGatewayMapsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tasks/missing":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "task missing: not found"})
		case "/api/tasks/conflicted":
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid transition"})
		default:
			w.WriteHeader(http.StatusTeapot)
			json.NewEncoder(w).Encode(map[string]string{"error": "weird"})
		}
	}))
	defer server.Close()

	g := New(server.URL, "token", boardAdmin)
	ctx := context.Background()

	_, err := g.UpdateTask(ctx, "missing", board.TaskPatch{})
	assert.ErrorIs(t, err, board.ErrNotFound)

	_, err = g.UpdateTask(ctx, "conflicted", board.TaskPatch{})
	assert.ErrorIs(t, err, board.ErrInvalidTransition)

	_, err = g.UpdateTask(ctx, "other", board.TaskPatch{})
	var be *board.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusTeapot, be.Status)
}

func TestQueryKeyIsCanonical(t *testing.T) {
	a := queryKey(board.TaskQuery{States: []board.TaskState{board.StateNew, board.StateCompleted}})
	b := queryKey(board.TaskQuery{States: []board.TaskState{board.StateCompleted, board.StateNew}})
	assert.Equal(t, a, b)

	c := queryKey(board.TaskQuery{States: []board.TaskState{board.StateNew}})
	assert.NotEqual(t, a, c)

	all := queryKey(board.TaskQuery{})
	assert.NotEqual(t, a, all)
}

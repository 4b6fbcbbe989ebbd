package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/taskgrid/taskgrid/board"
	"github.com/taskgrid/taskgrid/database"
	"github.com/taskgrid/taskgrid/services"
)

// testEnv wires a real store, hub, and router the way main does, against a
// throwaway database.
type testEnv struct {
	store  *database.Store
	hub    *services.Hub
	auth   *services.AuthService
	server *httptest.Server
}

func newTestEnv(t *testing.T, clickup *services.ClickUpClient) *testEnv {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := database.NewStore(db)
	authService := services.NewAuthService()
	hub := services.NewHub()
	go hub.Run()

	if clickup == nil {
		clickup = services.NewClickUpClient("")
	}

	taskHandler := NewTaskHandler(store, hub)
	columnHandler := NewColumnHandler(store, hub)
	userHandler := NewUserHandler(store)
	assistantHandler := NewAssistantHandler(store, clickup, hub)
	authMiddleware := NewAuthMiddleware(authService, store)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)

	api.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	api.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	api.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	api.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PATCH", "PUT")
	api.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")
	api.HandleFunc("/columns", columnHandler.List).Methods("GET")
	api.HandleFunc("/columns", columnHandler.Create).Methods("POST")
	api.HandleFunc("/columns/{id}", columnHandler.Update).Methods("PATCH", "PUT")
	api.HandleFunc("/columns/{id}", columnHandler.Delete).Methods("DELETE")
	api.HandleFunc("/users", userHandler.List).Methods("GET")
	api.HandleFunc("/users", userHandler.Create).Methods("POST")
	api.HandleFunc("/users/{id}", userHandler.Get).Methods("GET")
	api.HandleFunc("/users/{id}", userHandler.Update).Methods("PATCH", "PUT")
	api.HandleFunc("/assistant/sync", assistantHandler.SyncTask).Methods("POST")
	api.HandleFunc("/assistant/remote-tasks", assistantHandler.ListRemoteTasks).Methods("GET")

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testEnv{store: store, hub: hub, auth: authService, server: server}
}

// newUser provisions a user in the store and returns them with a session token.
func (e *testEnv) newUser(t *testing.T, name string, admin bool) (board.User, string) {
	t.Helper()
	user, err := e.store.CreateUser(board.User{
		ExternalID: name + "@example.com",
		Name:       name,
		Admin:      admin,
	})
	require.NoError(t, err)
	token, err := e.auth.CreateJWT(user.ID)
	require.NoError(t, err)
	return user, token
}

// request sends an authenticated JSON request and decodes the response body
// into out (when out is non-nil), returning the status code.
func (e *testEnv) request(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(buf)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reqBody)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func strp(s string) *string { return &s }

func intp(v int) *int { return &v }

func statep(s board.TaskState) *board.TaskState { return &s }

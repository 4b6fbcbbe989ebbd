package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskgrid/taskgrid/board"
)

func TestCreateColumnValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.newUser(t, "root", true)

	var created board.Column
	status := env.request(t, http.MethodPost, "/api/columns", admin,
		board.Column{Title: "Backlog"}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created.ID)

	// a 31-character title is rejected before the store is touched
	status = env.request(t, http.MethodPost, "/api/columns", admin,
		board.Column{Title: strings.Repeat("x", 31)}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	cols, err := env.store.ListColumns()
	require.NoError(t, err)
	assert.Len(t, cols, 1)
}

func TestCreateColumnAdminOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	_, user := env.newUser(t, "alice", false)

	status := env.request(t, http.MethodPost, "/api/columns", user,
		board.Column{Title: "Sneaky"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestListColumnsInDisplayOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.newUser(t, "root", true)

	var unordered, second, first board.Column
	env.request(t, http.MethodPost, "/api/columns", admin, board.Column{Title: "Parking lot"}, &unordered)
	env.request(t, http.MethodPost, "/api/columns", admin, board.Column{Title: "Doing", Order: intp(2)}, &second)
	env.request(t, http.MethodPost, "/api/columns", admin, board.Column{Title: "Todo", Order: intp(1)}, &first)

	var cols []board.Column
	status := env.request(t, http.MethodGet, "/api/columns", admin, nil, &cols)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, cols, 3)
	assert.Equal(t, first.ID, cols[0].ID)
	assert.Equal(t, second.ID, cols[1].ID)
	assert.Equal(t, unordered.ID, cols[2].ID)
}

func TestUpdateColumnMapping(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.newUser(t, "root", true)

	var col board.Column
	env.request(t, http.MethodPost, "/api/columns", admin, board.Column{Title: "Sprint"}, &col)

	var updated board.Column
	status := env.request(t, http.MethodPatch, "/api/columns/"+col.ID, admin,
		board.ColumnPatch{ClickupListID: strp("list-42")}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "list-42", updated.ClickupListID)

	status = env.request(t, http.MethodPatch, "/api/columns/"+col.ID, admin,
		board.ColumnPatch{Title: strp(strings.Repeat("y", 31))}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUserEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	userA, tokenA := env.newUser(t, "alice", false)
	_, admin := env.newUser(t, "root", true)

	var users []board.User
	status := env.request(t, http.MethodGet, "/api/users", tokenA, nil, &users)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, users, 2)

	// "me" resolves to the caller
	var me board.User
	status = env.request(t, http.MethodGet, "/api/users/me", tokenA, nil, &me)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, userA.ID, me.ID)

	// awarding points is admin only
	status = env.request(t, http.MethodPatch, "/api/users/"+userA.ID, tokenA,
		board.UserPatch{Points: intp(13)}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	var updated board.User
	status = env.request(t, http.MethodPatch, "/api/users/"+userA.ID, admin,
		board.UserPatch{Points: intp(13)}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 13, updated.Points)
}

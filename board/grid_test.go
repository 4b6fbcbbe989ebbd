package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestSortColumns(t *testing.T) {
	cols := []Column{
		{ID: "c", Title: "Later"},
		{ID: "a", Title: "Second", Order: intp(2)},
		{ID: "d", Title: "Also later"},
		{ID: "b", Title: "First", Order: intp(1)},
	}

	sorted := SortColumns(cols)

	// ordered columns ascending, unordered after them in encounter order
	assert.Equal(t, []string{"b", "a", "c", "d"},
		[]string{sorted[0].ID, sorted[1].ID, sorted[2].ID, sorted[3].ID})

	// input order untouched
	assert.Equal(t, "c", cols[0].ID)
}

func TestResolveGridPlacesTasksByCell(t *testing.T) {
	cols := []Column{{ID: "todo", Title: "Todo"}, {ID: "doing", Title: "Doing"}}
	tasks := []Task{
		{ID: "1", Title: "a", ColID: "todo", Row: 0},
		{ID: "2", Title: "b", ColID: "todo", Row: 3},
		{ID: "3", Title: "c", ColID: "doing", Row: 0},
	}

	g := ResolveGrid(tasks, cols, DefaultRows)

	got, ok := g.At("todo", 0)
	require.True(t, ok)
	assert.Equal(t, "1", got.ID)

	got, ok = g.At("todo", 3)
	require.True(t, ok)
	assert.Equal(t, "2", got.ID)

	got, ok = g.At("doing", 0)
	require.True(t, ok)
	assert.Equal(t, "3", got.ID)

	// empty cell: the create-here affordance
	_, ok = g.At("doing", 1)
	assert.False(t, ok)

	assert.Empty(t, g.Unplaced)
}

func TestResolveGridOverlapIsDeterministic(t *testing.T) {
	cols := []Column{{ID: "todo", Title: "Todo"}}
	tasks := []Task{
		{ID: "first", ColID: "todo", Row: 2},
		{ID: "second", ColID: "todo", Row: 2},
	}

	// two tasks in the same cell: the first in list order wins, the
	// other is reported as unplaced, never an error
	for i := 0; i < 5; i++ {
		g := ResolveGrid(tasks, cols, DefaultRows)
		got, ok := g.At("todo", 2)
		require.True(t, ok)
		assert.Equal(t, "first", got.ID)
		require.Len(t, g.Unplaced, 1)
		assert.Equal(t, "second", g.Unplaced[0].ID)
	}
}

func TestResolveGridUnplacedTasks(t *testing.T) {
	cols := []Column{{ID: "todo", Title: "Todo"}}
	tasks := []Task{
		{ID: "1", ColID: "todo", Row: 0},
		{ID: "2", ColID: "gone", Row: 1},  // unknown column
		{ID: "3", ColID: "todo", Row: 10}, // beyond the last row
		{ID: "4", ColID: "", Row: 0},      // never placed
	}

	g := ResolveGrid(tasks, cols, 10)

	require.Len(t, g.Unplaced, 3)
	assert.Equal(t, []string{"2", "3", "4"}, ids(g.Unplaced))
}

func TestResolveGridDefaultsRows(t *testing.T) {
	g := ResolveGrid(nil, []Column{{ID: "todo", Title: "Todo"}}, 0)
	assert.Equal(t, DefaultRows, g.Rows)
}

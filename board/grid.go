package board

import "sort"

// DefaultRows is the number of rows the grid renders per column.
const DefaultRows = 10

// Cell addresses one slot on the grid.
type Cell struct {
	ColID string
	Row   int
}

// Grid is a resolved 2-D placement of tasks onto (column, row) cells.
type Grid struct {
	Columns  []Column
	Rows     int
	cells    map[Cell]Task
	Unplaced []Task
}

// SortColumns orders columns ascending by Order. Columns without an order
// sort after all ordered columns, keeping their encounter order.
func SortColumns(cols []Column) []Column {
	sorted := append([]Column(nil), cols...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Order, sorted[j].Order
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return sorted
}

// ResolveGrid places the visible tasks onto a rows-deep grid over the given
// columns. When two tasks claim the same cell the first in list order wins;
// the loser, and any task outside the grid, lands in Unplaced. rows <= 0
// falls back to DefaultRows.
func ResolveGrid(tasks []Task, cols []Column, rows int) *Grid {
	if rows <= 0 {
		rows = DefaultRows
	}

	g := &Grid{
		Columns: SortColumns(cols),
		Rows:    rows,
		cells:   make(map[Cell]Task),
	}

	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c.ID] = true
	}

	for _, t := range tasks {
		if !known[t.ColID] || t.Row < 0 || t.Row >= rows {
			g.Unplaced = append(g.Unplaced, t)
			continue
		}
		cell := Cell{ColID: t.ColID, Row: t.Row}
		if _, taken := g.cells[cell]; taken {
			g.Unplaced = append(g.Unplaced, t)
			continue
		}
		g.cells[cell] = t
	}

	return g
}

// At returns the task occupying (colID, row), if any. An empty cell is where
// the UI offers its "create task here" affordance with colID/row pre-filled.
func (g *Grid) At(colID string, row int) (Task, bool) {
	t, ok := g.cells[Cell{ColID: colID, Row: row}]
	return t, ok
}

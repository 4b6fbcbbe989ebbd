package board

import "strings"

// Filters narrows the visible task set. Filters live only in UI session
// state and are never persisted.
type Filters struct {
	Search string      `json:"search"`
	UserID string      `json:"user_id"`
	States []TaskState `json:"states"`
}

// DefaultFilters keeps the board focused on active work: reviewed tasks are
// hidden until explicitly requested.
func DefaultFilters() Filters {
	return Filters{
		States: []TaskState{StateNew, StateAssigned, StateCompleted},
	}
}

// FilterUpdate is a partial filter change. Nil fields are left as-is.
type FilterUpdate struct {
	Search *string
	UserID *string
	States []TaskState
}

// ApplyFilterUpdate is a pure reducer: it returns a new Filters value with
// the update merged in and leaves the input untouched.
func ApplyFilterUpdate(f Filters, u FilterUpdate) Filters {
	next := f
	next.States = append([]TaskState(nil), f.States...)
	if u.Search != nil {
		next.Search = *u.Search
	}
	if u.UserID != nil {
		next.UserID = *u.UserID
	}
	if u.States != nil {
		next.States = append([]TaskState(nil), u.States...)
	}
	return next
}

// Match reports whether a single task passes all three predicates.
func (f Filters) Match(t Task) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	if f.UserID != "" && t.AssignedToID != f.UserID {
		return false
	}
	if len(f.States) > 0 {
		found := false
		for _, s := range f.States {
			if t.State == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Evaluate returns the tasks passing the filters, preserving input order.
// It is pure: identical inputs always yield an identical result.
func Evaluate(tasks []Task, f Filters) []Task {
	visible := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			visible = append(visible, t)
		}
	}
	return visible
}

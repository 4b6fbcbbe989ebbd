// Package board holds the task-board domain model: tasks, users, columns,
// the state machine governing task transitions, filtering, and grid placement.
package board

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TaskState is the workflow state of a task.
type TaskState string

const (
	StateNew       TaskState = "new"
	StateAssigned  TaskState = "assigned"
	StateInReview  TaskState = "in_review"
	StateReviewed  TaskState = "reviewed"
	StateCompleted TaskState = "completed"
)

// AllStates lists every task state in workflow order.
var AllStates = []TaskState{StateNew, StateAssigned, StateInReview, StateCompleted, StateReviewed}

// Technology tags a task with the part of the stack it touches.
type Technology string

const (
	TechFrontend  Technology = "frontend"
	TechBackend   Technology = "backend"
	TechLLM       Technology = "llm"
	TechFullstack Technology = "fullstack"
)

// ValidPoints is the fixed set of story point values a task may carry.
var ValidPoints = []int{1, 2, 3, 5, 8, 13}

const (
	MaxTaskTitleLen    = 50
	MaxColumnTitleLen  = 30
	MaxReferenceURLLen = 2048
)

// Task is one unit of work placed on the grid.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	State        TaskState  `json:"state"`
	AssignedToID string     `json:"assigned_to_id,omitempty"`
	ColID        string     `json:"col_id,omitempty"`
	Row          int        `json:"row"`
	ReferenceURL string     `json:"reference_url,omitempty"`
	Technology   Technology `json:"technology,omitempty"`
	Points       int        `json:"points,omitempty"`
	SerialNumber int        `json:"serial_number,omitempty"`
	SerialID     string     `json:"serial_id,omitempty"`
	Priority     bool       `json:"priority,omitempty"`
	ClickupSync  bool       `json:"clickup_sync,omitempty"`
	Locked       bool       `json:"locked,omitempty"`
}

// User is a board member.
type User struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id,omitempty"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	Admin      bool   `json:"admin"`
	Points     int    `json:"points"`
	Role       string `json:"role,omitempty"`
}

// Column is a vertical lane on the board, optionally mapped to a ClickUp list.
type Column struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Order         *int   `json:"order,omitempty"`
	ClickupListID string `json:"clickup_list_id,omitempty"`
}

// NewTask carries the fields a caller supplies when creating a task.
type NewTask struct {
	Title string `json:"title"`
	ColID string `json:"col_id,omitempty"`
	Row   int    `json:"row"`
}

// TaskPatch is a partial task update. Nil fields are left untouched;
// a pointer to the zero value clears the field.
type TaskPatch struct {
	Title        *string     `json:"title,omitempty"`
	State        *TaskState  `json:"state,omitempty"`
	AssignedToID *string     `json:"assigned_to_id,omitempty"`
	ColID        *string     `json:"col_id,omitempty"`
	Row          *int        `json:"row,omitempty"`
	ReferenceURL *string     `json:"reference_url,omitempty"`
	Technology   *Technology `json:"technology,omitempty"`
	Points       *int        `json:"points,omitempty"`
	Priority     *bool       `json:"priority,omitempty"`
	Locked       *bool       `json:"locked,omitempty"`
}

// ColumnPatch is a partial column update.
type ColumnPatch struct {
	Title         *string `json:"title,omitempty"`
	Order         *int    `json:"order,omitempty"`
	ClickupListID *string `json:"clickup_list_id,omitempty"`
}

// UserPatch is a partial user update.
type UserPatch struct {
	Name   *string `json:"name,omitempty"`
	Admin  *bool   `json:"admin,omitempty"`
	Points *int    `json:"points,omitempty"`
	Role   *string `json:"role,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// TaskQuery selects tasks by state and assignee. Zero values mean
// "don't filter on this field".
type TaskQuery struct {
	States     []TaskState
	AssignedTo string
}

// ValidateTaskTitle checks the 1-50 character bound on task titles.
func ValidateTaskTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < 1 || n > MaxTaskTitleLen {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("must be between 1 and %d characters", MaxTaskTitleLen)}
	}
	return nil
}

// ValidateColumnTitle checks the 1-30 character bound on column titles.
func ValidateColumnTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < 1 || n > MaxColumnTitleLen {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("must be between 1 and %d characters", MaxColumnTitleLen)}
	}
	return nil
}

// ValidatePoints accepts zero (no points) or one of the fixed point values.
func ValidatePoints(points int) error {
	if points == 0 {
		return nil
	}
	for _, p := range ValidPoints {
		if points == p {
			return nil
		}
	}
	return &ValidationError{Field: "points", Reason: fmt.Sprintf("must be one of %v", ValidPoints)}
}

// ValidateTechnology accepts the empty tag or one of the known technologies.
func ValidateTechnology(t Technology) error {
	switch t {
	case "", TechFrontend, TechBackend, TechLLM, TechFullstack:
		return nil
	}
	return &ValidationError{Field: "technology", Reason: fmt.Sprintf("unknown technology %q", t)}
}

// ValidateState accepts one of the known task states.
func ValidateState(s TaskState) error {
	for _, known := range AllStates {
		if s == known {
			return nil
		}
	}
	return &ValidationError{Field: "state", Reason: fmt.Sprintf("unknown state %q", s)}
}

// NormalizeReferenceURL prefixes schemeless URLs with https:// and enforces
// the length bound. An empty string clears the reference and is valid.
func NormalizeReferenceURL(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	if len(raw) > MaxReferenceURLLen {
		return "", &ValidationError{Field: "reference_url", Reason: fmt.Sprintf("must be at most %d characters", MaxReferenceURLLen)}
	}
	return raw, nil
}

package board

import "fmt"

// Action is a named workflow operation on a task.
type Action string

const (
	ActionAssign       Action = "assign"
	ActionComplete     Action = "complete"
	ActionStartReview  Action = "start_review"
	ActionUnassign     Action = "unassign"
	ActionReview       Action = "review"
	ActionReturn       Action = "return"
	ActionMarkReviewed Action = "mark_reviewed"
)

// authRule says who may perform a transition.
type authRule int

const (
	authAnyUser authRule = iota
	authAssignee
	authAssigneeOrAdmin
	authAdmin
)

type transition struct {
	from   TaskState
	to     TaskState
	action Action
	auth   authRule
}

// transitions is the full workflow table. Every (from, to) pair is unique,
// so a requested state change identifies exactly one action.
var transitions = []transition{
	{StateNew, StateAssigned, ActionAssign, authAnyUser},
	{StateAssigned, StateCompleted, ActionComplete, authAssignee},
	{StateAssigned, StateInReview, ActionStartReview, authAssignee},
	{StateAssigned, StateNew, ActionUnassign, authAssigneeOrAdmin},
	{StateCompleted, StateReviewed, ActionReview, authAdmin},
	{StateInReview, StateAssigned, ActionReturn, authAssigneeOrAdmin},
	{StateInReview, StateReviewed, ActionMarkReviewed, authAssigneeOrAdmin},
	{StateReviewed, StateInReview, ActionReturn, authAdmin},
}

// ActionFor maps a (from, to) state pair to the action that performs it.
func ActionFor(from, to TaskState) (Action, bool) {
	for _, t := range transitions {
		if t.from == from && t.to == to {
			return t.action, true
		}
	}
	return "", false
}

// Transition applies action to the task on behalf of actor and returns the
// resulting task. The input task is never mutated. A rejected transition
// returns ErrInvalidTransition or ErrUnauthorized and the zero task.
func Transition(task Task, action Action, actor User) (Task, error) {
	if actor.ID == "" {
		return Task{}, fmt.Errorf("%w: not signed in", ErrUnauthorized)
	}
	if task.Locked {
		return Task{}, fmt.Errorf("%w: task %s is locked", ErrInvalidTransition, task.ID)
	}

	var tr *transition
	for i := range transitions {
		if transitions[i].from == task.State && transitions[i].action == action {
			tr = &transitions[i]
			break
		}
	}
	if tr == nil {
		return Task{}, fmt.Errorf("%w: cannot %s a task in state %q", ErrInvalidTransition, action, task.State)
	}

	switch tr.auth {
	case authAnyUser:
		// any authenticated user
	case authAssignee:
		if task.AssignedToID != actor.ID {
			return Task{}, fmt.Errorf("%w: only the assigned user can %s this task", ErrUnauthorized, action)
		}
	case authAssigneeOrAdmin:
		if task.AssignedToID != actor.ID && !actor.Admin {
			return Task{}, fmt.Errorf("%w: only the assigned user or an admin can %s this task", ErrUnauthorized, action)
		}
	case authAdmin:
		if !actor.Admin {
			return Task{}, fmt.Errorf("%w: only admins can %s a task", ErrUnauthorized, action)
		}
	}

	result := task
	result.State = tr.to

	// A task in "new" has no assignee; any other state has one.
	switch {
	case tr.action == ActionAssign:
		result.AssignedToID = actor.ID
	case tr.to == StateNew:
		result.AssignedToID = ""
	}

	return result, nil
}

// RequireAdmin guards the admin-only field edits: points, technology, title,
// reference URL, placement, locking, and deletion.
func RequireAdmin(actor User) error {
	if actor.ID == "" {
		return fmt.Errorf("%w: not signed in", ErrUnauthorized)
	}
	if !actor.Admin {
		return fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	return nil
}

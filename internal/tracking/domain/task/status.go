package task

import (
	"strings"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusBacklog   Status = "backlog"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusActive, StatusCompleted, StatusBacklog}

// ParseStatus accepts exactly one of the valid status names.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusActive, StatusCompleted, StatusBacklog:
		return st, nil
	}
	return "", domain.Validationf(ErrInvalidStatus,
		"invalid status filter %q: allowed values are active, completed, backlog", s)
}

func (s Status) String() string { return string(s) }

// Transition names a status-changing lifecycle operation.
type Transition string

const (
	TransitionComplete   Transition = "complete"
	TransitionExtend     Transition = "extend"
	TransitionBacklog    Transition = "backlog"
	TransitionReactivate Transition = "reactivate"
)

// transitions is the single source of legal moves: transition -> from -> to.
var transitions = map[Transition]map[Status]Status{
	TransitionComplete: {
		StatusActive: StatusCompleted,
	},
	TransitionExtend: {
		StatusActive: StatusActive,
	},
	TransitionBacklog: {
		StatusActive: StatusBacklog,
	},
	TransitionReactivate: {
		StatusCompleted: StatusActive,
		StatusBacklog:   StatusActive,
	},
}

// Next returns the status reached by applying tr to s, or a conflict error
// naming s when the move is not in the transition table.
func (s Status) Next(tr Transition) (Status, error) {
	if to, ok := transitions[tr][s]; ok {
		return to, nil
	}
	return s, domain.Conflictf(ErrInvalidTransition, "cannot %s task: task is %s", tr, s)
}

// Allows reports whether tr is legal from s.
func (s Status) Allows(tr Transition) bool {
	_, ok := transitions[tr][s]
	return ok
}

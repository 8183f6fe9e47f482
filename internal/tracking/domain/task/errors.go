package task

import (
	"errors"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
)

var (
	ErrTaskNotFound           = domain.NewNotFoundError("task not found")
	ErrConcurrentModification = domain.NewConflictError("task was modified concurrently, reload and retry")

	ErrEmptyTitle           = domain.NewValidationError("task title is required")
	ErrMissingScheduledDate = domain.NewValidationError("scheduled date is required")

	ErrInvalidTimeFormat = errors.New("invalid HH:mm time")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidRepeatRule = errors.New("invalid repeat rule")
	ErrInvalidReminder   = errors.New("invalid reminder")
	ErrInvalidExtension  = errors.New("invalid extension")
	ErrNoDeadline        = errors.New("task has no resolvable deadline")
	ErrDeadlineNotLater  = errors.New("new deadline must be after the current deadline")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStopwatchRunning  = errors.New("stopwatch session already open")
)

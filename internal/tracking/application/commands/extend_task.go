package commands

import (
	"context"
	"strings"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/application"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// ExtendTaskCommand delays an active task.
//
// ExtensionType selects the variant: stopwatch_start opens a delay session,
// increment reads Minutes and deadline reads Deadline (RFC 3339).
type ExtendTaskCommand struct {
	TaskID        uuid.UUID
	UserID        uuid.UUID
	ExtensionType string
	Minutes       int
	Deadline      string
	UserNotes     string
}

// ExtendTaskHandler handles the ExtendTaskCommand.
type ExtendTaskHandler struct {
	m   taskMutation
	loc *time.Location
}

// NewExtendTaskHandler creates a new ExtendTaskHandler. loc is the wall-clock
// basis for the task's "HH:mm" times.
func NewExtendTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork, clock domain.Clock, loc *time.Location) *ExtendTaskHandler {
	return &ExtendTaskHandler{m: newTaskMutation(taskRepo, outboxRepo, uow, clock), loc: locationOrUTC(loc)}
}

// Handle applies the extension.
func (h *ExtendTaskHandler) Handle(ctx context.Context, cmd ExtendTaskCommand) (*task.Task, error) {
	ext, err := cmd.extension()
	if err != nil {
		return nil, err
	}
	return h.m.run(ctx, cmd.TaskID, cmd.UserID, func(t *task.Task, now time.Time) error {
		return t.Extend(ext, now, h.loc)
	})
}

func (cmd ExtendTaskCommand) extension() (task.Extension, error) {
	typ, err := task.ParseExtensionType(cmd.ExtensionType)
	if err != nil {
		return task.Extension{}, err
	}
	switch typ {
	case task.ExtensionIncrement:
		return task.IncrementBy(cmd.Minutes, cmd.UserNotes), nil
	case task.ExtensionDeadline:
		value := strings.TrimSpace(cmd.Deadline)
		if value == "" {
			return task.MoveDeadlineTo(time.Time{}, cmd.UserNotes), nil
		}
		deadline, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return task.Extension{}, domain.Validationf(task.ErrInvalidExtension,
				"deadline must be an RFC 3339 timestamp, got %q", cmd.Deadline)
		}
		return task.MoveDeadlineTo(deadline, cmd.UserNotes), nil
	}
	return task.StopwatchStart(cmd.UserNotes), nil
}

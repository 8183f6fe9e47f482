package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/application"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// CompleteTaskCommand contains the data needed to complete a task.
type CompleteTaskCommand struct {
	TaskID uuid.UUID
	UserID uuid.UUID
}

// CompleteTaskHandler handles the CompleteTaskCommand.
type CompleteTaskHandler struct {
	m   taskMutation
	loc *time.Location
}

// NewCompleteTaskHandler creates a new CompleteTaskHandler.
func NewCompleteTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork, clock domain.Clock, loc *time.Location) *CompleteTaskHandler {
	return &CompleteTaskHandler{m: newTaskMutation(taskRepo, outboxRepo, uow, clock), loc: locationOrUTC(loc)}
}

// Handle completes the task at the current instant and scores it.
func (h *CompleteTaskHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) (*task.Task, error) {
	return h.m.run(ctx, cmd.TaskID, cmd.UserID, func(t *task.Task, now time.Time) error {
		return t.Complete(now, h.loc)
	})
}

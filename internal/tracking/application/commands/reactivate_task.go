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

// ReactivateTaskCommand returns a completed or backlogged task to active.
type ReactivateTaskCommand struct {
	TaskID uuid.UUID
	UserID uuid.UUID
}

// ReactivateTaskHandler handles the ReactivateTaskCommand.
type ReactivateTaskHandler struct {
	m taskMutation
}

// NewReactivateTaskHandler creates a new ReactivateTaskHandler.
func NewReactivateTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork, clock domain.Clock) *ReactivateTaskHandler {
	return &ReactivateTaskHandler{m: newTaskMutation(taskRepo, outboxRepo, uow, clock)}
}

func (h *ReactivateTaskHandler) Handle(ctx context.Context, cmd ReactivateTaskCommand) (*task.Task, error) {
	return h.m.run(ctx, cmd.TaskID, cmd.UserID, func(t *task.Task, now time.Time) error {
		return t.Reactivate(now)
	})
}

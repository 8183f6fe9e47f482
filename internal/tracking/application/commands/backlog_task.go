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

// BacklogTaskCommand moves an active task to the backlog.
type BacklogTaskCommand struct {
	TaskID uuid.UUID
	UserID uuid.UUID
}

// BacklogTaskHandler handles the BacklogTaskCommand.
type BacklogTaskHandler struct {
	m taskMutation
}

// NewBacklogTaskHandler creates a new BacklogTaskHandler.
func NewBacklogTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork, clock domain.Clock) *BacklogTaskHandler {
	return &BacklogTaskHandler{m: newTaskMutation(taskRepo, outboxRepo, uow, clock)}
}

func (h *BacklogTaskHandler) Handle(ctx context.Context, cmd BacklogTaskCommand) (*task.Task, error) {
	return h.m.run(ctx, cmd.TaskID, cmd.UserID, func(t *task.Task, now time.Time) error {
		return t.Backlog(now)
	})
}

package commands

import (
	"context"

	"github.com/felixgeelhaar/tempo/internal/shared/application"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// DeleteTaskCommand removes a task permanently.
type DeleteTaskCommand struct {
	TaskID uuid.UUID
	UserID uuid.UUID
}

// DeleteTaskHandler handles the DeleteTaskCommand.
type DeleteTaskHandler struct {
	m taskMutation
}

// NewDeleteTaskHandler creates a new DeleteTaskHandler.
func NewDeleteTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork, clock domain.Clock) *DeleteTaskHandler {
	return &DeleteTaskHandler{m: newTaskMutation(taskRepo, outboxRepo, uow, clock)}
}

// Handle deletes the task regardless of its status.
func (h *DeleteTaskHandler) Handle(ctx context.Context, cmd DeleteTaskCommand) error {
	err := application.WithUnitOfWork(ctx, h.m.uow, func(txCtx context.Context) error {
		t, err := h.m.taskRepo.FindByID(txCtx, cmd.TaskID, cmd.UserID)
		if err != nil {
			return err
		}
		if err := h.m.taskRepo.Delete(txCtx, cmd.TaskID, cmd.UserID); err != nil {
			return err
		}
		t.MarkDeleted(h.m.clock.Now())
		return application.StageEvents(txCtx, h.m.outboxRepo, t, cmd.UserID)
	})
	return domain.Classify(err)
}

package commands

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/tempo/internal/shared/application"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// SpawnNextOccurrenceCommand creates the next instance of a completed
// repeating task.
type SpawnNextOccurrenceCommand struct {
	TaskID uuid.UUID
	UserID uuid.UUID
}

// SpawnNextOccurrenceHandler handles the SpawnNextOccurrenceCommand.
type SpawnNextOccurrenceHandler struct {
	m taskMutation
}

// NewSpawnNextOccurrenceHandler creates a new SpawnNextOccurrenceHandler.
func NewSpawnNextOccurrenceHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork, clock domain.Clock) *SpawnNextOccurrenceHandler {
	return &SpawnNextOccurrenceHandler{m: newTaskMutation(taskRepo, outboxRepo, uow, clock)}
}

// Handle returns the new task, or nil when the source does not repeat, is no
// longer completed, or its next occurrence already exists.
func (h *SpawnNextOccurrenceHandler) Handle(ctx context.Context, cmd SpawnNextOccurrenceCommand) (*task.Task, error) {
	var next *task.Task
	err := application.WithUnitOfWork(ctx, h.m.uow, func(txCtx context.Context) error {
		source, err := h.m.taskRepo.FindByID(txCtx, cmd.TaskID, cmd.UserID)
		if err != nil {
			return err
		}
		if source.Status() != task.StatusCompleted {
			return nil
		}

		t, ok, err := source.NextOccurrence(h.m.clock.Now())
		if err != nil || !ok {
			return err
		}
		if err := h.m.save(txCtx, t, cmd.UserID); err != nil {
			return err
		}
		next = t
		return nil
	})
	if errors.Is(err, task.ErrConcurrentModification) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Classify(err)
	}
	return next, nil
}

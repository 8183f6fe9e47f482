package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/application"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/schedule"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// taskMutation loads one task, applies a change and writes the task together
// with its outbox messages in a single unit of work.
type taskMutation struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        application.UnitOfWork
	clock      domain.Clock
}

func newTaskMutation(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork, clock domain.Clock) taskMutation {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return taskMutation{taskRepo: taskRepo, outboxRepo: outboxRepo, uow: uow, clock: clock}
}

func (m taskMutation) run(ctx context.Context, taskID, userID uuid.UUID, change func(t *task.Task, now time.Time) error) (*task.Task, error) {
	var result *task.Task
	err := application.WithUnitOfWork(ctx, m.uow, func(txCtx context.Context) error {
		t, err := m.taskRepo.FindByID(txCtx, taskID, userID)
		if err != nil {
			return err
		}
		if err := change(t, m.clock.Now()); err != nil {
			return err
		}
		if err := m.save(txCtx, t, userID); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return result, nil
}

func (m taskMutation) save(ctx context.Context, t *task.Task, userID uuid.UUID) error {
	if err := m.taskRepo.Save(ctx, t); err != nil {
		return err
	}
	return application.StageEvents(ctx, m.outboxRepo, t, userID)
}

func parseDate(field, value string) (time.Time, error) {
	d, ok := schedule.ParseDate(value)
	if !ok {
		return time.Time{}, domain.NewValidationError(fmt.Sprintf("%s must be YYYY-MM-DD or an RFC 3339 timestamp, got %q", field, value))
	}
	return d, nil
}

func locationOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

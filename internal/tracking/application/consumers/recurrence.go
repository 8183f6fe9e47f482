package consumers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/commands"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// OccurrenceSpawner creates the next instance of a repeating task.
type OccurrenceSpawner interface {
	Handle(ctx context.Context, cmd commands.SpawnNextOccurrenceCommand) (*task.Task, error)
}

// RecurrenceConsumer spawns the next occurrence when a repeating task is completed.
type RecurrenceConsumer struct {
	spawner OccurrenceSpawner
	logger  *slog.Logger
}

// NewRecurrenceConsumer creates a new RecurrenceConsumer.
func NewRecurrenceConsumer(spawner OccurrenceSpawner, logger *slog.Logger) *RecurrenceConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurrenceConsumer{spawner: spawner, logger: logger}
}

// EventTypes returns the completion routing key.
func (c *RecurrenceConsumer) EventTypes() []string {
	return []string{task.RoutingKeyCompleted}
}

// Handle processes a completion event.
func (c *RecurrenceConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var completed task.TaskCompleted
	if err := event.Decode(&completed); err != nil {
		c.logger.Warn("undecodable completion event", "event_id", event.EventID, "error", err)
		return nil
	}
	if completed.Repeat == "" || completed.Repeat == task.RepeatNone.String() {
		return nil
	}

	userID := eventUserID(event)
	if userID == uuid.Nil {
		userID = completed.UserID
	}

	next, err := c.spawner.Handle(ctx, commands.SpawnNextOccurrenceCommand{
		TaskID: event.AggregateID,
		UserID: userID,
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.logger.Debug("completed task no longer exists", "task_id", event.AggregateID)
		return nil
	case err != nil:
		return err
	case next == nil:
		return nil
	}

	c.logger.Info("next occurrence created",
		"task_id", event.AggregateID,
		"next_task_id", next.ID(),
		"scheduled_date", next.ScheduledDate().Format("2006-01-02"),
	)
	return nil
}

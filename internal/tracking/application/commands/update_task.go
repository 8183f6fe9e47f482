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

// UpdateTaskCommand carries a partial update. Nil fields are left as they are.
type UpdateTaskCommand struct {
	TaskID          uuid.UUID
	UserID          uuid.UUID
	Title           *string
	Description     *string
	Priority        *string
	ScheduledDate   *string
	StartTime       *string
	EndTime         *string
	MotivationText  *string
	RewardInfo      *string
	Reminder        *int
	ClearReminder   bool
	Repeat          *string
	VoicePreference *bool
}

// UpdateTaskHandler handles the UpdateTaskCommand.
type UpdateTaskHandler struct {
	m taskMutation
}

// NewUpdateTaskHandler creates a new UpdateTaskHandler.
func NewUpdateTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork, clock domain.Clock) *UpdateTaskHandler {
	return &UpdateTaskHandler{m: newTaskMutation(taskRepo, outboxRepo, uow, clock)}
}

// Handle merges the allow-listed fields into the task.
func (h *UpdateTaskHandler) Handle(ctx context.Context, cmd UpdateTaskCommand) (*task.Task, error) {
	fields := task.UpdateFields{
		Title:           cmd.Title,
		Description:     cmd.Description,
		Priority:        cmd.Priority,
		StartTime:       cmd.StartTime,
		EndTime:         cmd.EndTime,
		MotivationText:  cmd.MotivationText,
		RewardInfo:      cmd.RewardInfo,
		Reminder:        cmd.Reminder,
		ClearReminder:   cmd.ClearReminder,
		Repeat:          cmd.Repeat,
		VoicePreference: cmd.VoicePreference,
	}
	if cmd.ScheduledDate != nil {
		d, err := parseDate("scheduledDate", *cmd.ScheduledDate)
		if err != nil {
			return nil, err
		}
		fields.ScheduledDate = &d
	}

	return h.m.run(ctx, cmd.TaskID, cmd.UserID, func(t *task.Task, now time.Time) error {
		_, err := t.Update(fields, now)
		return err
	})
}

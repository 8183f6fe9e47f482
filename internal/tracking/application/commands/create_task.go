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

// CreateTaskCommand contains the data needed to create a task.
type CreateTaskCommand struct {
	UserID          uuid.UUID
	Title           string
	Description     string
	Priority        string
	ScheduledDate   string
	StartTime       string
	EndTime         string
	MotivationText  string
	RewardInfo      string
	Reminder        *int
	Repeat          string
	VoicePreference bool
}

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	m taskMutation
}

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork, clock domain.Clock) *CreateTaskHandler {
	return &CreateTaskHandler{m: newTaskMutation(taskRepo, outboxRepo, uow, clock)}
}

// Handle creates an active task and returns it.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*task.Task, error) {
	var date time.Time
	if strings.TrimSpace(cmd.ScheduledDate) != "" {
		d, err := parseDate("scheduledDate", cmd.ScheduledDate)
		if err != nil {
			return nil, err
		}
		date = d
	}

	t, err := task.NewTask(task.NewTaskParams{
		UserID:          cmd.UserID,
		Title:           cmd.Title,
		Description:     cmd.Description,
		Priority:        cmd.Priority,
		ScheduledDate:   date,
		StartTime:       cmd.StartTime,
		EndTime:         cmd.EndTime,
		MotivationText:  cmd.MotivationText,
		RewardInfo:      cmd.RewardInfo,
		Reminder:        cmd.Reminder,
		Repeat:          cmd.Repeat,
		VoicePreference: cmd.VoicePreference,
	}, h.m.clock.Now())
	if err != nil {
		return nil, err
	}

	err = application.WithUnitOfWork(ctx, h.m.uow, func(txCtx context.Context) error {
		return h.m.save(txCtx, t, cmd.UserID)
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return t, nil
}

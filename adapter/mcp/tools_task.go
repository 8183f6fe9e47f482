package mcp

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/commands"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/felixgeelhaar/tempo/internal/tracking/infrastructure/calendar"
)

type taskCreateInput struct {
	Title           string `json:"title" jsonschema:"required"`
	Description     string `json:"description,omitempty"`
	Priority        string `json:"priority" jsonschema:"required"`
	ScheduledDate   string `json:"scheduled_date,omitempty"`
	StartTime       string `json:"start_time" jsonschema:"required"`
	EndTime         string `json:"end_time" jsonschema:"required"`
	MotivationText  string `json:"motivation_text,omitempty"`
	RewardInfo      string `json:"reward_info,omitempty"`
	Reminder        *int   `json:"reminder,omitempty"`
	Repeat          string `json:"repeat,omitempty"`
	VoicePreference bool   `json:"voice_preference,omitempty"`
}

type taskUpdateInput struct {
	TaskID          string  `json:"task_id" jsonschema:"required"`
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	ScheduledDate   *string `json:"scheduled_date,omitempty"`
	StartTime       *string `json:"start_time,omitempty"`
	EndTime         *string `json:"end_time,omitempty"`
	MotivationText  *string `json:"motivation_text,omitempty"`
	RewardInfo      *string `json:"reward_info,omitempty"`
	Reminder        *int    `json:"reminder,omitempty"`
	ClearReminder   bool    `json:"clear_reminder,omitempty"`
	Repeat          *string `json:"repeat,omitempty"`
	VoicePreference *bool   `json:"voice_preference,omitempty"`
}

type taskExtendInput struct {
	TaskID        string `json:"task_id" jsonschema:"required"`
	ExtensionType string `json:"extension_type" jsonschema:"required"`
	Minutes       int    `json:"minutes,omitempty"`
	Deadline      string `json:"deadline,omitempty"`
	UserNotes     string `json:"user_notes,omitempty"`
}

type taskListInput struct {
	Statuses []string `json:"statuses,omitempty"`
	Date     string   `json:"date,omitempty"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"required"`
}

type taskExportOutput struct {
	Count    int    `json:"count"`
	Calendar string `json:"calendar"`
}

type statsInput struct {
	Period string `json:"period,omitempty"`
}

// taskTools implements the task.* and stats.* tools over the CLI application.
type taskTools struct {
	app *cli.App
}

func registerTaskTools(srv *mcp.Server, t *taskTools) {
	srv.Tool("task.create").
		Description("Create a time-boxed task. Priority High, Medium or Low is worth 100, 50 or 25 points. Times are HH:mm, date YYYY-MM-DD (default today).").
		Handler(t.create)

	srv.Tool("task.list").
		Description("List tasks, newest first. Filter by statuses (active, completed, backlog) and a date (within 7 days either side).").
		Handler(t.list)

	srv.Tool("task.get").
		Description("Get a task with its full event log").
		Handler(t.get)

	srv.Tool("task.update").
		Description("Edit task details. Status, points and history are not affected.").
		Handler(t.update)

	srv.Tool("task.extend").
		Description("Extend an active task. extension_type is increment (minutes, at most 30 days), deadline (RFC 3339, truncated to the minute) or stopwatch_start.").
		Handler(t.extend)

	srv.Tool("task.complete").
		Description("Complete an active task now and score it").
		Handler(t.complete)

	srv.Tool("task.backlog").
		Description("Move an active task to the backlog").
		Handler(t.backlog)

	srv.Tool("task.reactivate").
		Description("Return a completed or backlogged task to active, resetting its earned points").
		Handler(t.reactivate)

	srv.Tool("task.delete").
		Description("Delete a task").
		Handler(t.delete)

	srv.Tool("task.export").
		Description("Export tasks as an iCalendar document").
		Handler(t.export)
}

func registerStatsTools(srv *mcp.Server, t *taskTools) {
	srv.Tool("stats.get").
		Description("Points and completion statistics for tasks created in a period: week (default), month or all").
		Handler(t.stats)
}

func (t *taskTools) create(ctx context.Context, input taskCreateInput) (*queries.TaskDTO, error) {
	date := input.ScheduledDate
	if strings.TrimSpace(date) == "" {
		date = t.app.Today()
	}
	created, err := t.app.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
		UserID:          t.app.CurrentUserID,
		Title:           input.Title,
		Description:     input.Description,
		Priority:        input.Priority,
		ScheduledDate:   date,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		MotivationText:  input.MotivationText,
		RewardInfo:      input.RewardInfo,
		Reminder:        input.Reminder,
		Repeat:          input.Repeat,
		VoicePreference: input.VoicePreference,
	})
	return t.result(created, err)
}

func (t *taskTools) list(ctx context.Context, input taskListInput) ([]queries.TaskDTO, error) {
	tasks, err := t.app.ListTasksHandler.Handle(ctx, queries.ListTasksQuery{
		UserID:   t.app.CurrentUserID,
		Statuses: input.Statuses,
		Date:     input.Date,
	})
	if err != nil {
		return nil, toolError(err)
	}
	if tasks == nil {
		tasks = []queries.TaskDTO{}
	}
	return tasks, nil
}

func (t *taskTools) get(ctx context.Context, input taskIDInput) (*queries.TaskDTO, error) {
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, toolError(err)
	}
	dto, err := t.app.GetTaskHandler.Handle(ctx, queries.GetTaskQuery{TaskID: taskID, UserID: t.app.CurrentUserID})
	if err != nil {
		return nil, toolError(err)
	}
	return dto, nil
}

func (t *taskTools) update(ctx context.Context, input taskUpdateInput) (*queries.TaskDTO, error) {
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, toolError(err)
	}
	updated, err := t.app.UpdateTaskHandler.Handle(ctx, commands.UpdateTaskCommand{
		TaskID:          taskID,
		UserID:          t.app.CurrentUserID,
		Title:           input.Title,
		Description:     input.Description,
		Priority:        input.Priority,
		ScheduledDate:   input.ScheduledDate,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		MotivationText:  input.MotivationText,
		RewardInfo:      input.RewardInfo,
		Reminder:        input.Reminder,
		ClearReminder:   input.ClearReminder,
		Repeat:          input.Repeat,
		VoicePreference: input.VoicePreference,
	})
	return t.result(updated, err)
}

func (t *taskTools) extend(ctx context.Context, input taskExtendInput) (*queries.TaskDTO, error) {
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, toolError(err)
	}
	extended, err := t.app.ExtendTaskHandler.Handle(ctx, commands.ExtendTaskCommand{
		TaskID:        taskID,
		UserID:        t.app.CurrentUserID,
		ExtensionType: input.ExtensionType,
		Minutes:       input.Minutes,
		Deadline:      input.Deadline,
		UserNotes:     input.UserNotes,
	})
	return t.result(extended, err)
}

func (t *taskTools) complete(ctx context.Context, input taskIDInput) (*queries.TaskDTO, error) {
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, toolError(err)
	}
	return t.result(t.app.CompleteTaskHandler.Handle(ctx, commands.CompleteTaskCommand{TaskID: taskID, UserID: t.app.CurrentUserID}))
}

func (t *taskTools) backlog(ctx context.Context, input taskIDInput) (*queries.TaskDTO, error) {
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, toolError(err)
	}
	return t.result(t.app.BacklogTaskHandler.Handle(ctx, commands.BacklogTaskCommand{TaskID: taskID, UserID: t.app.CurrentUserID}))
}

func (t *taskTools) reactivate(ctx context.Context, input taskIDInput) (*queries.TaskDTO, error) {
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, toolError(err)
	}
	return t.result(t.app.ReactivateTaskHandler.Handle(ctx, commands.ReactivateTaskCommand{TaskID: taskID, UserID: t.app.CurrentUserID}))
}

func (t *taskTools) delete(ctx context.Context, input taskIDInput) (map[string]any, error) {
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, toolError(err)
	}
	if err := t.app.DeleteTaskHandler.Handle(ctx, commands.DeleteTaskCommand{TaskID: taskID, UserID: t.app.CurrentUserID}); err != nil {
		return nil, toolError(err)
	}
	return map[string]any{"task_id": taskID.String(), "deleted": true}, nil
}

func (t *taskTools) export(ctx context.Context, input taskListInput) (*taskExportOutput, error) {
	entries, err := t.app.ExportTasksHandler.Handle(ctx, queries.ExportTasksQuery{
		UserID:   t.app.CurrentUserID,
		Statuses: input.Statuses,
		Date:     input.Date,
	})
	if err != nil {
		return nil, toolError(err)
	}
	var b strings.Builder
	if err := calendar.Encode(&b, entries, t.app.CurrentTime()); err != nil {
		return nil, toolError(err)
	}
	return &taskExportOutput{Count: len(entries), Calendar: b.String()}, nil
}

func (t *taskTools) stats(ctx context.Context, input statsInput) (*queries.StatsDTO, error) {
	stats, err := t.app.GetStatsHandler.Handle(ctx, queries.GetStatsQuery{
		UserID: t.app.CurrentUserID,
		Period: input.Period,
	})
	if err != nil {
		return nil, toolError(err)
	}
	return stats, nil
}

func (t *taskTools) result(tk *task.Task, err error) (*queries.TaskDTO, error) {
	if err != nil {
		return nil, toolError(err)
	}
	dto := queries.ToTaskDTO(tk, t.app.Location)
	return &dto, nil
}

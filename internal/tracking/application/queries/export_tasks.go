package queries

import (
	"context"
	"sort"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// CalendarEntry is a task placed on the timeline, ready for calendar export.
type CalendarEntry struct {
	TaskID         uuid.UUID `json:"taskId" yaml:"taskId"`
	Title          string    `json:"title" yaml:"title"`
	Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
	Start          time.Time `json:"start" yaml:"start"`
	End            time.Time `json:"end" yaml:"end"`
	Status         string    `json:"status" yaml:"status"`
	Priority       string    `json:"priority" yaml:"priority"`
	EarnedPoints   int       `json:"earnedPoints" yaml:"earnedPoints"`
	Reminder       *int      `json:"reminder,omitempty" yaml:"reminder,omitempty"`
	Repeat         string    `json:"repeat" yaml:"repeat"`
	MotivationText string    `json:"motivationText,omitempty" yaml:"motivationText,omitempty"`
	RewardInfo     string    `json:"rewardInfo,omitempty" yaml:"rewardInfo,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// ExportTasksQuery selects the tasks to export. It filters like ListTasksQuery.
type ExportTasksQuery struct {
	UserID   uuid.UUID
	Statuses []string
	Date     string
}

// ExportTasksHandler handles the ExportTasksQuery.
type ExportTasksHandler struct {
	taskRepo task.Repository
	loc      *time.Location
}

// NewExportTasksHandler creates a new ExportTasksHandler.
func NewExportTasksHandler(taskRepo task.Repository, loc *time.Location) *ExportTasksHandler {
	return &ExportTasksHandler{taskRepo: taskRepo, loc: locationOrUTC(loc)}
}

// Handle returns one entry per task with a resolvable start and end, ordered
// by start time.
func (h *ExportTasksHandler) Handle(ctx context.Context, query ExportTasksQuery) ([]CalendarEntry, error) {
	filter, err := ListTasksQuery{UserID: query.UserID, Statuses: query.Statuses, Date: query.Date}.filter()
	if err != nil {
		return nil, err
	}
	tasks, err := h.taskRepo.FindAll(ctx, query.UserID, filter)
	if err != nil {
		return nil, domain.Classify(err)
	}

	entries := make([]CalendarEntry, 0, len(tasks))
	for _, t := range tasks {
		start, ok := t.Start(h.loc)
		if !ok {
			continue
		}
		end, ok := t.Deadline(h.loc)
		if !ok {
			continue
		}
		// An extension past midnight moves the date with the end time.
		if !end.After(start) {
			start = start.AddDate(0, 0, -1)
		}
		entries = append(entries, CalendarEntry{
			TaskID:         t.ID(),
			Title:          t.Title(),
			Description:    t.Description(),
			Start:          start,
			End:            end,
			Status:         t.Status().String(),
			Priority:       t.Priority().String(),
			EarnedPoints:   t.EarnedPoints(),
			Reminder:       t.Reminder(),
			Repeat:         t.Repeat().String(),
			MotivationText: t.MotivationText(),
			RewardInfo:     t.RewardInfo(),
			UpdatedAt:      t.UpdatedAt(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start.Before(entries[j].Start)
	})
	return entries, nil
}

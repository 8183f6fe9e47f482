package queries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/schedule"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// DateWindowDays is how far either side of ListTasksQuery.Date a task may be scheduled.
const DateWindowDays = 7

// ListTasksQuery contains the parameters for listing tasks.
type ListTasksQuery struct {
	UserID uuid.UUID
	// Statuses restricts the result to active, completed or backlog. Empty means all.
	Statuses []string
	// Date, when set, keeps tasks scheduled within DateWindowDays of it.
	Date string
}

// ListTasksHandler handles the ListTasksQuery.
type ListTasksHandler struct {
	taskRepo task.Repository
	loc      *time.Location
}

// NewListTasksHandler creates a new ListTasksHandler.
func NewListTasksHandler(taskRepo task.Repository, loc *time.Location) *ListTasksHandler {
	return &ListTasksHandler{taskRepo: taskRepo, loc: locationOrUTC(loc)}
}

// Handle returns the user's tasks, newest first.
func (h *ListTasksHandler) Handle(ctx context.Context, query ListTasksQuery) ([]TaskDTO, error) {
	filter, err := query.filter()
	if err != nil {
		return nil, err
	}
	tasks, err := h.taskRepo.FindAll(ctx, query.UserID, filter)
	if err != nil {
		return nil, domain.Classify(err)
	}
	return ToTaskDTOs(tasks, h.loc), nil
}

func (q ListTasksQuery) filter() (task.Filter, error) {
	var f task.Filter
	for _, raw := range q.Statuses {
		for _, s := range strings.Split(raw, ",") {
			if strings.TrimSpace(s) == "" {
				continue
			}
			status, err := task.ParseStatus(strings.TrimSpace(s))
			if err != nil {
				return task.Filter{}, err
			}
			f.Statuses = append(f.Statuses, status)
		}
	}

	if strings.TrimSpace(q.Date) != "" {
		date, ok := schedule.ParseDate(q.Date)
		if !ok {
			return task.Filter{}, domain.NewValidationError(fmt.Sprintf("date must be YYYY-MM-DD or an RFC 3339 timestamp, got %q", q.Date))
		}
		from := date.AddDate(0, 0, -DateWindowDays)
		to := date.AddDate(0, 0, DateWindowDays)
		f.ScheduledFrom, f.ScheduledTo = &from, &to
	}
	return f, nil
}

package persistence

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// MemoryTaskRepository keeps snapshots in memory. It enforces the same
// ownership and version rules as SQLTaskRepository.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]task.Snapshot
}

// NewMemoryTaskRepository creates an empty repository.
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[uuid.UUID]task.Snapshot)}
}

func (r *MemoryTaskRepository) Save(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := t.Snapshot()
	if stored, ok := r.tasks[s.ID]; ok {
		if stored.Version != s.Version || stored.UserID != s.UserID {
			return task.ErrConcurrentModification
		}
	} else if s.Version != 0 {
		return task.ErrConcurrentModification
	}

	s.Version++
	r.tasks[s.ID] = s
	t.MarkSaved(s.Version)
	return nil
}

func (r *MemoryTaskRepository) FindByID(_ context.Context, id, userID uuid.UUID) (*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.tasks[id]
	if !ok || s.UserID != userID {
		return nil, task.ErrTaskNotFound
	}
	return task.Rehydrate(s), nil
}

func (r *MemoryTaskRepository) FindAll(_ context.Context, userID uuid.UUID, filter task.Filter) ([]*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []task.Snapshot
	for _, s := range r.tasks {
		if s.UserID != userID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, s.Status) {
			continue
		}
		if filter.ScheduledFrom != nil && s.ScheduledDate.Before(dateOf(*filter.ScheduledFrom)) {
			continue
		}
		if filter.ScheduledTo != nil && s.ScheduledDate.After(dateOf(*filter.ScheduledTo)) {
			continue
		}
		matched = append(matched, s)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	tasks := make([]*task.Task, len(matched))
	for i, s := range matched {
		tasks[i] = task.Rehydrate(s)
	}
	return tasks, nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.tasks[id]
	if !ok || s.UserID != userID {
		return task.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepository) Summarize(_ context.Context, userID uuid.UUID, since time.Time) (task.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byStatus := make(map[task.Status]*task.StatusSummary)
	completions := make(map[task.EventType]int)

	for _, s := range r.tasks {
		if s.UserID != userID || s.CreatedAt.Before(since) {
			continue
		}
		row, ok := byStatus[s.Status]
		if !ok {
			row = &task.StatusSummary{Status: s.Status}
			byStatus[s.Status] = row
		}
		row.Count++
		row.TotalPoints += s.EarnedPoints

		for _, e := range s.EventLog {
			if e.Type.IsCompletion() {
				completions[e.Type]++
			}
		}
	}

	var summary task.Summary
	for _, row := range byStatus {
		row.AvgPoints = float64(row.TotalPoints) / float64(row.Count)
		summary.ByStatus = append(summary.ByStatus, *row)
	}
	sort.Slice(summary.ByStatus, func(i, j int) bool {
		return summary.ByStatus[i].Status < summary.ByStatus[j].Status
	})
	for typ, n := range completions {
		summary.Completions = append(summary.Completions, task.CompletionCount{Type: typ, Count: n})
	}
	sort.Slice(summary.Completions, func(i, j int) bool {
		return summary.Completions[i].Type < summary.Completions[j].Type
	})
	return summary, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

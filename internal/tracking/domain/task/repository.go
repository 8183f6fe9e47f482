package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows a listing. Zero values mean no restriction.
type Filter struct {
	Statuses      []Status
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
}

// StatusSummary aggregates tasks sharing a status.
type StatusSummary struct {
	Status      Status
	Count       int
	TotalPoints int
	AvgPoints   float64
}

// CompletionCount counts completion log entries of one type.
type CompletionCount struct {
	Type  EventType
	Count int
}

// Summary is the grouped view of a user's tasks created since a point in time.
type Summary struct {
	ByStatus    []StatusSummary
	Completions []CompletionCount
}

// Repository persists tasks together with their event logs.
// Lookups are scoped by owner: a task of another user is reported as ErrTaskNotFound.
type Repository interface {
	// Save inserts a new task or updates an existing one. Updates fail with
	// ErrConcurrentModification when the stored version differs from the task's.
	Save(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id, userID uuid.UUID) (*Task, error)
	FindAll(ctx context.Context, userID uuid.UUID, filter Filter) ([]*Task, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Summarize(ctx context.Context, userID uuid.UUID, since time.Time) (Summary, error)
}

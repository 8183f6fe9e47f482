package task

import (
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Task"

	RoutingKeyCreated     = "tracking.task.created"
	RoutingKeyUpdated     = "tracking.task.updated"
	RoutingKeyExtended    = "tracking.task.extended"
	RoutingKeyCompleted   = "tracking.task.completed"
	RoutingKeyBacklogged  = "tracking.task.backlogged"
	RoutingKeyReactivated = "tracking.task.reactivated"
	RoutingKeyDeleted     = "tracking.task.deleted"
)

// RoutingKeys lists every key a task publishes.
var RoutingKeys = []string{
	RoutingKeyCreated,
	RoutingKeyUpdated,
	RoutingKeyExtended,
	RoutingKeyCompleted,
	RoutingKeyBacklogged,
	RoutingKeyReactivated,
	RoutingKeyDeleted,
}

// TaskCreated is emitted when a new task is created.
type TaskCreated struct {
	domain.BaseEvent
	UserID        uuid.UUID `json:"user_id"`
	Title         string    `json:"title"`
	Priority      string    `json:"priority"`
	ScheduledDate time.Time `json:"scheduled_date"`
}

// TaskUpdated is emitted when general fields change.
type TaskUpdated struct {
	domain.BaseEvent
	UserID uuid.UUID `json:"user_id"`
	Fields []string  `json:"fields"`
}

// TaskExtended is emitted for every extension, including stopwatch starts.
type TaskExtended struct {
	domain.BaseEvent
	UserID        uuid.UUID `json:"user_id"`
	ExtensionType string    `json:"extension_type"`
	DelayMs       int64     `json:"delay_ms"`
}

// TaskCompleted is emitted when a task is completed.
type TaskCompleted struct {
	domain.BaseEvent
	UserID       uuid.UUID `json:"user_id"`
	OnTime       bool      `json:"on_time"`
	EarnedPoints int       `json:"earned_points"`
	Streak       int       `json:"streak"`
	Repeat       string    `json:"repeat"`
}

// TaskBacklogged is emitted when a task moves to the backlog.
type TaskBacklogged struct {
	domain.BaseEvent
	UserID uuid.UUID `json:"user_id"`
}

// TaskReactivated is emitted when a completed or backlogged task becomes active again.
type TaskReactivated struct {
	domain.BaseEvent
	UserID     uuid.UUID `json:"user_id"`
	FromStatus string    `json:"from_status"`
}

// TaskDeleted is emitted when a task is removed.
type TaskDeleted struct {
	domain.BaseEvent
	UserID uuid.UUID `json:"user_id"`
}

func (t *Task) baseEvent(routingKey string, at time.Time) domain.BaseEvent {
	return domain.NewBaseEvent(t.ID(), AggregateType, routingKey, at)
}

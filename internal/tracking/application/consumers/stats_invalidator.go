// Package consumers reacts to task events delivered by the event bus.
package consumers

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// StatsInvalidator drops a user's cached stats whenever one of their tasks changes.
type StatsInvalidator struct {
	cache  cache.Cache
	logger *slog.Logger
}

// NewStatsInvalidator creates a new StatsInvalidator.
func NewStatsInvalidator(c cache.Cache, logger *slog.Logger) *StatsInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsInvalidator{cache: c, logger: logger}
}

// EventTypes returns every task routing key.
func (s *StatsInvalidator) EventTypes() []string {
	return task.RoutingKeys
}

// Handle deletes the user's stats entries.
func (s *StatsInvalidator) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	userID := eventUserID(event)
	if userID == uuid.Nil {
		s.logger.Warn("task event without user id, skipping stats invalidation",
			"event_id", event.EventID, "routing_key", event.RoutingKey)
		return nil
	}
	if err := s.cache.DeletePrefix(ctx, queries.StatsCachePrefix(userID)); err != nil {
		return err
	}
	s.logger.Debug("stats cache invalidated", "user_id", userID, "routing_key", event.RoutingKey)
	return nil
}

// eventUserID reads the owner from the metadata, falling back to the body.
func eventUserID(event *eventbus.ConsumedEvent) uuid.UUID {
	if event.Metadata.UserID != uuid.Nil {
		return event.Metadata.UserID
	}
	var body struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := event.Decode(&body); err != nil {
		return uuid.Nil
	}
	return body.UserID
}

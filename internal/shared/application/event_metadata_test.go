package application

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	domain.BaseEvent
}

func TestNewEventMetadata(t *testing.T) {
	t.Run("generates ids when context has no correlation id", func(t *testing.T) {
		userID := uuid.New()

		metadata := NewEventMetadata(context.Background(), userID)

		assert.Equal(t, userID, metadata.UserID)
		assert.NotEqual(t, uuid.Nil, metadata.CorrelationID)
		assert.NotEqual(t, uuid.Nil, metadata.CausationID)
	})

	t.Run("reuses correlation id from context", func(t *testing.T) {
		correlationID := uuid.New()
		ctx := observability.WithCorrelationID(context.Background(), correlationID.String())

		metadata := NewEventMetadata(ctx, uuid.New())

		assert.Equal(t, correlationID, metadata.CorrelationID)
	})

	t.Run("ignores non-uuid correlation id", func(t *testing.T) {
		ctx := observability.WithCorrelationID(context.Background(), "cli-run-1")

		metadata := NewEventMetadata(ctx, uuid.New())

		assert.NotEqual(t, uuid.Nil, metadata.CorrelationID)
	})
}

func TestApplyEventMetadata(t *testing.T) {
	event := &recordedEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "Task", "tracking.task.created", time.Now())}
	metadata := NewEventMetadata(context.Background(), uuid.New())

	ApplyEventMetadata([]domain.DomainEvent{event}, metadata)

	require.Equal(t, metadata, event.Metadata())
}

package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteAdded struct {
	domain.BaseEvent
	Body string `json:"body"`
}

func newNoteAdded(aggregateID uuid.UUID, body string) *noteAdded {
	return &noteAdded{
		BaseEvent: domain.NewBaseEvent(aggregateID, "Note", "notes.note.added", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)),
		Body:      body,
	}
}

func TestNewMessage(t *testing.T) {
	aggregateID := uuid.New()
	event := newNoteAdded(aggregateID, "hello")
	meta := domain.EventMetadata{CorrelationID: uuid.New(), CausationID: uuid.New(), UserID: uuid.New()}
	event.SetMetadata(meta)

	msg, err := NewMessage(event)

	require.NoError(t, err)
	assert.Equal(t, int64(0), msg.ID)
	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, "Note", msg.AggregateType)
	assert.Equal(t, aggregateID, msg.AggregateID)
	assert.Equal(t, "notes.note.added", msg.EventType)
	assert.Equal(t, "notes.note.added", msg.RoutingKey)
	assert.Equal(t, event.OccurredAt(), msg.CreatedAt)
	assert.Contains(t, string(msg.Metadata), meta.CorrelationID.String())
	assert.False(t, msg.IsPublished())
}

func TestNewMessage_PayloadIsConsumableEnvelope(t *testing.T) {
	event := newNoteAdded(uuid.New(), "hello")
	userID := uuid.New()
	event.SetMetadata(domain.EventMetadata{UserID: userID})

	msg, err := NewMessage(event)
	require.NoError(t, err)

	var consumed eventbus.ConsumedEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &consumed))

	assert.Equal(t, event.EventID(), consumed.EventID)
	assert.Equal(t, event.AggregateID(), consumed.AggregateID)
	assert.Equal(t, "notes.note.added", consumed.RoutingKey)
	assert.True(t, event.OccurredAt().Equal(consumed.OccurredAt))
	assert.Equal(t, userID, consumed.Metadata.UserID)
	assert.Empty(t, consumed.Metadata.CorrelationID)
	assert.JSONEq(t, `{"body":"hello"}`, string(consumed.Payload))
}

func TestMessage_CanRetry(t *testing.T) {
	tests := []struct {
		count, max int
		want       bool
	}{
		{0, 3, true},
		{2, 3, true},
		{3, 3, false},
		{5, 3, false},
		{0, 0, false},
	}

	for _, tt := range tests {
		msg := &Message{RetryCount: tt.count}
		assert.Equal(t, tt.want, msg.CanRetry(tt.max), "count=%d max=%d", tt.count, tt.max)
	}
}

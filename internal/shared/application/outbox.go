package application

import (
	"context"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// StageEvents converts the aggregate's pending domain events into outbox
// messages and saves them through the transactional context.
func StageEvents(ctx context.Context, repo outbox.Repository, agg domain.AggregateRoot, userID uuid.UUID) error {
	events := agg.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	ApplyEventMetadata(events, NewEventMetadata(ctx, userID))

	msgs := make([]*outbox.Message, 0, len(events))
	for _, event := range events {
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := repo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	agg.ClearDomainEvents()
	return nil
}

package mcp

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
)

func parseUUID(value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, domain.NewValidationError("task_id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(fmt.Sprintf("invalid task_id %q", value))
	}
	return id, nil
}

// toolError prefixes err with its kind. Unclassified causes are hidden.
func toolError(err error) error {
	if err == nil {
		return nil
	}
	err = domain.Classify(err)
	return fmt.Errorf("%s: %w", domain.KindOf(err), err)
}

package calendar

import (
	"fmt"

	"github.com/google/uuid"
)

func parseUID(uid string) (uuid.UUID, error) {
	id, err := uuid.Parse(uid)
	if err != nil {
		return uuid.Nil, fmt.Errorf("event uid %q is not a task id: %w", uid, err)
	}
	return id, nil
}

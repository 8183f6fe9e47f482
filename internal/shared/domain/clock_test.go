package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := domain.NewFixedClock(start)

	assert.Equal(t, start, clock.Now())

	clock.Advance(36 * time.Minute)
	assert.Equal(t, start.Add(36*time.Minute), clock.Now())

	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}

func TestSystemClock_IsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, domain.SystemClock{}.Now().Location())
}

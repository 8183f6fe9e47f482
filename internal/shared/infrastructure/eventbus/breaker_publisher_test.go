package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/eventbus"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
)

type flakyPublisher struct {
	fail  bool
	calls int
}

func (p *flakyPublisher) Publish(context.Context, string, []byte) error {
	p.calls++
	if p.fail {
		return errors.New("connection refused")
	}
	return nil
}

func (p *flakyPublisher) Close() error { return nil }

func TestBreakerPublisher_OpensAfterThreshold(t *testing.T) {
	next := &flakyPublisher{fail: true}
	p := eventbus.NewBreakerPublisher(next, eventbus.BreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
		HalfOpenRequests: 1,
	}, quietLogger())
	ctx := context.Background()

	assert.EqualError(t, p.Publish(ctx, "k", nil), "connection refused")
	assert.EqualError(t, p.Publish(ctx, "k", nil), "connection refused")
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.Publish(ctx, "k", nil)

	assert.ErrorIs(t, err, eventbus.ErrPublisherUnavailable)
	assert.Equal(t, 2, next.calls, "open circuit does not reach the broker")
}

func TestBreakerPublisher_HalfOpenRecovers(t *testing.T) {
	next := &flakyPublisher{fail: true}
	p := eventbus.NewBreakerPublisher(next, eventbus.BreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
		HalfOpenRequests: 1,
	}, quietLogger())
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, "k", nil))
	assert.Equal(t, gobreaker.StateOpen, p.State())

	next.fail = false
	time.Sleep(20 * time.Millisecond)

	assert.NoError(t, p.Publish(ctx, "k", nil))
	assert.Equal(t, gobreaker.StateClosed, p.State())
	assert.NoError(t, p.Close())
}

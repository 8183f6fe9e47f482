package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/eventbus"
)

// maxFlushRounds bounds a single Flush while consumers keep staging
// follow-up messages (a completed repeating task stages the next
// occurrence's created event).
const maxFlushRounds = 8

// ProcessorConfig tunes polling, batching and retries.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig returns the worker defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     500 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	d := DefaultProcessorConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = d.RetryBackoffBase
	}
	if c.RetryBackoffMax < c.RetryBackoffBase {
		c.RetryBackoffMax = max(d.RetryBackoffMax, c.RetryBackoffBase)
	}
	return c
}

// Delivery summarizes one Flush.
type Delivery struct {
	// Published counts delivered messages by routing key.
	Published    map[string]int
	Retrying     int
	DeadLettered int
	Rounds       int
}

// Total is the number of messages published.
func (d Delivery) Total() int {
	n := 0
	for _, c := range d.Published {
		n += c
	}
	return n
}

// Stats is a snapshot of processor counters since construction.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	PublishedByKey  map[string]uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithProcessorClock sets the clock used for retry scheduling and stats.
func WithProcessorClock(clock domain.Clock) ProcessorOption {
	return func(p *Processor) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// Processor moves staged messages from the outbox to a publisher. The
// worker runs it on a ticker; short-lived processes call Flush before exit.
// Flushes never overlap, so a message is handed to the publisher at most
// once per attempt even when the loop and a caller flush together.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	cfg       ProcessorConfig
	logger    *slog.Logger
	clock     domain.Clock

	flushMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a processor. Zero config fields take the defaults.
func NewProcessor(repo Repository, publisher eventbus.Publisher, cfg ProcessorConfig, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		logger:    logger.With("component", "outbox"),
		clock:     domain.SystemClock{},
		stats:     Stats{PublishedByKey: map[string]uint64{}},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs the polling loop in the background until Stop or until ctx ends.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil && !closed(p.done) {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(loopCtx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.cfg.PollInterval,
		"batch_size", p.cfg.BatchSize,
		"max_retries", p.cfg.MaxRetries,
	)
	return nil
}

// Stop ends the polling loop and waits for the current flush to finish.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the polling loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil && !closed(p.done)
}

func closed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (p *Processor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d, err := p.Flush(ctx)
			switch {
			case err != nil && ctx.Err() == nil:
				p.logger.Error("outbox flush failed", "error", err)
			case d.Total() > 0 || d.Retrying > 0 || d.DeadLettered > 0:
				p.logger.Debug("outbox flushed",
					"published", d.Published,
					"retrying", d.Retrying,
					"dead_lettered", d.DeadLettered,
				)
			}
		}
	}
}

// Flush publishes due messages until the outbox has nothing due, following
// messages that consumers stage while it runs. Messages that fail are
// rescheduled with backoff or dead-lettered; they do not fail the flush.
// Only a failure to read the outbox is returned.
func (p *Processor) Flush(ctx context.Context) (Delivery, error) {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	d := Delivery{Published: map[string]int{}}
	for d.Rounds < maxFlushRounds {
		if err := ctx.Err(); err != nil {
			return d, err
		}
		batch, err := p.repo.GetUnpublished(ctx, p.cfg.BatchSize)
		if err != nil {
			p.noteError(err)
			return d, fmt.Errorf("read outbox: %w", err)
		}
		p.noteBatch(batch)
		if len(batch) == 0 {
			break
		}
		d.Rounds++
		for _, msg := range batch {
			p.deliver(ctx, msg, &d)
		}
	}
	return d, nil
}

func (p *Processor) deliver(ctx context.Context, msg *Message, d *Delivery) {
	pubErr := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload)
	if pubErr == nil {
		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			p.logger.Error("mark published", "id", msg.ID, "event_id", msg.EventID, "error", err)
			return
		}
		d.Published[msg.RoutingKey]++
		p.statsMu.Lock()
		p.stats.PublishedCount++
		p.stats.PublishedByKey[msg.RoutingKey]++
		p.statsMu.Unlock()
		return
	}

	attrs := append([]any{
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"attempt", msg.RetryCount + 1,
		"error", pubErr,
	}, metadataAttrs(msg)...)

	if p.exhausted(msg) {
		p.logger.Warn("dead-lettering message", attrs...)
		d.DeadLettered++
		p.noteFailure(pubErr, true)
		if err := p.repo.MarkDead(ctx, msg.ID, pubErr.Error()); err != nil {
			p.logger.Error("mark dead", "id", msg.ID, "error", err)
		}
		return
	}

	retryAt := p.clock.Now().Add(p.backoff(msg.RetryCount + 1))
	p.logger.Warn("publish failed, will retry", append(attrs, "retry_at", retryAt)...)
	d.Retrying++
	p.noteFailure(pubErr, false)
	if err := p.repo.MarkFailed(ctx, msg.ID, pubErr.Error(), retryAt); err != nil {
		p.logger.Error("mark failed", "id", msg.ID, "error", err)
	}
}

// exhausted reports whether this attempt is the last one allowed.
func (p *Processor) exhausted(msg *Message) bool {
	return !msg.CanRetry(p.cfg.MaxRetries - 1)
}

// backoff doubles from the base per attempt and stops at the ceiling.
func (p *Processor) backoff(attempt int) time.Duration {
	d := p.cfg.RetryBackoffBase
	for i := 1; i < attempt && d < p.cfg.RetryBackoffMax; i++ {
		d *= 2
	}
	return min(d, p.cfg.RetryBackoffMax)
}

func metadataAttrs(msg *Message) []any {
	if len(msg.Metadata) == 0 {
		return nil
	}
	var md domain.EventMetadata
	if err := json.Unmarshal(msg.Metadata, &md); err != nil {
		return nil
	}
	return []any{
		"correlation_id", md.CorrelationID.String(),
		"causation_id", md.CausationID.String(),
		"user_id", md.UserID.String(),
	}
}

// GetStats returns a copy of the counters.
func (p *Processor) GetStats() Stats {
	running := p.IsRunning()

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	s := p.stats
	s.IsRunning = running
	s.PublishedByKey = maps.Clone(p.stats.PublishedByKey)
	return s
}

func (p *Processor) noteFailure(err error, dead bool) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	if dead {
		p.stats.DeadCount++
	} else {
		p.stats.FailedCount++
	}
	p.setLastError(err)
}

func (p *Processor) noteError(err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.setLastError(err)
}

func (p *Processor) setLastError(err error) {
	now := p.clock.Now()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &now
}

func (p *Processor) noteBatch(batch []*Message) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	now := p.clock.Now()
	p.stats.LastProcessedAt = &now
	if len(batch) == 0 {
		p.stats.LagSeconds = 0
		p.stats.OldestMessageAt = nil
		return
	}
	oldest := batch[0].CreatedAt
	for _, msg := range batch[1:] {
		if msg.CreatedAt.Before(oldest) {
			oldest = msg.CreatedAt
		}
	}
	p.stats.OldestMessageAt = &oldest
	p.stats.LagSeconds = now.Sub(oldest).Seconds()
}

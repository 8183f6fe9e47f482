package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/felixgeelhaar/tempo/internal/app"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
	"github.com/felixgeelhaar/tempo/pkg/observability"
)

// jobs holds the worker's scheduled maintenance work.
type jobs struct {
	container *app.Container
	logger    *slog.Logger
}

// newScheduler registers the cleanup and stats jobs on a cron scheduler
// running in the user's location.
func newScheduler(ctx context.Context, j *jobs) (*cron.Cron, error) {
	cfg := j.container.Config
	c := cron.New(
		cron.WithLocation(j.container.Location),
		cron.WithLogger(cronLogger{logger: j.logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: j.logger})),
	)

	if _, err := c.AddFunc(cfg.WorkerCleanupSchedule, func() { _ = j.cleanupOutbox(ctx) }); err != nil {
		return nil, fmt.Errorf("cleanup schedule %q: %w", cfg.WorkerCleanupSchedule, err)
	}
	if _, err := c.AddFunc(cfg.WorkerStatsSchedule, func() { _ = j.reportStats(ctx) }); err != nil {
		return nil, fmt.Errorf("stats schedule %q: %w", cfg.WorkerStatsSchedule, err)
	}
	return c, nil
}

// cleanupOutbox deletes published messages past the retention window.
func (j *jobs) cleanupOutbox(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { observability.LogDuration(ctx, j.logger, "outbox_cleanup", start, err) }()

	days := j.container.Config.OutboxRetentionDays
	deleted, err := j.container.OutboxRepo.DeleteOld(ctx, days)
	if err != nil {
		return err
	}
	if deleted > 0 {
		j.logger.InfoContext(ctx, "outbox cleanup completed", "deleted", deleted, "retention_days", days)
	}
	return nil
}

// reportStats logs the week's points summary and the processor counters.
func (j *jobs) reportStats(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { observability.LogDuration(ctx, j.logger, "stats_report", start, err) }()

	stats, err := j.container.GetStatsHandler.Handle(ctx, queries.GetStatsQuery{
		UserID: j.container.UserID,
		Period: string(queries.PeriodWeek),
	})
	if err != nil {
		return err
	}

	args := []any{"period", stats.Period, "since", stats.Since}
	for _, row := range stats.Summary {
		args = append(args, row.Status+"_count", row.Count, row.Status+"_points", row.TotalPoints)
	}
	for _, c := range stats.CompletionBreakdown {
		args = append(args, c.Type, c.Count)
	}
	j.logger.InfoContext(ctx, "weekly stats", args...)

	pending, err := j.container.OutboxRepo.CountPending(ctx)
	if err != nil {
		return err
	}
	ps := j.container.OutboxProcessor.GetStats()
	j.logger.InfoContext(ctx, "outbox stats",
		"pending", pending,
		"running", ps.IsRunning,
		"published", ps.PublishedCount,
		"failed", ps.FailedCount,
		"dead", ps.DeadCount,
		"lag_seconds", ps.LagSeconds,
		"last_error", ps.LastError,
	)
	return nil
}

// cronLogger routes cron's logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}

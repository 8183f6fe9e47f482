package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tempo/internal/app"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/commands"
	"github.com/felixgeelhaar/tempo/pkg/config"
)

func newTestJobs(t *testing.T) (*jobs, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := &config.Config{
		UserID:                config.DefaultUserID,
		Timezone:              "UTC",
		StatsCacheTTL:         time.Minute,
		OutboxRetentionDays:   14,
		WorkerCleanupSchedule: "0 3 * * *",
		WorkerStatsSchedule:   "@hourly",
	}
	clock := domain.NewFixedClock(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	c, err := app.NewInMemoryContainer(cfg, logger, app.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return &jobs{container: c, logger: logger}, &logs
}

func TestNewScheduler(t *testing.T) {
	j, _ := newTestJobs(t)

	c, err := newScheduler(context.Background(), j)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)

	j.container.Config.WorkerStatsSchedule = "every tuesday"
	_, err = newScheduler(context.Background(), j)
	assert.ErrorContains(t, err, "stats schedule")
}

func TestCleanupOutbox(t *testing.T) {
	j, logs := newTestJobs(t)

	require.NoError(t, j.cleanupOutbox(context.Background()))
	assert.Contains(t, logs.String(), `"job":"outbox_cleanup"`)
}

func TestReportStats(t *testing.T) {
	j, logs := newTestJobs(t)
	ctx := context.Background()
	c := j.container

	created, err := c.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
		UserID: c.UserID, Title: "Write report", Priority: "High",
		ScheduledDate: "2024-01-01", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)
	_, err = c.CompleteTaskHandler.Handle(ctx, commands.CompleteTaskCommand{TaskID: created.ID(), UserID: c.UserID})
	require.NoError(t, err)

	require.NoError(t, j.reportStats(ctx))

	out := logs.String()
	assert.Contains(t, out, `"msg":"weekly stats"`)
	assert.Contains(t, out, `"completed_points":100`)
	assert.Contains(t, out, `"completed_on_time":1`)
	assert.Contains(t, out, `"pending":2`)
}

func TestHealthMux(t *testing.T) {
	j, _ := newTestJobs(t)
	mux := healthMux(j.container.Health, j.container.OutboxProcessor)

	for path, want := range map[string]int{"/healthz": http.StatusOK, "/readyz": http.StatusOK, "/statz": http.StatusOK} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/statz", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["running"])
}

package queries_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/felixgeelhaar/tempo/internal/tracking/infrastructure/persistence"
)

var (
	jan1    = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	created = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
)

func seed(t *testing.T, repo task.Repository, userID uuid.UUID, title string, date time.Time, at time.Time, apply func(*task.Task)) *task.Task {
	t.Helper()
	tk, err := task.NewTask(task.NewTaskParams{
		UserID: userID, Title: title, Priority: "High",
		ScheduledDate: date, StartTime: "09:00", EndTime: "10:00",
	}, at)
	require.NoError(t, err)
	if apply != nil {
		apply(tk)
	}
	require.NoError(t, repo.Save(context.Background(), tk))
	return tk
}

func TestGetTask(t *testing.T) {
	repo := persistence.NewMemoryTaskRepository()
	user := uuid.New()
	tk := seed(t, repo, user, "Write report", jan1, created, func(tk *task.Task) {
		require.NoError(t, tk.Extend(task.IncrementBy(15, "stuck"), created, time.UTC))
	})
	handler := queries.NewGetTaskHandler(repo, time.UTC)

	dto, err := handler.Handle(context.Background(), queries.GetTaskQuery{TaskID: tk.ID(), UserID: user})

	require.NoError(t, err)
	assert.Equal(t, "Write report", dto.Title)
	assert.Equal(t, "2024-01-01", dto.ScheduledDate)
	assert.Equal(t, "10:15", dto.EndTime)
	require.NotNil(t, dto.Deadline)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC), *dto.Deadline)
	require.Len(t, dto.EventLog, 2)
	assert.Equal(t, "delay_increment", dto.EventLog[1].Type)
	assert.Equal(t, "stuck", dto.EventLog[1].Details["userNotes"])
	assert.Equal(t, 15, dto.EventLog[1].Details["incrementMinutes"])
	assert.Nil(t, dto.EventLog[0].Details)

	data, err := json.Marshal(dto)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"totalDelayMs":900000`)

	_, err = handler.Handle(context.Background(), queries.GetTaskQuery{TaskID: tk.ID(), UserID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTasks(t *testing.T) {
	repo := persistence.NewMemoryTaskRepository()
	user := uuid.New()
	seed(t, repo, user, "today", jan1, created, nil)
	seed(t, repo, user, "next week", jan1.AddDate(0, 0, 7), created.Add(time.Minute), nil)
	seed(t, repo, user, "next month", jan1.AddDate(0, 1, 0), created.Add(2*time.Minute), func(tk *task.Task) {
		require.NoError(t, tk.Backlog(created))
	})
	handler := queries.NewListTasksHandler(repo, time.UTC)
	ctx := context.Background()

	tests := []struct {
		name  string
		query queries.ListTasksQuery
		want  []string
	}{
		{"all newest first", queries.ListTasksQuery{}, []string{"next month", "next week", "today"}},
		{"status filter", queries.ListTasksQuery{Statuses: []string{"backlog"}}, []string{"next month"}},
		{"comma separated statuses", queries.ListTasksQuery{Statuses: []string{"active,backlog"}}, []string{"next month", "next week", "today"}},
		{"date window is inclusive", queries.ListTasksQuery{Date: "2024-01-08"}, []string{"next week", "today"}},
		{"date window excludes far tasks", queries.ListTasksQuery{Date: "2024-01-30"}, []string{"next month"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.query.UserID = user
			got, err := handler.Handle(ctx, tt.query)
			require.NoError(t, err)
			titles := make([]string, len(got))
			for i, d := range got {
				titles[i] = d.Title
			}
			assert.Equal(t, tt.want, titles)
		})
	}

	_, err := handler.Handle(ctx, queries.ListTasksQuery{UserID: user, Statuses: []string{"archived"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, task.ErrInvalidStatus)

	_, err = handler.Handle(ctx, queries.ListTasksQuery{UserID: user, Date: "next tuesday"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]queries.Period{"": queries.PeriodWeek, "week": queries.PeriodWeek, "Month": queries.PeriodMonth, "all": queries.PeriodAll} {
		got, err := queries.ParsePeriod(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := queries.ParsePeriod("year")
	assert.ErrorIs(t, err, domain.ErrValidation)

	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 24, 12, 0, 0, 0, time.UTC), queries.PeriodWeek.WindowStart(now))
	assert.Equal(t, time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC), queries.PeriodMonth.WindowStart(now))
	assert.Equal(t, time.Unix(0, 0).UTC(), queries.PeriodAll.WindowStart(now))
}

// countingRepo counts Summarize calls.
type countingRepo struct {
	task.Repository
	calls int
	err   error
}

func (r *countingRepo) Summarize(ctx context.Context, userID uuid.UUID, since time.Time) (task.Summary, error) {
	r.calls++
	if r.err != nil {
		return task.Summary{}, r.err
	}
	return r.Repository.Summarize(ctx, userID, since)
}

func TestGetStats(t *testing.T) {
	mem := persistence.NewMemoryTaskRepository()
	user := uuid.New()
	deadline := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	seed(t, mem, user, "on time", jan1, created, func(tk *task.Task) {
		require.NoError(t, tk.Complete(deadline, time.UTC))
	})
	seed(t, mem, user, "late", jan1, created, func(tk *task.Task) {
		require.NoError(t, tk.Complete(deadline.Add(36*time.Minute), time.UTC))
	})
	seed(t, mem, user, "open", jan1, created, nil)
	seed(t, mem, user, "last year", jan1, created.AddDate(-1, 0, 0), nil)

	repo := &countingRepo{Repository: mem}
	c := cache.NewMemory()
	clock := domain.NewFixedClock(created.Add(24 * time.Hour))
	handler := queries.NewGetStatsHandler(repo, c, time.Minute, clock, nil)
	ctx := context.Background()

	stats, err := handler.Handle(ctx, queries.GetStatsQuery{UserID: user, Period: "month"})
	require.NoError(t, err)
	assert.Equal(t, "month", stats.Period)
	assert.Equal(t, []queries.StatusStatsDTO{
		{Status: "active", Count: 1, TotalPoints: 0, AvgPoints: 0},
		{Status: "completed", Count: 2, TotalPoints: 190, AvgPoints: 95},
	}, stats.Summary)
	assert.Equal(t, []queries.CompletionDTO{
		{Type: "completed_on_time", Count: 1},
		{Type: "completed_with_extension", Count: 1},
	}, stats.CompletionBreakdown)

	again, err := handler.Handle(ctx, queries.GetStatsQuery{UserID: user, Period: "month"})
	require.NoError(t, err)
	assert.Equal(t, stats.Summary, again.Summary)
	assert.Equal(t, 1, repo.calls, "second call is served from cache")

	all, err := handler.Handle(ctx, queries.GetStatsQuery{UserID: user, Period: "all"})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Summary[0].Count)
	assert.Equal(t, 2, repo.calls)

	require.NoError(t, c.DeletePrefix(ctx, queries.StatsCachePrefix(user)))
	_, err = handler.Handle(ctx, queries.GetStatsQuery{UserID: user, Period: "month"})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.calls)
}

func TestGetStats_WithoutCacheAndOnStoreFailure(t *testing.T) {
	repo := &countingRepo{Repository: persistence.NewMemoryTaskRepository(), err: errors.New("connection reset")}
	handler := queries.NewGetStatsHandler(repo, nil, 0, nil, nil)

	_, err := handler.Handle(context.Background(), queries.GetStatsQuery{UserID: uuid.New()})

	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.Equal(t, "internal error", err.Error())
}

func TestExportTasks(t *testing.T) {
	repo := persistence.NewMemoryTaskRepository()
	user := uuid.New()
	seed(t, repo, user, "second", jan1.AddDate(0, 0, 1), created, nil)
	seed(t, repo, user, "first", jan1, created.Add(time.Minute), nil)
	seed(t, repo, user, "late shift", jan1.AddDate(0, 0, -1), created.Add(2*time.Minute), func(tk *task.Task) {
		require.NoError(t, tk.Extend(task.IncrementBy(15*60, ""), created, time.UTC))
	})
	cet := time.FixedZone("CET", 3600)
	handler := queries.NewExportTasksHandler(repo, cet)

	entries, err := handler.Handle(context.Background(), queries.ExportTasksQuery{UserID: user})

	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "late shift", entries[0].Title)
	assert.Equal(t, time.Date(2023, 12, 31, 8, 0, 0, 0, time.UTC), entries[0].Start.UTC())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), entries[0].End.UTC())
	assert.Equal(t, "first", entries[1].Title)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), entries[1].Start.UTC())
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), entries[1].End.UTC())
	assert.Equal(t, "second", entries[2].Title)

	_, err = handler.Handle(context.Background(), queries.ExportTasksQuery{UserID: user, Statuses: []string{"done"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

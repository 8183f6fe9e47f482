package persistence_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/felixgeelhaar/tempo/internal/tracking/infrastructure/persistence"
)

var (
	jan1     = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	created  = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	deadline = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
)

func openSQLRepo(t *testing.T) (*persistence.SQLTaskRepository, database.Connection) {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "tempo.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = migrations.Run(ctx, conn)
	require.NoError(t, err)
	return persistence.NewSQLTaskRepository(conn), conn
}

func repositories(t *testing.T) map[string]task.Repository {
	sqlRepo, _ := openSQLRepo(t)
	return map[string]task.Repository{
		"sqlite": sqlRepo,
		"memory": persistence.NewMemoryTaskRepository(),
	}
}

func newTask(t *testing.T, userID uuid.UUID, title string, date time.Time, at time.Time) *task.Task {
	t.Helper()
	reminder := 10
	tk, err := task.NewTask(task.NewTaskParams{
		UserID:          userID,
		Title:           title,
		Description:     "quarterly numbers",
		Priority:        "High",
		ScheduledDate:   date,
		StartTime:       "09:00",
		EndTime:         "10:00",
		MotivationText:  "coffee after",
		RewardInfo:      "one episode",
		Reminder:        &reminder,
		Repeat:          "weekly",
		VoicePreference: true,
	}, at)
	require.NoError(t, err)
	return tk
}

func TestTaskRepository_SaveAndFind(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()
			tk := newTask(t, user, "Write report", jan1, created)
			require.NoError(t, tk.Extend(task.IncrementBy(15, "stuck on intro"), deadline.Add(-5*time.Minute), time.UTC))
			require.NoError(t, tk.Extend(task.StopwatchStart("call ran long"), deadline, time.UTC))

			require.NoError(t, repo.Save(ctx, tk))
			assert.Equal(t, 1, tk.Version())

			found, err := repo.FindByID(ctx, tk.ID(), user)
			require.NoError(t, err)
			assert.Equal(t, tk.Snapshot(), found.Snapshot())
			assert.Empty(t, found.DomainEvents())
		})
	}
}

func TestTaskRepository_EventLogSurvivesLifecycle(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()
			tk := newTask(t, user, "Write report", jan1, created)
			require.NoError(t, repo.Save(ctx, tk))

			loaded, err := repo.FindByID(ctx, tk.ID(), user)
			require.NoError(t, err)
			require.NoError(t, loaded.Complete(deadline.Add(3*time.Minute), time.UTC))
			require.NoError(t, repo.Save(ctx, loaded))

			loaded, err = repo.FindByID(ctx, tk.ID(), user)
			require.NoError(t, err)
			assert.Equal(t, 2, loaded.Version())
			assert.Equal(t, task.StatusCompleted, loaded.Status())
			assert.Equal(t, 100, loaded.EarnedPoints())
			require.NotNil(t, loaded.CompletedAt())
			assert.Equal(t, deadline.Add(3*time.Minute), *loaded.CompletedAt())

			entries := loaded.EventLog().Entries()
			require.Len(t, entries, 2)
			assert.Equal(t, task.EventCreated, entries[0].Type)
			assert.Equal(t, task.EventCompletedOnTime, entries[1].Type)
			require.NotNil(t, entries[1].Details.EarnedPoints)
			assert.Equal(t, 100, *entries[1].Details.EarnedPoints)
		})
	}
}

func TestTaskRepository_StaleWriteIsRejected(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()
			tk := newTask(t, user, "Write report", jan1, created)
			require.NoError(t, repo.Save(ctx, tk))

			first, err := repo.FindByID(ctx, tk.ID(), user)
			require.NoError(t, err)
			second, err := repo.FindByID(ctx, tk.ID(), user)
			require.NoError(t, err)

			require.NoError(t, first.Complete(deadline, time.UTC))
			require.NoError(t, second.Backlog(deadline))

			require.NoError(t, repo.Save(ctx, first))
			err = repo.Save(ctx, second)
			assert.ErrorIs(t, err, task.ErrConcurrentModification)
			assert.ErrorIs(t, err, domain.ErrConflict)

			stored, err := repo.FindByID(ctx, tk.ID(), user)
			require.NoError(t, err)
			assert.Equal(t, task.StatusCompleted, stored.Status())
		})
	}
}

func TestTaskRepository_ScopedByOwner(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			owner, other := uuid.New(), uuid.New()
			tk := newTask(t, owner, "Write report", jan1, created)
			require.NoError(t, repo.Save(ctx, tk))

			_, err := repo.FindByID(ctx, tk.ID(), other)
			assert.ErrorIs(t, err, task.ErrTaskNotFound)

			assert.ErrorIs(t, repo.Delete(ctx, tk.ID(), other), task.ErrTaskNotFound)

			list, err := repo.FindAll(ctx, other, task.Filter{})
			require.NoError(t, err)
			assert.Empty(t, list)

			require.NoError(t, repo.Delete(ctx, tk.ID(), owner))
			_, err = repo.FindByID(ctx, tk.ID(), owner)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.ErrorIs(t, repo.Delete(ctx, tk.ID(), owner), task.ErrTaskNotFound)
		})
	}
}

func TestTaskRepository_FindAllFilters(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()

			early := newTask(t, user, "early", jan1, created)
			mid := newTask(t, user, "mid", jan1.AddDate(0, 0, 5), created.Add(time.Minute))
			late := newTask(t, user, "late", jan1.AddDate(0, 0, 20), created.Add(2*time.Minute))
			require.NoError(t, mid.Backlog(created.Add(time.Hour)))
			for _, tk := range []*task.Task{early, mid, late} {
				require.NoError(t, repo.Save(ctx, tk))
			}

			all, err := repo.FindAll(ctx, user, task.Filter{})
			require.NoError(t, err)
			assert.Equal(t, []string{"late", "mid", "early"}, titles(all))

			active, err := repo.FindAll(ctx, user, task.Filter{Statuses: []task.Status{task.StatusActive}})
			require.NoError(t, err)
			assert.Equal(t, []string{"late", "early"}, titles(active))

			both, err := repo.FindAll(ctx, user, task.Filter{Statuses: []task.Status{task.StatusActive, task.StatusBacklog}})
			require.NoError(t, err)
			assert.Len(t, both, 3)

			from, to := jan1.AddDate(0, 0, 1), jan1.AddDate(0, 0, 10)
			window, err := repo.FindAll(ctx, user, task.Filter{ScheduledFrom: &from, ScheduledTo: &to})
			require.NoError(t, err)
			assert.Equal(t, []string{"mid"}, titles(window))
		})
	}
}

func TestTaskRepository_Summarize(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()

			onTime := newTask(t, user, "on time", jan1, created)
			require.NoError(t, onTime.Complete(deadline, time.UTC))
			late := newTask(t, user, "late", jan1, created)
			require.NoError(t, late.Complete(deadline.Add(36*time.Minute), time.UTC))
			open := newTask(t, user, "open", jan1, created)
			old := newTask(t, user, "old", jan1, created.AddDate(0, -2, 0))
			require.NoError(t, old.Complete(deadline, time.UTC))
			for _, tk := range []*task.Task{onTime, late, open, old} {
				require.NoError(t, repo.Save(ctx, tk))
			}
			require.NoError(t, repo.Save(ctx, newTask(t, uuid.New(), "someone else", jan1, created)))

			summary, err := repo.Summarize(ctx, user, created.AddDate(0, 0, -7))
			require.NoError(t, err)

			assert.Equal(t, []task.StatusSummary{
				{Status: task.StatusActive, Count: 1, TotalPoints: 0, AvgPoints: 0},
				{Status: task.StatusCompleted, Count: 2, TotalPoints: 190, AvgPoints: 95},
			}, summary.ByStatus)
			assert.Equal(t, []task.CompletionCount{
				{Type: task.EventCompletedOnTime, Count: 1},
				{Type: task.EventCompletedWithExtension, Count: 1},
			}, summary.Completions)

			empty, err := repo.Summarize(ctx, uuid.New(), time.Time{})
			require.NoError(t, err)
			assert.Empty(t, empty.ByStatus)
			assert.Empty(t, empty.Completions)
		})
	}
}

func TestSQLTaskRepository_SaveJoinsTransaction(t *testing.T) {
	repo, conn := openSQLRepo(t)
	user := uuid.New()
	tk := newTask(t, user, "Write report", jan1, created)

	uow := database.NewUnitOfWork(conn)
	ctx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tk))
	require.NoError(t, uow.Rollback(ctx))

	_, err = repo.FindByID(context.Background(), tk.ID(), user)
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func titles(tasks []*task.Task) []string {
	out := make([]string, len(tasks))
	for i, tk := range tasks {
		out[i] = tk.Title()
	}
	return out
}

package commands_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tempo/internal/shared/application"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/commands"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/felixgeelhaar/tempo/internal/tracking/infrastructure/persistence"
)

type harness struct {
	clock      *domain.FixedClock
	tasks      task.Repository
	outbox     outbox.Repository
	create     *commands.CreateTaskHandler
	update     *commands.UpdateTaskHandler
	extend     *commands.ExtendTaskHandler
	complete   *commands.CompleteTaskHandler
	backlog    *commands.BacklogTaskHandler
	reactivate *commands.ReactivateTaskHandler
	remove     *commands.DeleteTaskHandler
	spawn      *commands.SpawnNextOccurrenceHandler
}

func newHarness(tasks task.Repository, ob outbox.Repository, uow application.UnitOfWork) *harness {
	clock := domain.NewFixedClock(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	return &harness{
		clock:      clock,
		tasks:      tasks,
		outbox:     ob,
		create:     commands.NewCreateTaskHandler(tasks, ob, uow, clock),
		update:     commands.NewUpdateTaskHandler(tasks, ob, uow, clock),
		extend:     commands.NewExtendTaskHandler(tasks, ob, uow, clock, time.UTC),
		complete:   commands.NewCompleteTaskHandler(tasks, ob, uow, clock, time.UTC),
		backlog:    commands.NewBacklogTaskHandler(tasks, ob, uow, clock),
		reactivate: commands.NewReactivateTaskHandler(tasks, ob, uow, clock),
		remove:     commands.NewDeleteTaskHandler(tasks, ob, uow, clock),
		spawn:      commands.NewSpawnNextOccurrenceHandler(tasks, ob, uow, clock),
	}
}

func memoryHarness() (*harness, *outbox.MemoryRepository) {
	ob := outbox.NewMemoryRepository()
	return newHarness(persistence.NewMemoryTaskRepository(), ob, application.NoopUnitOfWork{}), ob
}

func sqliteHarness(t *testing.T) (*harness, outbox.Repository) {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "tempo.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_, err = migrations.Run(ctx, conn)
	require.NoError(t, err)

	ob := outbox.NewSQLRepository(conn)
	return newHarness(persistence.NewSQLTaskRepository(conn), ob, database.NewUnitOfWork(conn)), ob
}

func createReport(t *testing.T, h *harness, userID uuid.UUID, repeat string) *task.Task {
	t.Helper()
	tk, err := h.create.Handle(context.Background(), commands.CreateTaskCommand{
		UserID:        userID,
		Title:         "Write report",
		Priority:      "High",
		ScheduledDate: "2024-01-01",
		StartTime:     "09:00",
		EndTime:       "10:00",
		Repeat:        repeat,
	})
	require.NoError(t, err)
	return tk
}

func routingKeys(msgs []*outbox.Message) []string {
	keys := make([]string, len(msgs))
	for i, m := range msgs {
		keys[i] = m.RoutingKey
	}
	return keys
}

func TestLifecycle_FullFlow(t *testing.T) {
	h, ob := memoryHarness()
	ctx := context.Background()
	user := uuid.New()

	tk := createReport(t, h, user, "")
	assert.Equal(t, 100, tk.BasePoints())
	assert.Equal(t, 1, tk.Version())

	h.clock.Set(time.Date(2024, 1, 1, 9, 50, 0, 0, time.UTC))
	tk, err := h.extend.Handle(ctx, commands.ExtendTaskCommand{
		TaskID: tk.ID(), UserID: user, ExtensionType: "increment", Minutes: 15, UserNotes: "stuck on intro",
	})
	require.NoError(t, err)
	assert.Equal(t, "10:15", tk.EndTime())

	h.clock.Set(time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC))
	tk, err = h.complete.Handle(ctx, commands.CompleteTaskCommand{TaskID: tk.ID(), UserID: user})
	require.NoError(t, err)
	assert.Equal(t, 100, tk.EarnedPoints())
	assert.Equal(t, 0, tk.Streak())

	tk, err = h.reactivate.Handle(ctx, commands.ReactivateTaskCommand{TaskID: tk.ID(), UserID: user})
	require.NoError(t, err)
	tk, err = h.backlog.Handle(ctx, commands.BacklogTaskCommand{TaskID: tk.ID(), UserID: user})
	require.NoError(t, err)

	stored, err := h.tasks.FindByID(ctx, tk.ID(), user)
	require.NoError(t, err)
	assert.Equal(t, task.StatusBacklog, stored.Status())
	assert.Equal(t, 5, stored.EventLog().Len())

	require.NoError(t, h.remove.Handle(ctx, commands.DeleteTaskCommand{TaskID: tk.ID(), UserID: user}))
	_, err = h.tasks.FindByID(ctx, tk.ID(), user)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{
		task.RoutingKeyCreated,
		task.RoutingKeyExtended,
		task.RoutingKeyCompleted,
		task.RoutingKeyReactivated,
		task.RoutingKeyBacklogged,
		task.RoutingKeyDeleted,
	}, routingKeys(ob.Messages()))
}

func TestCreateTask_Validation(t *testing.T) {
	h, ob := memoryHarness()

	tests := []struct {
		name string
		cmd  commands.CreateTaskCommand
	}{
		{"missing title", commands.CreateTaskCommand{Priority: "Low", ScheduledDate: "2024-01-01", StartTime: "09:00", EndTime: "10:00"}},
		{"missing date", commands.CreateTaskCommand{Title: "x", Priority: "Low", StartTime: "09:00", EndTime: "10:00"}},
		{"malformed date", commands.CreateTaskCommand{Title: "x", Priority: "Low", ScheduledDate: "01/02/2024", StartTime: "09:00", EndTime: "10:00"}},
		{"bad time", commands.CreateTaskCommand{Title: "x", Priority: "Low", ScheduledDate: "2024-01-01", StartTime: "9am", EndTime: "10:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.create.Handle(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Empty(t, ob.Messages())
}

func TestUpdateTask_RecomputesPointsWithoutLogEntry(t *testing.T) {
	h, ob := memoryHarness()
	ctx := context.Background()
	user := uuid.New()
	tk := createReport(t, h, user, "")

	low, date := "Low", "2024-01-03"
	updated, err := h.update.Handle(ctx, commands.UpdateTaskCommand{
		TaskID: tk.ID(), UserID: user, Priority: &low, ScheduledDate: &date,
	})

	require.NoError(t, err)
	assert.Equal(t, 25, updated.BasePoints())
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), updated.ScheduledDate())
	assert.Equal(t, 1, updated.EventLog().Len())
	assert.Equal(t, []string{task.RoutingKeyCreated, task.RoutingKeyUpdated}, routingKeys(ob.Messages()))

	bad := "someday"
	_, err = h.update.Handle(ctx, commands.UpdateTaskCommand{TaskID: tk.ID(), UserID: user, ScheduledDate: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExtendTask_Requests(t *testing.T) {
	h, _ := memoryHarness()
	ctx := context.Background()
	user := uuid.New()
	tk := createReport(t, h, user, "")

	_, err := h.extend.Handle(ctx, commands.ExtendTaskCommand{TaskID: tk.ID(), UserID: user, ExtensionType: "snooze"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.extend.Handle(ctx, commands.ExtendTaskCommand{TaskID: tk.ID(), UserID: user, ExtensionType: "deadline", Deadline: "tomorrow"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.extend.Handle(ctx, commands.ExtendTaskCommand{TaskID: tk.ID(), UserID: user, ExtensionType: "deadline", Deadline: "2024-01-01T09:30:00Z"})
	assert.ErrorIs(t, err, task.ErrDeadlineNotLater)

	got, err := h.extend.Handle(ctx, commands.ExtendTaskCommand{TaskID: tk.ID(), UserID: user, ExtensionType: "deadline", Deadline: "2024-01-01T11:30:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "11:30", got.EndTime())
	assert.Equal(t, (90 * time.Minute).Milliseconds(), got.TotalDelayMs())

	got, err = h.extend.Handle(ctx, commands.ExtendTaskCommand{TaskID: tk.ID(), UserID: user, ExtensionType: "stopwatch_start"})
	require.NoError(t, err)
	assert.NotNil(t, got.DelaySessionStart())

	_, err = h.extend.Handle(ctx, commands.ExtendTaskCommand{TaskID: tk.ID(), UserID: user, ExtensionType: "stopwatch_start"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCommands_OtherUsersTaskIsNotFound(t *testing.T) {
	h, _ := memoryHarness()
	ctx := context.Background()
	tk := createReport(t, h, uuid.New(), "")
	stranger := uuid.New()

	_, err := h.complete.Handle(ctx, commands.CompleteTaskCommand{TaskID: tk.ID(), UserID: stranger})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = h.remove.Handle(ctx, commands.DeleteTaskCommand{TaskID: tk.ID(), UserID: stranger})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSpawnNextOccurrence(t *testing.T) {
	h, ob := memoryHarness()
	ctx := context.Background()
	user := uuid.New()

	tk := createReport(t, h, user, "daily")
	next, err := h.spawn.Handle(ctx, commands.SpawnNextOccurrenceCommand{TaskID: tk.ID(), UserID: user})
	require.NoError(t, err)
	assert.Nil(t, next, "active tasks do not spawn")

	_, err = h.complete.Handle(ctx, commands.CompleteTaskCommand{TaskID: tk.ID(), UserID: user})
	require.NoError(t, err)

	next, err = h.spawn.Handle(ctx, commands.SpawnNextOccurrenceCommand{TaskID: tk.ID(), UserID: user})
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), next.ScheduledDate())
	assert.Equal(t, task.StatusActive, next.Status())

	again, err := h.spawn.Handle(ctx, commands.SpawnNextOccurrenceCommand{TaskID: tk.ID(), UserID: user})
	require.NoError(t, err)
	assert.Nil(t, again, "redelivery does not duplicate the occurrence")

	all, err := h.tasks.FindAll(ctx, user, task.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 3, len(ob.Messages()))

	once := createReport(t, h, user, "")
	_, err = h.complete.Handle(ctx, commands.CompleteTaskCommand{TaskID: once.ID(), UserID: user})
	require.NoError(t, err)
	next, err = h.spawn.Handle(ctx, commands.SpawnNextOccurrenceCommand{TaskID: once.ID(), UserID: user})
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestLifecycle_SQLiteCommitsTaskAndOutboxTogether(t *testing.T) {
	h, ob := sqliteHarness(t)
	ctx := context.Background()
	user := uuid.New()
	tk := createReport(t, h, user, "")

	h.clock.Set(time.Date(2024, 1, 1, 10, 36, 0, 0, time.UTC))
	done, err := h.complete.Handle(ctx, commands.CompleteTaskCommand{TaskID: tk.ID(), UserID: user})
	require.NoError(t, err)
	assert.Equal(t, 90, done.EarnedPoints())

	_, err = h.backlog.Handle(ctx, commands.BacklogTaskCommand{TaskID: tk.ID(), UserID: user})
	assert.ErrorIs(t, err, domain.ErrConflict)

	pending, err := ob.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)
}

func TestLifecycle_ConcurrentCompleteAndBacklog(t *testing.T) {
	h, _ := sqliteHarness(t)
	ctx := context.Background()
	user := uuid.New()
	tk := createReport(t, h, user, "")
	h.clock.Set(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = h.complete.Handle(ctx, commands.CompleteTaskCommand{TaskID: tk.ID(), UserID: user})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = h.backlog.Handle(ctx, commands.BacklogTaskCommand{TaskID: tk.ID(), UserID: user})
	}()
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			failures++
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.Equal(t, 1, failures, "exactly one transition wins")

	stored, err := h.tasks.FindByID(ctx, tk.ID(), user)
	require.NoError(t, err)
	entries := stored.EventLog().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, task.EventCreated, entries[0].Type)
	if errs[0] == nil {
		assert.Equal(t, task.StatusCompleted, stored.Status())
		assert.Equal(t, task.EventCompletedOnTime, entries[1].Type)
	} else {
		assert.Equal(t, task.StatusBacklog, stored.Status())
		assert.Equal(t, task.EventBacklogged, entries[1].Type)
	}
	assert.Equal(t, 2, stored.Version())
}

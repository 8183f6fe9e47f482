package cli

import (
	"context"
	"time"

	"github.com/felixgeelhaar/tempo/internal/tracking/application/commands"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
	"github.com/felixgeelhaar/tempo/internal/tracking/infrastructure/calendar"
	"github.com/felixgeelhaar/tempo/pkg/observability"
	"github.com/google/uuid"
)

// Runtime is the part of the process lifecycle commands can drive.
type Runtime interface {
	// Migrate applies pending schema migrations and returns their versions.
	Migrate(ctx context.Context) ([]string, error)
	// DeliverPending hands staged events to the publisher.
	DeliverPending(ctx context.Context)
}

// HealthChecker probes the application's dependencies.
type HealthChecker interface {
	Check(ctx context.Context) observability.HealthReport
}

// CalendarPusher writes exported tasks to a remote calendar.
type CalendarPusher interface {
	Push(ctx context.Context, entries []queries.CalendarEntry) (calendar.PushResult, error)
}

// App holds the CLI application dependencies.
type App struct {
	// Task Command Handlers
	CreateTaskHandler     *commands.CreateTaskHandler
	UpdateTaskHandler     *commands.UpdateTaskHandler
	ExtendTaskHandler     *commands.ExtendTaskHandler
	CompleteTaskHandler   *commands.CompleteTaskHandler
	BacklogTaskHandler    *commands.BacklogTaskHandler
	ReactivateTaskHandler *commands.ReactivateTaskHandler
	DeleteTaskHandler     *commands.DeleteTaskHandler

	// Task Query Handlers
	GetTaskHandler     *queries.GetTaskHandler
	ListTasksHandler   *queries.ListTasksHandler
	GetStatsHandler    *queries.GetStatsHandler
	ExportTasksHandler *queries.ExportTasksHandler

	// CalendarPusher is nil when no CalDAV server is configured.
	CalendarPusher CalendarPusher

	Runtime Runtime
	Health  HealthChecker

	CurrentUserID uuid.UUID
	Location      *time.Location
	Now           func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// Today returns the current date in the user's location as YYYY-MM-DD.
func (a *App) Today() string {
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	return a.now().In(loc).Format("2006-01-02")
}

// CurrentTime returns the application clock's current instant.
func (a *App) CurrentTime() time.Time {
	return a.now()
}

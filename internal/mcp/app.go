package mcp

import (
	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	cliApp := &cli.App{
		CreateTaskHandler:     container.CreateTaskHandler,
		UpdateTaskHandler:     container.UpdateTaskHandler,
		ExtendTaskHandler:     container.ExtendTaskHandler,
		CompleteTaskHandler:   container.CompleteTaskHandler,
		BacklogTaskHandler:    container.BacklogTaskHandler,
		ReactivateTaskHandler: container.ReactivateTaskHandler,
		DeleteTaskHandler:     container.DeleteTaskHandler,
		GetTaskHandler:        container.GetTaskHandler,
		ListTasksHandler:      container.ListTasksHandler,
		GetStatsHandler:       container.GetStatsHandler,
		ExportTasksHandler:    container.ExportTasksHandler,
		Runtime:               container,
		Health:                container.Health,
		CurrentUserID:         container.UserID,
		Location:              container.Location,
		Now:                   container.Clock.Now,
	}

	if container.CalDAVPusher != nil {
		cliApp.CalendarPusher = container.CalDAVPusher
	}

	return cliApp
}

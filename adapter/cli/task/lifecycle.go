package task

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/commands"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
)

type transitionFunc func(ctx context.Context, app *cli.App, taskID uuid.UUID) (*task.Task, error)

func newTransitionCmd(use, short, long, verb string, aliases []string, run transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <task-id>",
		Short:   short,
		Long:    long,
		Aliases: aliases,
		Args:    cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			t, err := run(cmd.Context(), app, taskID)
			if err != nil {
				return err
			}
			return renderTask(cmd, app, t, verb)
		},
	}
}

func newCompleteCmd() *cobra.Command {
	return newTransitionCmd("complete", "Complete a task and score it",
		`Mark an active task complete now.

Finishing within five minutes of the deadline earns full points, and
without extensions it also grows your streak. Every full thirty minutes
late costs ten percent of the points, up to ninety percent.

Examples:
  tempo task complete 550e8400-e29b-41d4-a716-446655440000`,
		"Completed", []string{"done"},
		func(ctx context.Context, app *cli.App, taskID uuid.UUID) (*task.Task, error) {
			return app.CompleteTaskHandler.Handle(ctx, commands.CompleteTaskCommand{TaskID: taskID, UserID: app.CurrentUserID})
		})
}

func newBacklogCmd() *cobra.Command {
	return newTransitionCmd("backlog", "Move an active task to the backlog",
		`Park an active task. Any running stopwatch is discarded and the streak resets.

Examples:
  tempo task backlog 550e8400-e29b-41d4-a716-446655440000`,
		"Backlogged", []string{"park"},
		func(ctx context.Context, app *cli.App, taskID uuid.UUID) (*task.Task, error) {
			return app.BacklogTaskHandler.Handle(ctx, commands.BacklogTaskCommand{TaskID: taskID, UserID: app.CurrentUserID})
		})
}

func newReactivateCmd() *cobra.Command {
	return newTransitionCmd("reactivate", "Return a completed or backlogged task to active",
		`Reactivate a task. Earned points and the reward are reset.

Examples:
  tempo task reactivate 550e8400-e29b-41d4-a716-446655440000`,
		"Reactivated", []string{"reopen"},
		func(ctx context.Context, app *cli.App, taskID uuid.UUID) (*task.Task, error) {
			return app.ReactivateTaskHandler.Handle(ctx, commands.ReactivateTaskCommand{TaskID: taskID, UserID: app.CurrentUserID})
		})
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Long: `Permanently delete a task in any status.

Examples:
  tempo task delete 550e8400-e29b-41d4-a716-446655440000`,
		Aliases: []string{"rm"},
		Args:    cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if err := app.DeleteTaskHandler.Handle(cmd.Context(), commands.DeleteTaskCommand{TaskID: taskID, UserID: app.CurrentUserID}); err != nil {
				return err
			}
			result := map[string]string{"deleted": taskID.String()}
			return cli.Render(cmd.OutOrStdout(), result, func(w io.Writer) error {
				fmt.Fprintf(w, "Deleted: %s\n", taskID)
				return nil
			})
		},
	}
}

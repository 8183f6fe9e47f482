package task

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show task details and history",
		Long: `Display a task with its points, extensions and full event log.

Examples:
  tempo task show 550e8400-e29b-41d4-a716-446655440000`,
		Aliases: []string{"get", "view"},
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

			dto, err := app.GetTaskHandler.Handle(cmd.Context(), queries.GetTaskQuery{
				TaskID: taskID,
				UserID: app.CurrentUserID,
			})
			if err != nil {
				return err
			}

			return cli.Render(cmd.OutOrStdout(), dto, func(w io.Writer) error {
				cli.PrintTaskDetail(w, *dto)
				return nil
			})
		},
	}
}

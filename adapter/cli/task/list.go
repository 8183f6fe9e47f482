package task

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
)

func newListCmd() *cobra.Command {
	var (
		statuses []string
		date     string
		today    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks, most recently created first.

Filter Options:
  --status   active, completed or backlog (repeatable or comma separated)
  --date     tasks within a week either side of YYYY-MM-DD
  --today    shorthand for --date with today's date

Examples:
  tempo task list
  tempo task list --status active,backlog
  tempo task list --today -o json`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}

			query := queries.ListTasksQuery{
				UserID:   app.CurrentUserID,
				Statuses: splitStatuses(statuses),
				Date:     date,
			}
			if today {
				query.Date = app.Today()
			}

			tasks, err := app.ListTasksHandler.Handle(cmd.Context(), query)
			if err != nil {
				return err
			}
			if tasks == nil {
				tasks = []queries.TaskDTO{}
			}

			return cli.Render(cmd.OutOrStdout(), tasks, func(w io.Writer) error {
				if len(tasks) == 0 {
					fmt.Fprintln(w, "No tasks found.")
					return nil
				}
				for i, t := range tasks {
					if i > 0 {
						fmt.Fprintln(w)
					}
					cli.PrintTask(w, t)
				}
				fmt.Fprintf(w, "\n%d task(s)\n", len(tasks))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "filter by status")
	cmd.Flags().StringVar(&date, "date", "", "center date YYYY-MM-DD")
	cmd.Flags().BoolVar(&today, "today", false, "center the window on today")

	return cmd
}

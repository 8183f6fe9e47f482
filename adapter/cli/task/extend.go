package task

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/commands"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
)

func newExtendCmd() *cobra.Command {
	var (
		minutes   int
		deadline  string
		stopwatch bool
		notes     string
	)

	cmd := &cobra.Command{
		Use:   "extend <task-id>",
		Short: "Extend an active task",
		Long: `Give an active task more time. Exactly one of:

  --minutes N      push the end time back by N minutes
  --deadline TS    move the deadline to an RFC 3339 timestamp
  --stopwatch      start timing the overrun; it is added when you complete

Extending breaks the on-time streak for this completion.

Examples:
  tempo task extend 550e8400-e29b-41d4-a716-446655440000 --minutes 15 --notes "review ran long"
  tempo task extend 550e8400-e29b-41d4-a716-446655440000 --deadline 2024-01-01T11:30:00Z
  tempo task extend 550e8400-e29b-41d4-a716-446655440000 --stopwatch`,
		Args: cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			extend := commands.ExtendTaskCommand{
				TaskID:    taskID,
				UserID:    app.CurrentUserID,
				Minutes:   minutes,
				Deadline:  deadline,
				UserNotes: notes,
			}

			flags := cmd.Flags()
			chosen := 0
			if flags.Changed("minutes") {
				extend.ExtensionType = string(task.ExtensionIncrement)
				chosen++
			}
			if flags.Changed("deadline") {
				extend.ExtensionType = string(task.ExtensionDeadline)
				chosen++
			}
			if stopwatch {
				extend.ExtensionType = string(task.ExtensionStopwatchStart)
				chosen++
			}
			if chosen != 1 {
				return domain.NewValidationError("pass exactly one of --minutes, --deadline or --stopwatch")
			}

			t, err := app.ExtendTaskHandler.Handle(cmd.Context(), extend)
			if err != nil {
				return err
			}
			return renderTask(cmd, app, t, "Extended")
		},
	}

	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "minutes to add to the end time (at most 30 days)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "new deadline (RFC 3339, seconds are dropped)")
	cmd.Flags().BoolVar(&stopwatch, "stopwatch", false, "start the overrun stopwatch")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "why the extension was needed")

	return cmd
}

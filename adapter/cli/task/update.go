package task

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/commands"
)

func newUpdateCmd() *cobra.Command {
	var (
		title, description, priority, date, start, end string
		motivation, reward, repeat                     string
		reminder                                       int
		clearReminder, voice                           bool
	)

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Edit a task's details",
		Long: `Change task fields without touching its status, points or history.
Only the flags you pass are updated.

Examples:
  tempo task update 550e8400-e29b-41d4-a716-446655440000 --title "Write final report"
  tempo task update 550e8400-e29b-41d4-a716-446655440000 --priority High --end 11:00
  tempo task update 550e8400-e29b-41d4-a716-446655440000 --clear-reminder`,
		Aliases: []string{"edit"},
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

			flags := cmd.Flags()
			update := commands.UpdateTaskCommand{
				TaskID:        taskID,
				UserID:        app.CurrentUserID,
				ClearReminder: clearReminder,
			}
			optional := []struct {
				flag  string
				value *string
				dst   **string
			}{
				{"title", &title, &update.Title},
				{"description", &description, &update.Description},
				{"priority", &priority, &update.Priority},
				{"date", &date, &update.ScheduledDate},
				{"start", &start, &update.StartTime},
				{"end", &end, &update.EndTime},
				{"motivation", &motivation, &update.MotivationText},
				{"reward", &reward, &update.RewardInfo},
				{"repeat", &repeat, &update.Repeat},
			}
			for _, o := range optional {
				if flags.Changed(o.flag) {
					*o.dst = o.value
				}
			}
			if flags.Changed("reminder") {
				if clearReminder {
					return domain.NewValidationError("--reminder and --clear-reminder are mutually exclusive")
				}
				update.Reminder = &reminder
			}
			if flags.Changed("voice") {
				update.VoicePreference = &voice
			}

			t, err := app.UpdateTaskHandler.Handle(cmd.Context(), update)
			if err != nil {
				return err
			}
			return renderTask(cmd, app, t, "Updated")
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "High, Medium or Low")
	cmd.Flags().StringVarP(&date, "date", "d", "", "scheduled date YYYY-MM-DD")
	cmd.Flags().StringVarP(&start, "start", "s", "", "start time HH:mm")
	cmd.Flags().StringVarP(&end, "end", "e", "", "end time HH:mm")
	cmd.Flags().StringVar(&motivation, "motivation", "", "why this task matters")
	cmd.Flags().StringVar(&reward, "reward", "", "reward to unlock on completion")
	cmd.Flags().StringVarP(&repeat, "repeat", "r", "", "none, daily, weekly or monthly")
	cmd.Flags().IntVar(&reminder, "reminder", 0, "reminder in minutes before start")
	cmd.Flags().BoolVar(&clearReminder, "clear-reminder", false, "remove the reminder")
	cmd.Flags().BoolVar(&voice, "voice", false, "prefer voice reminders")

	return cmd
}

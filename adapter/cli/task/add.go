package task

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/commands"
)

func newAddCmd() *cobra.Command {
	var (
		date        string
		start       string
		end         string
		priority    string
		description string
		motivation  string
		reward      string
		repeat      string
		reminder    int
		voice       bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a time-boxed task",
		Long: `Create a task scheduled between --start and --end on --date.

High, Medium and Low priority tasks are worth 100, 50 and 25 points.

Examples:
  tempo task add "Write report" --start 09:00 --end 10:00 --priority High
  tempo task add "Standup" --start 09:30 --end 09:45 --repeat daily
  tempo task add "Gym" --date 2024-03-01 --start 18:00 --end 19:00 --reminder 15`,
		Aliases: []string{"create", "new"},
		Args:    cli.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}

			create := commands.CreateTaskCommand{
				UserID:          app.CurrentUserID,
				Title:           strings.Join(args, " "),
				Description:     description,
				Priority:        priority,
				ScheduledDate:   date,
				StartTime:       start,
				EndTime:         end,
				MotivationText:  motivation,
				RewardInfo:      reward,
				Repeat:          repeat,
				VoicePreference: voice,
			}
			if create.ScheduledDate == "" {
				create.ScheduledDate = app.Today()
			}
			if cmd.Flags().Changed("reminder") {
				create.Reminder = &reminder
			}

			t, err := app.CreateTaskHandler.Handle(cmd.Context(), create)
			if err != nil {
				return err
			}
			return renderTask(cmd, app, t, "Created")
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "scheduled date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&start, "start", "s", "", "start time HH:mm")
	cmd.Flags().StringVarP(&end, "end", "e", "", "end time HH:mm (the deadline)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "Medium", "High, Medium or Low")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&motivation, "motivation", "", "why this task matters")
	cmd.Flags().StringVar(&reward, "reward", "", "reward to unlock on completion")
	cmd.Flags().StringVarP(&repeat, "repeat", "r", "none", "none, daily, weekly or monthly")
	cmd.Flags().IntVar(&reminder, "reminder", 0, "reminder in minutes before start")
	cmd.Flags().BoolVar(&voice, "voice", false, "prefer voice reminders")

	return cmd
}

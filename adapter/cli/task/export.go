package task

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
	"github.com/felixgeelhaar/tempo/internal/tracking/infrastructure/calendar"
)

func newExportCmd() *cobra.Command {
	var (
		format   string
		file     string
		statuses []string
		date     string
		caldav   bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as calendar events",
		Long: `Export tasks as iCalendar events, or push them to the configured
CalDAV calendar.

Tasks that end before they start are treated as ending after midnight.

Examples:
  tempo task export > tempo.ics
  tempo task export --status active --file week.ics
  tempo task export --format json
  tempo task export --caldav`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}

			entries, err := app.ExportTasksHandler.Handle(cmd.Context(), queries.ExportTasksQuery{
				UserID:   app.CurrentUserID,
				Statuses: splitStatuses(statuses),
				Date:     date,
			})
			if err != nil {
				return err
			}

			if caldav {
				if app.CalendarPusher == nil {
					return domain.NewValidationError("no CalDAV server configured; set CALDAV_URL")
				}
				result, err := app.CalendarPusher.Push(cmd.Context(), entries)
				if err != nil {
					return err
				}
				return cli.Render(cmd.OutOrStdout(), result, func(w io.Writer) error {
					fmt.Fprintf(w, "Pushed %d task(s): %d created, %d updated, %d deleted, %d failed\n",
						len(entries), result.Created, result.Updated, result.Deleted, result.Failed)
					return nil
				})
			}

			out := cmd.OutOrStdout()
			if file != "" {
				f, err := security.CreateFile(file)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			if entries == nil {
				entries = []queries.CalendarEntry{}
			}
			switch strings.ToLower(format) {
			case "ics", "ical":
				if err := calendar.Encode(out, entries, app.CurrentTime()); err != nil {
					return err
				}
			case string(cli.FormatJSON), string(cli.FormatYAML):
				if err := cli.RenderAs(out, cli.Format(strings.ToLower(format)), entries, nil); err != nil {
					return err
				}
			default:
				return domain.NewValidationError(fmt.Sprintf("--format must be ics, json or yaml, got %q", format))
			}

			if file != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) to %s\n", len(entries), file)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "ics", "ics, json or yaml")
	cmd.Flags().StringVar(&file, "file", "", "write to a file instead of stdout")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "filter by status")
	cmd.Flags().StringVar(&date, "date", "", "center date YYYY-MM-DD")
	cmd.Flags().BoolVar(&caldav, "caldav", false, "push to the configured CalDAV calendar")

	return cmd
}

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
)

func newStatsCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show points and completion statistics",
		Long: `Summarise tasks created within a period: count, total and average
earned points per status, and how many completions were on time.

Examples:
  tempo stats                  # last 7 days
  tempo stats --period month   # last 30 days
  tempo stats --period all -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := RequireApp()
			if err != nil {
				return err
			}
			stats, err := a.GetStatsHandler.Handle(cmd.Context(), queries.GetStatsQuery{
				UserID: a.CurrentUserID,
				Period: period,
			})
			if err != nil {
				return err
			}
			return Render(cmd.OutOrStdout(), stats, func(w io.Writer) error {
				printStats(w, stats)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "week", "week, month or all")
	return cmd
}

func printStats(w io.Writer, stats *queries.StatsDTO) {
	fmt.Fprintf(w, "Stats (%s", stats.Period)
	if !stats.Since.IsZero() {
		fmt.Fprintf(w, " since %s", stats.Since.Format("2006-01-02"))
	}
	fmt.Fprintln(w, ")")
	fmt.Fprintln(w, strings.Repeat("-", 48))

	if len(stats.Summary) == 0 {
		fmt.Fprintln(w, "No tasks in this period.")
		return
	}
	fmt.Fprintf(w, "%-10s %6s %8s %8s\n", "STATUS", "TASKS", "POINTS", "AVG")
	for _, s := range stats.Summary {
		fmt.Fprintf(w, "%-10s %6d %8d %8.1f\n", s.Status, s.Count, s.TotalPoints, s.AvgPoints)
	}
	if len(stats.CompletionBreakdown) > 0 {
		fmt.Fprintln(w)
		for _, c := range stats.CompletionBreakdown {
			fmt.Fprintf(w, "%-26s %d\n", strings.ReplaceAll(c.Type, "_", " "), c.Count)
		}
	}
}

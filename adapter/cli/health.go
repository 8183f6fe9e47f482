package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/pkg/observability"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database, cache and broker connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := RequireApp()
			if err != nil {
				return err
			}
			if a.Health == nil {
				return domain.NewInternalError(fmt.Errorf("no health checks registered"))
			}

			report := a.Health.Check(cmd.Context())
			if err := Render(cmd.OutOrStdout(), report, func(w io.Writer) error {
				printHealth(w, report)
				return nil
			}); err != nil {
				return err
			}
			if report.Status == observability.HealthStatusUnhealthy {
				return domain.NewInternalError(fmt.Errorf("health check failed"))
			}
			return nil
		},
	}
}

func printHealth(w io.Writer, report observability.HealthReport) {
	fmt.Fprintf(w, "status: %s\n", report.Status)
	names := make([]string, 0, len(report.Checks))
	for name := range report.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		check := report.Checks[name]
		fmt.Fprintf(w, "  %-18s %-9s %dms", name, check.Status, check.DurationMs)
		if check.Error != "" {
			fmt.Fprintf(w, "  %s", check.Error)
		}
		fmt.Fprintln(w)
	}
}

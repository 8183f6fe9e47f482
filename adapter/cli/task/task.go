package task

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
)

// NewCmd builds the task command group.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  `Create, extend, complete and review your time-boxed tasks.`,
	}

	cmd.AddCommand(
		newAddCmd(),
		newListCmd(),
		newShowCmd(),
		newUpdateCmd(),
		newExtendCmd(),
		newCompleteCmd(),
		newBacklogCmd(),
		newReactivateCmd(),
		newDeleteCmd(),
		newExportCmd(),
	)
	return cmd
}

func parseTaskID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(fmt.Sprintf("invalid task id %q", s))
	}
	return id, nil
}

// renderTask prints the task after a mutation, prefixed by verb in text mode.
func renderTask(cmd *cobra.Command, app *cli.App, t *task.Task, verb string) error {
	dto := queries.ToTaskDTO(t, app.Location)
	return cli.Render(cmd.OutOrStdout(), dto, func(w io.Writer) error {
		fmt.Fprintf(w, "%s: %s\n", verb, dto.Title)
		cli.PrintTask(w, dto)
		return nil
	})
}

// splitStatuses accepts repeated and comma separated --status values.
func splitStatuses(values []string) []string {
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

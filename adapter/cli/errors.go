package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitInternal   = 1
	ExitValidation = 2
	ExitNotFound   = 3
	ExitConflict   = 4
)

// ErrNotInitialized is returned by commands that need storage when the
// application could not be built.
var ErrNotInitialized = errors.New("tempo is not initialized: storage is unavailable")

// ExitCode maps an error to the process exit code for its kind.
func ExitCode(err error) int {
	switch domain.KindOf(err) {
	case "":
		return ExitOK
	case domain.KindValidation:
		return ExitValidation
	case domain.KindNotFound:
		return ExitNotFound
	case domain.KindConflict:
		return ExitConflict
	default:
		return ExitInternal
	}
}

// RequireApp returns the application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// ExactArgs is cobra.ExactArgs reporting a validation error.
func ExactArgs(n int) cobra.PositionalArgs {
	return usageArgs(cobra.ExactArgs(n))
}

// MinimumNArgs is cobra.MinimumNArgs reporting a validation error.
func MinimumNArgs(n int) cobra.PositionalArgs {
	return usageArgs(cobra.MinimumNArgs(n))
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return domain.NewValidationError(err.Error())
		}
		return nil
	}
}

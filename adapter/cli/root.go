package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/pkg/observability"
)

// Bootstrapper builds the application for a config file path. The returned
// function releases its resources.
type Bootstrapper func(ctx context.Context, configPath string) (*App, func(), error)

// AnnotationNoApp marks commands that build their own runtime or need none.
const AnnotationNoApp = "tempo/no-app"

var (
	cfgFile      string
	outputFormat string
	verbose      bool
	logger       *slog.Logger
	bootstrap    Bootstrapper
	cleanup      func()
)

type commandContext struct {
	startedAt time.Time
}

type commandContextKey struct{}

// NewRootCmd builds the tempo command tree with the given subcommands.
func NewRootCmd(subcommands ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{
		Use:   "tempo",
		Short: "Tempo - time-boxed tasks with points and streaks",
		Long: `Tempo tracks time-boxed tasks. Finishing on time earns the full points
and grows your streak; extensions are recorded, and late finishes cost points.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: preRun,
		PersistentPostRun: postRun,
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml, toml or json)")
	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", string(FormatText), "output format: text, json or yaml")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return domain.NewValidationError(err.Error())
	})

	root.AddCommand(newVersionCmd(), newMigrateCmd(), newStatsCmd(), newHealthCmd())
	root.AddCommand(subcommands...)
	return root
}

func preRun(cmd *cobra.Command, _ []string) error {
	if _, err := parseFormat(outputFormat); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = observability.NewRequestContext(ctx, "")
	ctx = context.WithValue(ctx, commandContextKey{}, commandContext{startedAt: time.Now()})
	cmd.SetContext(ctx)

	if verbose {
		log().DebugContext(ctx, "command start", "command", cmd.CommandPath())
	}

	if cmd.Annotations[AnnotationNoApp] != "" || app != nil || bootstrap == nil {
		return nil
	}
	a, done, err := bootstrap(ctx, cfgFile)
	if err != nil {
		return err
	}
	SetApp(a)
	cleanup = done
	return nil
}

func postRun(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	if a := GetApp(); a != nil && a.Runtime != nil && cmd.Annotations[AnnotationNoApp] == "" {
		a.Runtime.DeliverPending(ctx)
	}
	if info, ok := ctx.Value(commandContextKey{}).(commandContext); ok && verbose {
		log().DebugContext(ctx, "command end",
			"command", cmd.CommandPath(),
			observability.DurationKey, time.Since(info.startedAt).Milliseconds(),
		)
	}
}

// Execute runs root and returns the process exit code.
func Execute(ctx context.Context, root *cobra.Command) int {
	err := root.ExecuteContext(ctx)
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
	if err == nil {
		return ExitOK
	}

	if domain.KindOf(err) == domain.KindInternal {
		log().ErrorContext(ctx, "command failed", "error", err, "cause", errors.Unwrap(err))
	}
	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	return ExitCode(err)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// SetBootstrap installs the function that builds the application on first use.
func SetBootstrap(b Bootstrapper) {
	bootstrap = b
}

// ConfigPath returns the --config value.
func ConfigPath() string {
	return cfgFile
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verbose
}

func log() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

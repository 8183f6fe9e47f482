package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	"github.com/felixgeelhaar/tempo/internal/app"
	mcpinternal "github.com/felixgeelhaar/tempo/internal/mcp"
	"github.com/felixgeelhaar/tempo/pkg/config"
	"github.com/felixgeelhaar/tempo/pkg/observability"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Serve the task tools, resources and prompts over streamable HTTP.

Set MCP_AUTH_TOKEN to require a bearer token.

Examples:
  tempo mcp serve
  tempo mcp serve --addr 127.0.0.1:9000`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{cli.AnnotationNoApp: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadFile(cli.ConfigPath())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if addr != "" {
				cfg.MCPAddr = addr
			}

			logger := newServerLogger(cmd.ErrOrStderr(), cfg.IsDevelopment() || cli.Verbose())

			container, err := app.NewContainer(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer container.Close()

			if cfg.OutboxProcessorEnabled {
				if err := container.OutboxProcessor.Start(ctx); err != nil {
					return err
				}
			}

			err = mcpinternal.Serve(ctx, cfg, mcpinternal.NewCLIApp(container), logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default MCP_ADDR)")
	return cmd
}

func newServerLogger(out io.Writer, debug bool) *slog.Logger {
	level := observability.LogLevelInfo
	if debug {
		level = observability.LogLevelDebug
	}
	return observability.NewLogger(observability.LogConfig{
		Level:          level,
		Format:         observability.LogFormatText,
		Output:         out,
		ServiceName:    "tempo-mcp",
		ServiceVersion: cli.Version,
	})
}

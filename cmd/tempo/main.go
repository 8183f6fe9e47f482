package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/tempo/adapter/cli"
	climcp "github.com/felixgeelhaar/tempo/adapter/cli/mcp"
	"github.com/felixgeelhaar/tempo/adapter/cli/task"
	"github.com/felixgeelhaar/tempo/internal/app"
	"github.com/felixgeelhaar/tempo/internal/mcp"
	"github.com/felixgeelhaar/tempo/pkg/config"
	"github.com/felixgeelhaar/tempo/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetLogger(observability.LoggerFromEnv("tempo"))
	cli.SetBootstrap(bootstrap)

	root := cli.NewRootCmd(task.NewCmd(), climcp.NewCmd())
	code := cli.Execute(ctx, root)
	stop()
	os.Exit(code)
}

// bootstrap loads configuration and opens storage on the first command that needs it.
func bootstrap(ctx context.Context, configPath string) (*cli.App, func(), error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := newLogger(cfg)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return mcp.NewCLIApp(container), container.Close, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logCfg := observability.DefaultLogConfig()
	if cfg.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	logCfg.Level = observability.LogLevel(cfg.LogLevel)
	logCfg.Format = observability.LogFormat(cfg.LogFormat)
	logCfg.ServiceVersion = cli.Version
	if cli.Verbose() {
		logCfg.Level = observability.LogLevelDebug
	}
	return observability.NewLogger(logCfg)
}

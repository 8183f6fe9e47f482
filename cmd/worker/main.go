package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/tempo/internal/app"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tempo/pkg/config"
	"github.com/felixgeelhaar/tempo/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv("tempo-worker")
	logger.Info("starting tempo worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if err := run(ctx, container); err != nil {
		logger.Error("worker stopped with error", "error", err)
		container.Close()
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, c *app.Container) error {
	logger := c.Logger
	cfg := c.Config
	processor := c.OutboxProcessor

	c.Health.Register("outbox_processor", func(context.Context) error {
		if !processor.IsRunning() {
			return errors.New("outbox processor is not running")
		}
		return nil
	}, false)

	scheduler, err := newScheduler(ctx, &jobs{container: c, logger: logger})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if err := processor.Start(ctx); err != nil {
		return fmt.Errorf("start outbox processor: %w", err)
	}
	defer processor.Stop()

	if cfg.RabbitMQURL != "" {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    cfg.RabbitMQURL,
			Logger: logger,
		}, c.Consumers)
		if err != nil {
			return fmt.Errorf("connect consumer: %w", err)
		}
		defer consumer.Close()

		g.Go(func() error {
			err := consumer.Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("RABBITMQ_URL not set, consumers run in-process with the outbox processor")
	}

	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(c.Health, processor),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down worker")
		return nil
	})

	return g.Wait()
}

func healthMux(health *observability.HealthRegistry, processor *outbox.Processor) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", observability.LivenessHandler())
	mux.Handle("/readyz", health.ReadinessHandler())
	mux.HandleFunc("/statz", func(w http.ResponseWriter, r *http.Request) {
		stats := processor.GetStats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"published_by_key":  stats.PublishedByKey,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"lag_seconds":       stats.LagSeconds,
			"oldest_message_at": stats.OldestMessageAt,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})
	return mux
}

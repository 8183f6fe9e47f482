package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	sharedApplication "github.com/felixgeelhaar/tempo/internal/shared/application"
	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/commands"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/consumers"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/felixgeelhaar/tempo/internal/tracking/infrastructure/calendar"
	"github.com/felixgeelhaar/tempo/internal/tracking/infrastructure/persistence"
	"github.com/felixgeelhaar/tempo/pkg/config"
	"github.com/felixgeelhaar/tempo/pkg/observability"
)

const statsCacheNamespace = "tempo:"

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Clock    domain.Clock
	Location *time.Location
	UserID   uuid.UUID

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	TaskRepo   task.Repository
	OutboxRepo outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork
	StatsCache cache.Cache

	// Events
	Consumers       *eventbus.ConsumerRegistry
	EventPublisher  eventbus.Publisher
	OutboxProcessor *outbox.Processor

	Health *observability.HealthRegistry

	// Task Command Handlers
	CreateTaskHandler          *commands.CreateTaskHandler
	UpdateTaskHandler          *commands.UpdateTaskHandler
	ExtendTaskHandler          *commands.ExtendTaskHandler
	CompleteTaskHandler        *commands.CompleteTaskHandler
	BacklogTaskHandler         *commands.BacklogTaskHandler
	ReactivateTaskHandler      *commands.ReactivateTaskHandler
	DeleteTaskHandler          *commands.DeleteTaskHandler
	SpawnNextOccurrenceHandler *commands.SpawnNextOccurrenceHandler

	// Task Query Handlers
	GetTaskHandler     *queries.GetTaskHandler
	ListTasksHandler   *queries.ListTasksHandler
	GetStatsHandler    *queries.GetStatsHandler
	ExportTasksHandler *queries.ExportTasksHandler

	// CalDAVPusher is nil unless CALDAV_URL is set.
	CalDAVPusher *calendar.CalDAVPusher
}

// NewContainer connects to the configured database, cache and broker and
// wires every handler. SQLite databases are migrated on open; PostgreSQL
// schemas are migrated with `tempo migrate`.
//
// Redis and RabbitMQ are optional. Without RABBITMQ_URL the outbox is
// delivered to the in-process bus, so consumers run inside the calling process.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	c, err := newBase(cfg, logger, opts)
	if err != nil {
		return nil, err
	}

	driver, err := database.ParseDriver(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     driver,
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	logger.Info("connected to database", "driver", c.DBDriver)

	if c.DBDriver == database.DriverSQLite {
		if _, err := c.Migrate(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}

	c.TaskRepo = persistence.NewSQLTaskRepository(conn)
	c.OutboxRepo = outbox.NewSQLRepository(conn)
	c.UnitOfWork = database.NewUnitOfWork(conn)
	c.Health.Register("database", conn.Ping, true)

	if err := c.connectCache(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.connectPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.wire(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewInMemoryContainer wires the same handlers over in-memory stores and the
// in-process bus. Nothing outlives the process.
func NewInMemoryContainer(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	c, err := newBase(cfg, logger, opts)
	if err != nil {
		return nil, err
	}
	c.TaskRepo = persistence.NewMemoryTaskRepository()
	c.OutboxRepo = outbox.NewMemoryRepository()
	c.UnitOfWork = sharedApplication.NoopUnitOfWork{}
	c.StatsCache = cache.NewMemory()
	c.EventPublisher = eventbus.NewInProcessEventBus(c.Consumers, logger)

	if err := c.wire(); err != nil {
		return nil, err
	}
	return c, nil
}

// Option adjusts a container before its handlers are wired.
type Option func(*Container)

// WithClock replaces the system clock.
func WithClock(clock domain.Clock) Option {
	return func(c *Container) { c.Clock = clock }
}

func newBase(cfg *config.Config, logger *slog.Logger, opts []Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	userID, err := cfg.UserUUID()
	if err != nil {
		return nil, err
	}
	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Clock:     domain.SystemClock{},
		Location:  loc,
		UserID:    userID,
		Consumers: eventbus.NewConsumerRegistry(logger),
		Health:    observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Migrate applies pending schema migrations.
func (c *Container) Migrate(ctx context.Context) ([]string, error) {
	if c.DBConn == nil {
		return nil, errors.New("no database connection")
	}
	applied, err := migrations.Run(ctx, c.DBConn)
	if err != nil {
		return applied, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		c.Logger.Info("applied migrations", "versions", applied)
	}
	return applied, nil
}

func (c *Container) connectCache(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		c.StatsCache = cache.NewMemory()
		return nil
	}

	client, err := cache.Dial(ctx, c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, stats cache will use in-memory fallback", "error", err)
		c.StatsCache = cache.NewMemory()
		return nil
	}

	c.RedisClient = client
	c.StatsCache = cache.NewRedis(client, statsCacheNamespace)
	c.Health.Register("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, false)
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) connectPublisher() error {
	if c.Config.RabbitMQURL == "" {
		c.EventPublisher = eventbus.NewInProcessEventBus(c.Consumers, c.Logger)
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, delivering events in-process", "error", err)
		c.EventPublisher = eventbus.NewInProcessEventBus(c.Consumers, c.Logger)
		return nil
	}

	breaker := eventbus.NewBreakerPublisher(publisher, eventbus.DefaultBreakerConfig(), c.Logger)
	c.EventPublisher = breaker
	c.Health.Register("rabbitmq", func(context.Context) error {
		if breaker.State() == gobreaker.StateOpen {
			return errors.New("publisher circuit open")
		}
		return nil
	}, false)
	return nil
}

func (c *Container) wire() error {
	repo, outboxRepo, uow, clock, loc := c.TaskRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Location

	c.CreateTaskHandler = commands.NewCreateTaskHandler(repo, outboxRepo, uow, clock)
	c.UpdateTaskHandler = commands.NewUpdateTaskHandler(repo, outboxRepo, uow, clock)
	c.ExtendTaskHandler = commands.NewExtendTaskHandler(repo, outboxRepo, uow, clock, loc)
	c.CompleteTaskHandler = commands.NewCompleteTaskHandler(repo, outboxRepo, uow, clock, loc)
	c.BacklogTaskHandler = commands.NewBacklogTaskHandler(repo, outboxRepo, uow, clock)
	c.ReactivateTaskHandler = commands.NewReactivateTaskHandler(repo, outboxRepo, uow, clock)
	c.DeleteTaskHandler = commands.NewDeleteTaskHandler(repo, outboxRepo, uow, clock)
	c.SpawnNextOccurrenceHandler = commands.NewSpawnNextOccurrenceHandler(repo, outboxRepo, uow, clock)

	c.GetTaskHandler = queries.NewGetTaskHandler(repo, loc)
	c.ListTasksHandler = queries.NewListTasksHandler(repo, loc)
	c.GetStatsHandler = queries.NewGetStatsHandler(repo, c.StatsCache, c.Config.StatsCacheTTL, clock, c.Logger)
	c.ExportTasksHandler = queries.NewExportTasksHandler(repo, loc)

	c.Consumers.Register(consumers.NewStatsInvalidator(c.StatsCache, c.Logger))
	c.Consumers.Register(consumers.NewRecurrenceConsumer(c.SpawnNextOccurrenceHandler, c.Logger))

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, c.processorConfig(), c.Logger)

	if c.Config.HasCalDAV() {
		pusher, err := calendar.NewCalDAVPusher(calendar.CalDAVConfig{
			URL:           c.Config.CalDAVURL,
			Username:      c.Config.CalDAVUsername,
			Password:      c.Config.CalDAVPassword,
			CalendarPath:  c.Config.CalDAVCalendarPath,
			DeleteMissing: c.Config.CalDAVDeleteMissing,
		}, c.Logger)
		if err != nil {
			return err
		}
		c.CalDAVPusher = pusher
	}

	c.Logger.Debug("container wired",
		"consumers", c.Consumers.ConsumerCount(),
		"routing_keys", c.Consumers.RoutingKeys(),
	)
	return nil
}

func (c *Container) processorConfig() outbox.ProcessorConfig {
	pc := outbox.DefaultProcessorConfig()
	if c.Config.OutboxPollInterval > 0 {
		pc.PollInterval = c.Config.OutboxPollInterval
	}
	if c.Config.OutboxBatchSize > 0 {
		pc.BatchSize = c.Config.OutboxBatchSize
	}
	if c.Config.OutboxMaxRetries > 0 {
		pc.MaxRetries = c.Config.OutboxMaxRetries
	}
	return pc
}

// DeliverPending publishes whatever the last command staged, including the
// follow-up events consumers stage in turn. Short-lived processes call it
// before exiting; failures stay in the outbox for the worker.
func (c *Container) DeliverPending(ctx context.Context) {
	d, err := c.OutboxProcessor.Flush(ctx)
	if err != nil {
		c.Logger.WarnContext(ctx, "outbox delivery failed, messages stay queued", "error", err)
		return
	}
	if d.Retrying > 0 || d.DeadLettered > 0 {
		c.Logger.WarnContext(ctx, "some events were not delivered",
			"published", d.Total(),
			"retrying", d.Retrying,
			"dead_lettered", d.DeadLettered,
		)
		return
	}
	if d.Total() > 0 {
		c.Logger.DebugContext(ctx, "events delivered", "published", d.Published)
	}
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Debug("database connection closed", "driver", c.DBDriver)
		}
	}
}

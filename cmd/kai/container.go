package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"kai/internal/assistant"
	"kai/internal/config"
	kerrors "kai/internal/errors"
	"kai/internal/logging"
	"kai/internal/notification"
	"kai/internal/observability"
)

// Container holds the wired runtime shared by every command.
type Container struct {
	Config        config.Config
	Logger        *observability.Logger
	Metrics       *observability.MetricsCollector
	Tracer        *observability.TracerProvider
	Store         notification.Store
	Notifications *notification.Service
	Assistant     *assistant.Assistant
	Tools         *assistant.ToolRegistry

	closers []func(context.Context) error
}

type containerOptions struct {
	logOutput io.Writer
	// quiet raises the log level to warn for interactive commands.
	quiet     bool
	now       func() time.Time
}

// BuildContainer wires logging, telemetry, storage and the assistant from cfg.
func BuildContainer(ctx context.Context, cfg config.Config, opts containerOptions) (*Container, error) {
	output := opts.logOutput
	if output == nil {
		output = os.Stderr
	}
	level := cfg.Observability.Logging.Level
	if opts.quiet && observability.ParseLevel(level) < observability.ParseLevel("warn") {
		level = "warn"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  level,
		Format: cfg.Observability.Logging.Format,
		Output: output,
	})
	logging.SetDefault(logger)

	c := &Container{Config: cfg, Logger: logger}

	metrics, err := observability.NewMetricsCollector(cfg.Observability.Metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	c.Metrics = metrics
	c.closers = append(c.closers, metrics.Shutdown)

	tracer, err := observability.NewTracerProvider(cfg.Observability.Tracing)
	if err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	c.Tracer = tracer
	c.closers = append(c.closers, tracer.Shutdown)

	store, err := c.openStore(ctx, cfg.Store)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	if cfg.Store.RetryAttempts > 1 {
		retry := kerrors.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Store.RetryAttempts
		store = notification.NewRetryingStore(store, retry)
	}
	c.Store = store

	delivery, err := notification.ParseDeliveryMethod(cfg.Assistant.DeliveryMethod)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.Notifications = notification.NewService(store, notification.ServiceConfig{
		MaxActivePerUser: cfg.Store.MaxActivePerUser,
		DeliveryMethod:   delivery,
	}, metrics, logging.FromObservabilityWithComponent(logger, "Notifications"))
	if opts.now != nil {
		c.Notifications.Now = opts.now
	}

	loc, err := cfg.Assistant.Location()
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.Assistant = assistant.New(c.Notifications, assistant.Config{
		ConfidenceThreshold: cfg.Assistant.ConfidenceThreshold,
		PendingTTL:          cfg.Assistant.PendingTTL,
		PendingSize:         cfg.Assistant.PendingSize,
		Location:            loc,
	}, metrics, tracer, logging.FromObservabilityWithComponent(logger, "Assistant"))
	if opts.now != nil {
		c.Assistant.Now = opts.now
	}
	c.Tools = assistant.NewToolRegistry(c.Notifications, tracer, opts.now)

	logger.Debug("container ready", "store", cfg.Store.Driver, "config_file", cfg.File)
	return c, nil
}

func (c *Container) openStore(ctx context.Context, cfg config.StoreConfig) (notification.Store, error) {
	switch cfg.Driver {
	case config.DriverFile:
		store, err := notification.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return store, nil
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		store, err := notification.NewPostgresStore(pool)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, nil
	default:
		return notification.NewMemoryStore(), nil
	}
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

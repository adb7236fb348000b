package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kai/internal/logging"
	"kai/internal/observability"
	"kai/internal/scheduler"
	serverHTTP "kai/internal/server/http"
)

func (cli *CLI) newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the notification dispatcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cli.runServe(ctx, cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :8080)")
	_ = cli.viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (cli *CLI) runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	c, err := BuildContainer(ctx, cfg, containerOptions{logOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := c.Close(shutdownCtx); err != nil {
			c.Logger.Warn("shutdown incomplete", "error", err)
		}
	}()
	logger := logging.FromObservabilityWithComponent(c.Logger, "Server")

	loc, err := cfg.Assistant.Location()
	if err != nil {
		return err
	}
	deps := serverHTTP.RouterDeps{
		Assistant:      c.Assistant,
		Notifications:  c.Notifications,
		Tools:          c.Tools,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit: serverHTTP.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimitRPS,
			Burst:             cfg.Server.RateLimitBurst,
		},
		Location:    loc,
		Metrics:     c.Metrics,
		HTTPMetrics: observability.NewHTTPMetrics(),
		Tracer:      c.Tracer,
		Logger:      logger,
	}
	if cfg.Observability.Metrics.Enabled && cfg.Observability.Metrics.PrometheusPort == 0 {
		deps.MetricsHandler = promhttp.Handler()
	}
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           serverHTTP.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	dispatchLogger := logging.FromObservabilityWithComponent(c.Logger, "Dispatcher")
	dispatcher := scheduler.New(scheduler.Config{
		Enabled:           cfg.Scheduler.Enabled,
		Schedule:          cfg.Scheduler.Schedule,
		BatchSize:         cfg.Scheduler.BatchSize,
		DispatchTimeout:   cfg.Scheduler.DispatchTimeout,
		ConcurrencyPolicy: cfg.Scheduler.ConcurrencyPolicy,
	}, c.Store, newDeliveryNotifier(cmd.OutOrStdout(), dispatchLogger), c.Metrics, c.Tracer, dispatchLogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := dispatcher.Start(gctx); err != nil {
			return err
		}
		<-dispatcher.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

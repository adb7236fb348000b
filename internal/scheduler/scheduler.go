// Package scheduler delivers due notifications on a cron-driven sweep and
// re-arms recurring ones for their next occurrence.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"kai/internal/logging"
	"kai/internal/notification"
	"kai/internal/observability"
)

// DefaultSchedule sweeps once a minute.
const DefaultSchedule = "@every 1m"

// DefaultBatchSize bounds how many due notifications one sweep handles.
const DefaultBatchSize = 100

// Config holds dispatcher configuration.
type Config struct {
	Enabled           bool
	Schedule          string        // cron expression or descriptor for the sweep
	BatchSize         int           // due notifications per sweep
	DispatchTimeout   time.Duration // per-notification notifier timeout
	ConcurrencyPolicy string        // skip | delay
}

// Dispatcher periodically hands due notifications to a Notifier.
type Dispatcher struct {
	cron     *cron.Cron
	store    notification.Store
	notifier Notifier
	metrics  *observability.MetricsCollector
	tracer   *observability.TracerProvider
	config   Config
	logger   logging.Logger

	mu       sync.Mutex
	entryID  cron.EntryID
	started  bool
	stopped  chan struct{}
	stopOnce sync.Once

	// Now returns the current time; injectable for testing.
	Now func() time.Time
}

// New creates a Dispatcher. metrics and tracer may be nil.
func New(cfg Config, store notification.Store, notifier Notifier, metrics *observability.MetricsCollector, tracer *observability.TracerProvider, logger logging.Logger) *Dispatcher {
	logger = logging.OrNop(logger)
	if strings.TrimSpace(cfg.Schedule) == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &Dispatcher{
		cron:     newCron(cfg, logger),
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		tracer:   tracer,
		config:   cfg,
		logger:   logger,
		stopped:  make(chan struct{}),
		Now:      time.Now,
	}
}

func newCron(cfg Config, logger logging.Logger) *cron.Cron {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	options := []cron.Option{cron.WithParser(parser)}
	var wrapper cron.JobWrapper
	switch policy := strings.ToLower(strings.TrimSpace(cfg.ConcurrencyPolicy)); policy {
	case "delay":
		wrapper = cron.DelayIfStillRunning(cron.DefaultLogger)
	case "skip", "":
		wrapper = cron.SkipIfStillRunning(cron.DefaultLogger)
	default:
		logger.Warn("Dispatcher: unknown concurrency policy %q, defaulting to skip", policy)
		wrapper = cron.SkipIfStillRunning(cron.DefaultLogger)
	}
	options = append(options, cron.WithChain(wrapper))
	return cron.New(options...)
}

// Start registers the sweep job and starts the cron loop. The dispatcher
// stops when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	if !d.config.Enabled {
		d.logger.Info("Dispatcher disabled by config")
		d.stopOnce.Do(func() { close(d.stopped) })
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}

	entryID, err := d.cron.AddFunc(d.config.Schedule, func() {
		if _, err := d.Sweep(context.Background()); err != nil {
			d.logger.Warn("Dispatcher: sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid dispatch schedule %q: %w", d.config.Schedule, err)
	}
	d.entryID = entryID
	d.started = true

	d.cron.Start()
	d.logger.Info("Dispatcher started (schedule=%s, batch=%d)", d.config.Schedule, d.config.BatchSize)

	go func() {
		select {
		case <-ctx.Done():
			d.Stop()
		case <-d.stopped:
		}
	}()
	return nil
}

// Stop gracefully stops the dispatcher, waiting for a running sweep. Safe to
// call multiple times.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("Dispatcher stopping...")
		stopCtx := d.cron.Stop()
		<-stopCtx.Done()
		close(d.stopped)
		d.logger.Info("Dispatcher stopped")
	})
}

// Done returns a channel that is closed when the dispatcher has fully stopped.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.stopped
}

// NextSweep reports when the cron loop will sweep next. It is zero before Start.
func (d *Dispatcher) NextSweep() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return time.Time{}
	}
	return d.cron.Entry(d.entryID).Next
}

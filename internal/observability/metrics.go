package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig configures the metrics collector
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// PrometheusPort starts a dedicated scrape server when > 0. With 0 the
	// API server exposes /metrics itself.
	PrometheusPort int `yaml:"prometheus_port" mapstructure:"prometheus_port"`
}

// MetricsCollector records reminder pipeline metrics. A zero collector is a no-op.
type MetricsCollector struct {
	parses          metric.Int64Counter
	parseLatency    metric.Float64Histogram
	parseConfidence metric.Float64Histogram

	replies         metric.Int64Counter
	pendingDrafts   metric.Int64UpDownCounter
	persisted       metric.Int64Counter
	dispatched      metric.Int64Counter
	managementCalls metric.Int64Counter

	prometheusServer *http.Server
	logger           *Logger
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(config MetricsConfig, logger *Logger) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	collector, err := newCollector(provider.Meter("kai"))
	if err != nil {
		return nil, err
	}
	collector.logger = logger

	if config.PrometheusPort > 0 {
		collector.StartPrometheusServer(config.PrometheusPort)
	}
	return collector, nil
}

func newCollector(meter metric.Meter) (*MetricsCollector, error) {
	c := &MetricsCollector{}
	var err error

	if c.parses, err = meter.Int64Counter(
		"kai.reminder.parses.total",
		metric.WithDescription("Reminder parse attempts by outcome"),
		metric.WithUnit("{parse}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create parses counter: %w", err)
	}
	if c.parseLatency, err = meter.Float64Histogram(
		"kai.reminder.parse.duration",
		metric.WithDescription("Reminder parse duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create parse latency histogram: %w", err)
	}
	if c.parseConfidence, err = meter.Float64Histogram(
		"kai.reminder.confidence",
		metric.WithDescription("Confidence of parsed reminders"),
		metric.WithExplicitBucketBoundaries(0.5, 0.6, 0.7, 0.8, 0.9, 1.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create confidence histogram: %w", err)
	}
	if c.replies, err = meter.Int64Counter(
		"kai.assistant.replies.total",
		metric.WithDescription("Assistant replies by kind"),
		metric.WithUnit("{reply}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create replies counter: %w", err)
	}
	if c.pendingDrafts, err = meter.Int64UpDownCounter(
		"kai.assistant.pending",
		metric.WithDescription("Drafts awaiting user confirmation"),
		metric.WithUnit("{draft}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create pending gauge: %w", err)
	}
	if c.persisted, err = meter.Int64Counter(
		"kai.notifications.persisted.total",
		metric.WithDescription("Scheduled notifications written to the store"),
		metric.WithUnit("{notification}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create persisted counter: %w", err)
	}
	if c.dispatched, err = meter.Int64Counter(
		"kai.notifications.dispatched.total",
		metric.WithDescription("Due notifications handed to the notifier"),
		metric.WithUnit("{notification}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create dispatched counter: %w", err)
	}
	if c.managementCalls, err = meter.Int64Counter(
		"kai.notifications.management.total",
		metric.WithDescription("List, cancel and update calls by result"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create management counter: %w", err)
	}
	return c, nil
}

// StartPrometheusServer starts a dedicated Prometheus scrape endpoint.
func (m *MetricsCollector) StartPrometheusServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	m.prometheusServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if m.logger != nil {
			m.logger.Info("prometheus metrics server listening", "port", port)
		}
		if err := m.prometheusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && m.logger != nil {
			m.logger.Error("prometheus server error", "error", err)
		}
	}()
}

// Shutdown gracefully shuts down the metrics collector
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.prometheusServer != nil {
		return m.prometheusServer.Shutdown(ctx)
	}
	return nil
}

// RecordParse records one parse attempt. Category and frequency are empty when nothing matched.
func (m *MetricsCollector) RecordParse(ctx context.Context, matched bool, category, frequency string, confidence float64, latency time.Duration) {
	if m == nil || m.parses == nil {
		return
	}
	outcome := "ignored"
	if matched {
		outcome = "reminder"
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("category", category),
		attribute.String("frequency", frequency),
	)
	m.parses.Add(ctx, 1, attrs)
	m.parseLatency.Record(ctx, latency.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
	if matched {
		m.parseConfidence.Record(ctx, confidence, metric.WithAttributes(attribute.String("category", category)))
	}
}

// RecordReply counts an assistant reply of the given kind.
func (m *MetricsCollector) RecordReply(ctx context.Context, kind string) {
	if m == nil || m.replies == nil {
		return
	}
	m.replies.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// AdjustPending moves the pending-confirmation gauge by delta.
func (m *MetricsCollector) AdjustPending(ctx context.Context, delta int64) {
	if m == nil || m.pendingDrafts == nil {
		return
	}
	m.pendingDrafts.Add(ctx, delta)
}

// RecordPersist counts a write attempt against the notification store.
func (m *MetricsCollector) RecordPersist(ctx context.Context, category string, err error) {
	if m == nil || m.persisted == nil {
		return
	}
	m.persisted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("status", statusLabel(err)),
	))
}

// RecordDispatch counts a notification handed to the notifier.
func (m *MetricsCollector) RecordDispatch(ctx context.Context, frequency string, err error) {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.Add(ctx, 1, metric.WithAttributes(
		attribute.String("frequency", frequency),
		attribute.String("status", statusLabel(err)),
	))
}

// RecordManagement counts a list, cancel or update call.
func (m *MetricsCollector) RecordManagement(ctx context.Context, operation string, err error) {
	if m == nil || m.managementCalls == nil {
		return
	}
	m.managementCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", statusLabel(err)),
	))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

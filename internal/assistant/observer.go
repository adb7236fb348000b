package assistant

import (
	"context"
	"time"

	"kai/internal/observability"
	"kai/internal/reminder"
)

// MetricsObserver forwards parse outcomes to the metrics collector.
type MetricsObserver struct {
	metrics *observability.MetricsCollector
}

// NewMetricsObserver returns nil when metrics is nil so the parser skips instrumentation.
func NewMetricsObserver(metrics *observability.MetricsCollector) reminder.Observer {
	if metrics == nil {
		return nil
	}
	return &MetricsObserver{metrics: metrics}
}

func (o *MetricsObserver) ObserveParse(result *reminder.ParsedReminder, elapsed time.Duration) {
	if result == nil {
		o.metrics.RecordParse(context.Background(), false, "", "", 0, elapsed)
		return
	}
	o.metrics.RecordParse(context.Background(), true, string(result.Category), string(result.Frequency), result.Confidence, elapsed)
}

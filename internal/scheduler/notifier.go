package scheduler

import (
	"context"
	"time"

	"kai/internal/logging"
	"kai/internal/notification"
)

// Notifier delivers a due notification over its delivery method.
type Notifier interface {
	Notify(ctx context.Context, n notification.Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n notification.Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n notification.Notification) error {
	return f(ctx, n)
}

// LogNotifier writes deliveries to the log. It stands in for push and email
// channels in local runs.
type LogNotifier struct {
	logger logging.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logging.OrNop(logger)}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, item notification.Notification) error {
	n.logger.Info("Notify [%s] %s -> %s: %s (scheduled %s)",
		item.DeliveryMethod, item.ID, item.UserID, item.Message, item.ScheduledFor.Format(time.RFC3339))
	return nil
}

// NopNotifier discards every notification.
type NopNotifier struct{}

// Notify is a no-op.
func (NopNotifier) Notify(context.Context, notification.Notification) error {
	return nil
}

package scheduler

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"kai/internal/logging"
	"kai/internal/notification"
	"kai/internal/observability"
)

// Sweep delivers every notification due at Now and returns how many were
// handed to the notifier successfully. A failed delivery leaves the record
// pending so the next sweep retries it.
func (d *Dispatcher) Sweep(ctx context.Context) (int, error) {
	ctx, span := d.tracer.StartSpan(ctx, observability.SpanDispatchSweep)
	defer span.End()

	now := d.Now()
	due, err := d.store.ListDue(ctx, now, d.config.BatchSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list due")
		return 0, fmt.Errorf("list due notifications: %w", err)
	}

	delivered := 0
	for _, n := range due {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if err := d.dispatch(ctx, n); err != nil {
			d.logger.Warn("Dispatcher: delivery of %s failed: %v", n.ID, err)
			continue
		}
		delivered++
	}
	span.SetAttributes(attribute.Int("kai.scheduler.due", len(due)), attribute.Int("kai.scheduler.delivered", delivered))
	if len(due) > 0 {
		d.logger.Info("Dispatcher: delivered %d of %d due notifications", delivered, len(due))
	}
	return delivered, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, n notification.Notification) error {
	ctx = observability.ContextWithUserID(ctx, n.UserID)
	err := d.deliver(ctx, n)
	d.metrics.RecordDispatch(ctx, string(n.Payload.Frequency), err)
	if err != nil {
		return err
	}
	return d.advance(ctx, n)
}

func (d *Dispatcher) deliver(ctx context.Context, n notification.Notification) error {
	if d.config.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.DispatchTimeout)
		defer cancel()
	}
	return d.notifier.Notify(ctx, n)
}

// advance marks a one-off notification sent, or moves a recurring one to its
// next occurrence while keeping it pending.
func (d *Dispatcher) advance(ctx context.Context, n notification.Notification) error {
	now := d.Now()
	next, recurring, err := NextOccurrence(n.Payload.Frequency, n.ScheduledFor, now)
	if err != nil {
		return err
	}
	if recurring {
		n.ScheduledFor = next
		n.Status = notification.StatusPending
	} else {
		n.Status = notification.StatusSent
	}
	n.UpdatedAt = now
	if err := d.store.Save(ctx, n); err != nil {
		return fmt.Errorf("save delivered notification: %w", err)
	}
	if recurring {
		logging.FromContext(ctx, d.logger).Debug("Dispatcher: %s rescheduled for %s", n.ID, next)
	}
	return nil
}

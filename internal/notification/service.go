package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kai/internal/id"
	"kai/internal/logging"
	"kai/internal/observability"
	"kai/internal/reminder"
)

// DefaultMaxActivePerUser caps pending reminders per user.
const DefaultMaxActivePerUser = 50

// ServiceConfig tunes Service behaviour.
type ServiceConfig struct {
	MaxActivePerUser int
	DeliveryMethod   DeliveryMethod
}

// Service creates notifications from parse results and applies owner-scoped
// management operations to them.
type Service struct {
	store   Store
	config  ServiceConfig
	metrics *observability.MetricsCollector
	logger  logging.Logger

	// Now returns the current time; injectable for testing.
	Now func() time.Time
	// NewID issues record identifiers; injectable for testing.
	NewID func() string
}

// NewService builds a Service over store. metrics may be nil.
func NewService(store Store, config ServiceConfig, metrics *observability.MetricsCollector, logger logging.Logger) *Service {
	if config.MaxActivePerUser == 0 {
		config.MaxActivePerUser = DefaultMaxActivePerUser
	}
	if config.DeliveryMethod == "" {
		config.DeliveryMethod = DeliveryPush
	}
	return &Service{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logging.OrNop(logger),
		Now:     time.Now,
		NewID:   id.NewNotificationID,
	}
}

// Create persists parsed as a pending notification owned by userID.
func (s *Service) Create(ctx context.Context, userID string, parsed *reminder.ParsedReminder, originalText string) (Notification, error) {
	if parsed == nil {
		return Notification{}, fmt.Errorf("%w: nothing to schedule", ErrInvalid)
	}
	n, err := s.create(ctx, userID, parsed, originalText)
	s.metrics.RecordPersist(ctx, string(parsed.Category), err)
	if err != nil {
		return Notification{}, err
	}
	logging.FromContext(ctx, s.logger).Info("scheduled notification %s for %s (%s, %s)",
		n.ID, n.ScheduledFor.Format(time.RFC3339), n.Payload.Frequency, n.Category)
	return n, nil
}

func (s *Service) create(ctx context.Context, userID string, parsed *reminder.ParsedReminder, originalText string) (Notification, error) {
	if s.config.MaxActivePerUser > 0 {
		existing, err := s.store.ListByUser(ctx, userID)
		if err != nil {
			return Notification{}, fmt.Errorf("count active reminders: %w", err)
		}
		if countPending(existing) >= s.config.MaxActivePerUser {
			return Notification{}, fmt.Errorf("%w: %d", ErrLimitReached, s.config.MaxActivePerUser)
		}
	}

	n := FromParsed(s.NewID(), userID, parsed, originalText, s.config.DeliveryMethod, s.Now())
	if err := n.Validate(); err != nil {
		return Notification{}, err
	}
	if err := s.store.Save(ctx, n); err != nil {
		return Notification{}, fmt.Errorf("save notification: %w", err)
	}
	return n, nil
}

// List returns the user's notifications ordered by schedule.
func (s *Service) List(ctx context.Context, userID string) ([]Notification, error) {
	list, err := s.store.ListByUser(ctx, userID)
	s.metrics.RecordManagement(ctx, "list", err)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// Get returns a notification owned by userID.
func (s *Service) Get(ctx context.Context, userID, notificationID string) (Notification, error) {
	return s.owned(ctx, userID, notificationID)
}

// Cancel hard-deletes a notification owned by userID and returns what was removed.
func (s *Service) Cancel(ctx context.Context, userID, notificationID string) (Notification, error) {
	n, err := s.cancel(ctx, userID, notificationID)
	s.metrics.RecordManagement(ctx, "cancel", err)
	if err != nil {
		return Notification{}, err
	}
	logging.FromContext(ctx, s.logger).Info("cancelled notification %s", notificationID)
	return n, nil
}

func (s *Service) cancel(ctx context.Context, userID, notificationID string) (Notification, error) {
	n, err := s.owned(ctx, userID, notificationID)
	if err != nil {
		return Notification{}, err
	}
	if err := s.store.Delete(ctx, notificationID); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// Update applies a partial update to a notification owned by userID.
func (s *Service) Update(ctx context.Context, userID, notificationID string, patch Patch) (Notification, error) {
	n, err := s.update(ctx, userID, notificationID, patch)
	s.metrics.RecordManagement(ctx, "update", err)
	if err != nil {
		return Notification{}, err
	}
	logging.FromContext(ctx, s.logger).Info("updated notification %s", notificationID)
	return n, nil
}

func (s *Service) update(ctx context.Context, userID, notificationID string, patch Patch) (Notification, error) {
	now := s.Now()
	if err := validatePatch(patch, now); err != nil {
		return Notification{}, err
	}
	n, err := s.owned(ctx, userID, notificationID)
	if err != nil {
		return Notification{}, err
	}
	n.apply(patch, now)
	if err := n.Validate(); err != nil {
		return Notification{}, err
	}
	if err := s.store.Save(ctx, n); err != nil {
		return Notification{}, fmt.Errorf("save notification: %w", err)
	}
	return n, nil
}

func (s *Service) owned(ctx context.Context, userID, notificationID string) (Notification, error) {
	if strings.TrimSpace(notificationID) == "" {
		return Notification{}, fmt.Errorf("%w: id is required", ErrInvalid)
	}
	n, err := s.store.Get(ctx, notificationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, fmt.Errorf("get notification: %w", err)
	}
	if n.UserID != userID {
		return Notification{}, ErrForbidden
	}
	return n, nil
}

func validatePatch(p Patch, now time.Time) error {
	if p.Empty() {
		return fmt.Errorf("%w: no fields to update", ErrInvalid)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalid)
	}
	if p.ScheduledFor != nil && !p.ScheduledFor.After(now) {
		return fmt.Errorf("%w: scheduledFor must be in the future", ErrInvalid)
	}
	if p.Frequency != nil && !p.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalid, *p.Frequency)
	}
	return nil
}

func countPending(list []Notification) int {
	count := 0
	for _, n := range list {
		if n.Status == StatusPending {
			count++
		}
	}
	return count
}

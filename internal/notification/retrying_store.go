package notification

import (
	"context"
	"time"

	kerrors "kai/internal/errors"
)

// RetryingStore retries transient store failures with exponential backoff.
// ErrNotFound and validation failures are returned on the first attempt.
type RetryingStore struct {
	delegate Store
	config   kerrors.RetryConfig
}

// NewRetryingStore wraps delegate. A zero config uses kerrors.DefaultRetryConfig.
func NewRetryingStore(delegate Store, config kerrors.RetryConfig) *RetryingStore {
	if config.MaxAttempts <= 0 {
		config = kerrors.DefaultRetryConfig()
	}
	return &RetryingStore{delegate: delegate, config: config}
}

func (s *RetryingStore) Save(ctx context.Context, n Notification) error {
	return kerrors.Retry(ctx, s.config, func(ctx context.Context) error {
		return s.delegate.Save(ctx, n)
	})
}

func (s *RetryingStore) Get(ctx context.Context, id string) (Notification, error) {
	return kerrors.RetryWithResult(ctx, s.config, func(ctx context.Context) (Notification, error) {
		return s.delegate.Get(ctx, id)
	})
}

func (s *RetryingStore) ListByUser(ctx context.Context, userID string) ([]Notification, error) {
	return kerrors.RetryWithResult(ctx, s.config, func(ctx context.Context) ([]Notification, error) {
		return s.delegate.ListByUser(ctx, userID)
	})
}

func (s *RetryingStore) Delete(ctx context.Context, id string) error {
	return kerrors.Retry(ctx, s.config, func(ctx context.Context) error {
		return s.delegate.Delete(ctx, id)
	})
}

func (s *RetryingStore) ListDue(ctx context.Context, now time.Time, limit int) ([]Notification, error) {
	return kerrors.RetryWithResult(ctx, s.config, func(ctx context.Context) ([]Notification, error) {
		return s.delegate.ListDue(ctx, now, limit)
	})
}

var _ Store = (*RetryingStore)(nil)

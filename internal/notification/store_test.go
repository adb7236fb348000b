package notification

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "kai/internal/errors"
)

func storeFixtures() []Notification {
	base := sampleNotification()
	later := base
	later.ID = "ntf-2"
	later.ScheduledFor = base.ScheduledFor.Add(2 * time.Hour)
	sent := base
	sent.ID = "ntf-3"
	sent.Status = StatusSent
	other := base
	other.ID = "ntf-4"
	other.UserID = "user-2"
	return []Notification{later, base, sent, other}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	for _, n := range storeFixtures() {
		require.NoError(t, store.Save(ctx, n))
	}

	got, err := store.Get(ctx, "ntf-1")
	require.NoError(t, err)
	assert.Equal(t, "Practice serves", got.Title)
	assert.True(t, got.ScheduledFor.Equal(sampleNotification().ScheduledFor))
	assert.Equal(t, "15:00", got.Payload.TimeOfDay)

	_, err = store.Get(ctx, "ntf-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := store.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "ntf-1", list[0].ID)
	assert.Equal(t, "ntf-3", list[1].ID)
	assert.Equal(t, "ntf-2", list[2].ID)

	due, err := store.ListDue(ctx, sampleNotification().ScheduledFor.Add(time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "ntf-1", due[0].ID)
	assert.Equal(t, "ntf-4", due[1].ID)

	due, err = store.ListDue(ctx, sampleNotification().ScheduledFor.Add(time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, due, 1)

	updated := got
	updated.Title = "Practice kick serves"
	require.NoError(t, store.Save(ctx, updated))
	got, err = store.Get(ctx, "ntf-1")
	require.NoError(t, err)
	assert.Equal(t, "Practice kick serves", got.Title)

	require.NoError(t, store.Delete(ctx, "ntf-1"))
	assert.ErrorIs(t, store.Delete(ctx, "ntf-1"), ErrNotFound)
	_, err = store.Get(ctx, "ntf-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "notifications"))
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Save(context.Background(), sampleNotification()))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := second.Get(context.Background(), "ntf-1")
	require.NoError(t, err)
	assert.Equal(t, sampleNotification().Payload, got.Payload)
}

func TestFileStoreRejectsUnsafeIDs(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	n := sampleNotification()
	n.ID = "../escape"
	assert.ErrorIs(t, store.Save(context.Background(), n), ErrInvalid)

	_, err = store.Get(context.Background(), "../escape")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), "a/b"), ErrNotFound)
}

func TestFileStoreSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sampleNotification()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(":\n\t- not yaml"), 0o644))

	list, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type flakyStore struct {
	*MemoryStore
	failures atomic.Int32
	calls    atomic.Int32
}

func (s *flakyStore) Save(ctx context.Context, n Notification) error {
	s.calls.Add(1)
	if s.failures.Add(-1) >= 0 {
		return errors.New("connection refused")
	}
	return s.MemoryStore.Save(ctx, n)
}

func (s *flakyStore) Get(ctx context.Context, id string) (Notification, error) {
	s.calls.Add(1)
	return s.MemoryStore.Get(ctx, id)
}

func fastRetry() kerrors.RetryConfig {
	return kerrors.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryingStoreRetriesTransientFailures(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore()}
	inner.failures.Store(2)
	store := NewRetryingStore(inner, fastRetry())

	require.NoError(t, store.Save(context.Background(), sampleNotification()))
	assert.EqualValues(t, 3, inner.calls.Load())

	got, err := store.Get(context.Background(), "ntf-1")
	require.NoError(t, err)
	assert.Equal(t, "ntf-1", got.ID)
}

func TestRetryingStoreGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore()}
	inner.failures.Store(10)
	store := NewRetryingStore(inner, fastRetry())

	assert.Error(t, store.Save(context.Background(), sampleNotification()))
	assert.EqualValues(t, 3, inner.calls.Load())
}

func TestRetryingStoreDoesNotRetryNotFound(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore()}
	store := NewRetryingStore(inner, fastRetry())

	_, err := store.Get(context.Background(), "ntf-missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, inner.calls.Load())
}

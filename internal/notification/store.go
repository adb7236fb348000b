package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists scheduled notifications.
type Store interface {
	// Save inserts or replaces the record with n.ID.
	Save(ctx context.Context, n Notification) error
	// Get returns ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (Notification, error)
	// ListByUser returns the user's records ordered by ScheduledFor.
	ListByUser(ctx context.Context, userID string) ([]Notification, error)
	// Delete hard-deletes id, returning ErrNotFound when it does not exist.
	Delete(ctx context.Context, id string) error
	// ListDue returns pending records scheduled at or before now, oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]Notification, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Notification
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Notification)}
}

func (s *MemoryStore) Save(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[n.ID] = n
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.records[id]
	if !ok {
		return Notification{}, ErrNotFound
	}
	return n, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Notification
	for _, n := range s.records {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sortBySchedule(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) ListDue(_ context.Context, now time.Time, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Notification
	for _, n := range s.records {
		if n.Status == StatusPending && !n.ScheduledFor.After(now) {
			out = append(out, n)
		}
	}
	sortBySchedule(out)
	return truncate(out, limit), nil
}

func sortBySchedule(list []Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].ScheduledFor.Equal(list[j].ScheduledFor) {
			return list[i].ID < list[j].ID
		}
		return list[i].ScheduledFor.Before(list[j].ScheduledFor)
	})
}

func truncate(list []Notification, limit int) []Notification {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

var _ Store = (*MemoryStore)(nil)

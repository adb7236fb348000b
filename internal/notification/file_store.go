package notification

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"kai/internal/logging"
)

// FileStore persists notifications as individual YAML files in a directory.
// Each record is stored as {id}.yaml.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	logger logging.Logger
}

// NewFileStore creates a FileStore backed by dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notification store dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logging.NewComponentLogger("NotificationFileStore")}, nil
}

func (s *FileStore) Save(_ context.Context, n Notification) error {
	if strings.ContainsAny(n.ID, `/\`) || n.ID == "" {
		return fmt.Errorf("%w: unsafe id %q", ErrInvalid, n.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(&n)
	if err != nil {
		return fmt.Errorf("marshal notification %s: %w", n.ID, err)
	}
	tmp := s.filePath(n.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write notification %s: %w", n.ID, err)
	}
	if err := os.Rename(tmp, s.filePath(n.ID)); err != nil {
		return fmt.Errorf("commit notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, id string) (Notification, error) {
	if strings.ContainsAny(id, `/\`) {
		return Notification{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readFile(s.filePath(id))
}

func (s *FileStore) ListByUser(_ context.Context, userID string) ([]Notification, error) {
	all, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	var out []Notification
	for _, n := range all {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sortBySchedule(out)
	return out, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	if strings.ContainsAny(id, `/\`) {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) ListDue(_ context.Context, now time.Time, limit int) ([]Notification, error) {
	all, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	var out []Notification
	for _, n := range all {
		if n.Status == StatusPending && !n.ScheduledFor.After(now) {
			out = append(out, n)
		}
	}
	sortBySchedule(out)
	return truncate(out, limit), nil
}

func (s *FileStore) loadAll() ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read notification store dir: %w", err)
	}
	var out []Notification
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		n, err := s.readFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable notification %s: %v", entry.Name(), err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *FileStore) readFile(path string) (Notification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, err
	}
	var n Notification
	if err := yaml.Unmarshal(data, &n); err != nil {
		return Notification{}, fmt.Errorf("unmarshal notification: %w", err)
	}
	return n, nil
}

func (s *FileStore) filePath(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}

var _ Store = (*FileStore)(nil)

package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"kai/internal/reminder"
)

const notificationTable = "scheduled_notifications"

// pool abstracts the subset of pgxpool.Pool used by the store for easier testing.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists notifications in Postgres.
type PostgresStore struct {
	pool pool
}

// NewPostgresStore builds a Store backed by the provided connection pool.
func NewPostgresStore(pool pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("postgres notification store requires pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the notification table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + notificationTable + ` (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    category TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'reminder',
    title TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    scheduled_for TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    delivery_method TEXT NOT NULL DEFAULT 'push',
    source TEXT NOT NULL DEFAULT 'assistant',
    payload JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_user_schedule ON %s (user_id, scheduled_for);`, notificationTable, notificationTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_due ON %s (status, scheduled_for);`, notificationTable, notificationTable),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure notification schema: %w", err)
		}
	}
	return nil
}

const selectColumns = `id, user_id, category, type, title, message, scheduled_for, status, delivery_method, source, payload, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO `+notificationTable+` (`+selectColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id)
DO UPDATE SET category = EXCLUDED.category,
              title = EXCLUDED.title,
              message = EXCLUDED.message,
              scheduled_for = EXCLUDED.scheduled_for,
              status = EXCLUDED.status,
              delivery_method = EXCLUDED.delivery_method,
              payload = EXCLUDED.payload,
              updated_at = EXCLUDED.updated_at
`, n.ID, n.UserID, string(n.Category), n.Type, n.Title, n.Message, n.ScheduledFor,
		string(n.Status), string(n.DeliveryMethod), n.Source, payload, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Notification, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM `+notificationTable+` WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM `+notificationTable+`
WHERE user_id = $1
ORDER BY scheduled_for ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return collect(rows)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+notificationTable+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListDue(ctx context.Context, now time.Time, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM `+notificationTable+`
WHERE status = $1 AND scheduled_for <= $2
ORDER BY scheduled_for ASC, id ASC
LIMIT $3`, string(StatusPending), now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Notification, error) {
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var (
		n                          Notification
		category, status, delivery string
		payload                    []byte
	)
	if err := row.Scan(&n.ID, &n.UserID, &category, &n.Type, &n.Title, &n.Message, &n.ScheduledFor,
		&status, &delivery, &n.Source, &payload, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return Notification{}, err
	}
	n.Category = reminder.Category(category)
	n.Status = Status(status)
	n.DeliveryMethod = DeliveryMethod(delivery)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &n.Payload); err != nil {
			return Notification{}, fmt.Errorf("decode payload for %s: %w", n.ID, err)
		}
	}
	return n, nil
}

var _ Store = (*PostgresStore)(nil)

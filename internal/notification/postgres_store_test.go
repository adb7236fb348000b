package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kai/internal/reminder"
)

var columns = []string{"id", "user_id", "category", "type", "title", "message", "scheduled_for", "status", "delivery_method", "source", "payload", "created_at", "updated_at"}

func sampleNotification() Notification {
	at := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return Notification{
		ID:             "ntf-1",
		UserID:         "user-1",
		Category:       reminder.CategoryTraining,
		Type:           TypeReminder,
		Title:          "Practice serves",
		Message:        "Practice serves",
		ScheduledFor:   at,
		Status:         StatusPending,
		DeliveryMethod: DeliveryPush,
		Source:         SourceAssistant,
		Payload: Payload{
			Frequency:    reminder.FrequencyCustom,
			TimeOfDay:    "15:00",
			OriginalText: "Remind me to practice serves tomorrow at 3 PM",
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func rowValues(t *testing.T, n Notification) []any {
	t.Helper()
	payload, err := json.Marshal(n.Payload)
	require.NoError(t, err)
	return []any{n.ID, n.UserID, string(n.Category), n.Type, n.Title, n.Message, n.ScheduledFor,
		string(n.Status), string(n.DeliveryMethod), n.Source, payload, n.CreatedAt, n.UpdatedAt}
}

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store, err := NewPostgresStore(pool)
	require.NoError(t, err)
	return pool, store
}

func TestNewPostgresStoreRequiresPool(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}

func TestPostgresEnsureSchema(t *testing.T) {
	pool, store := newMockStore(t)

	pool.ExpectExec("CREATE TABLE IF NOT EXISTS scheduled_notifications").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	pool.ExpectExec("CREATE INDEX IF NOT EXISTS idx_scheduled_notifications_user_schedule").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	pool.ExpectExec("CREATE INDEX IF NOT EXISTS idx_scheduled_notifications_due").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresSaveUpserts(t *testing.T) {
	pool, store := newMockStore(t)
	n := sampleNotification()

	pool.ExpectExec("INSERT INTO scheduled_notifications").
		WithArgs(rowValues(t, n)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), n))
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresSaveWrapsErrors(t *testing.T) {
	pool, store := newMockStore(t)
	pool.ExpectExec("INSERT INTO scheduled_notifications").WillReturnError(errors.New("connection reset by peer"))

	err := store.Save(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save notification")
}

func TestPostgresGet(t *testing.T) {
	pool, store := newMockStore(t)
	n := sampleNotification()

	pool.ExpectQuery("SELECT .+ FROM scheduled_notifications WHERE id = \\$1").
		WithArgs(n.ID).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(rowValues(t, n)...))

	got, err := store.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresGetMissingMapsToNotFound(t *testing.T) {
	pool, store := newMockStore(t)
	pool.ExpectQuery("SELECT .+ FROM scheduled_notifications WHERE id = \\$1").
		WithArgs("ntf-missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(context.Background(), "ntf-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresListByUser(t *testing.T) {
	pool, store := newMockStore(t)
	first := sampleNotification()
	second := sampleNotification()
	second.ID = "ntf-2"
	second.ScheduledFor = first.ScheduledFor.Add(24 * time.Hour)
	second.Payload.Frequency = reminder.FrequencyDaily

	pool.ExpectQuery("SELECT .+ WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(rowValues(t, first)...).
			AddRow(rowValues(t, second)...))

	got, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ntf-2", got[1].ID)
	assert.Equal(t, reminder.FrequencyDaily, got[1].Payload.Frequency)
}

func TestPostgresDelete(t *testing.T) {
	pool, store := newMockStore(t)

	pool.ExpectExec("DELETE FROM scheduled_notifications").WithArgs("ntf-1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	pool.ExpectExec("DELETE FROM scheduled_notifications").WithArgs("ntf-1").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, store.Delete(context.Background(), "ntf-1"))
	assert.ErrorIs(t, store.Delete(context.Background(), "ntf-1"), ErrNotFound)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresListDue(t *testing.T) {
	pool, store := newMockStore(t)
	now := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	n := sampleNotification()

	pool.ExpectQuery("WHERE status = \\$1 AND scheduled_for <= \\$2").
		WithArgs("pending", now, 100).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(rowValues(t, n)...))

	got, err := store.ListDue(context.Background(), now, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, n.ID, got[0].ID)
}

func TestPostgresScanRejectsCorruptPayload(t *testing.T) {
	pool, store := newMockStore(t)
	values := rowValues(t, sampleNotification())
	values[10] = []byte("{not json")

	pool.ExpectQuery("SELECT .+ WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(values...))

	_, err := store.ListByUser(context.Background(), "user-1")
	assert.ErrorContains(t, err, "decode payload")
}

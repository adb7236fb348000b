package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kai/internal/reminder"
)

func validNotification() Notification {
	at := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
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
		Payload:        Payload{Frequency: reminder.FrequencyCustom, TimeOfDay: "15:00"},
		CreatedAt:      serviceNow,
		UpdatedAt:      serviceNow,
	}
}

func TestParseDeliveryMethod(t *testing.T) {
	tests := []struct {
		raw     string
		want    DeliveryMethod
		wantErr bool
	}{
		{"", DeliveryPush, false},
		{"push", DeliveryPush, false},
		{" EMAIL ", DeliveryEmail, false},
		{"in_app", DeliveryInApp, false},
		{"sms", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDeliveryMethod(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotificationValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(n *Notification)
		problem string
	}{
		{"valid", func(*Notification) {}, ""},
		{"missing id", func(n *Notification) { n.ID = " " }, "id is required"},
		{"missing user", func(n *Notification) { n.UserID = "" }, "user id is required"},
		{"blank title", func(n *Notification) { n.Title = "  " }, "title is required"},
		{"unknown category", func(n *Notification) { n.Category = "CHESS" }, `invalid category "CHESS"`},
		{"unknown frequency", func(n *Notification) { n.Payload.Frequency = "HOURLY" }, `invalid frequency "HOURLY"`},
		{"zero schedule", func(n *Notification) { n.ScheduledFor = time.Time{} }, "scheduledFor is required"},
		{"unknown status", func(n *Notification) { n.Status = "archived" }, `invalid status "archived"`},
		{"empty delivery", func(n *Notification) { n.DeliveryMethod = "" }, `invalid delivery method ""`},
		{"unknown delivery", func(n *Notification) { n.DeliveryMethod = "fax" }, `invalid delivery method "fax"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNotification()
			tt.mutate(&n)
			err := n.Validate()
			if tt.problem == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestFromParsedCopiesParseResult(t *testing.T) {
	text := "Remind me to stretch every day at 7am"
	parsed := reminder.Parse(text, serviceNow)
	require.NotNil(t, parsed)

	n := FromParsed("ntf-7", "user-1", parsed, text, DeliveryEmail, serviceNow)

	require.NoError(t, n.Validate())
	assert.Equal(t, "ntf-7", n.ID)
	assert.Equal(t, "user-1", n.UserID)
	assert.Equal(t, parsed.Category, n.Category)
	assert.Equal(t, parsed.Title, n.Title)
	assert.Equal(t, parsed.Message(), n.Message)
	assert.Equal(t, parsed.ScheduledFor, n.ScheduledFor)
	assert.Equal(t, StatusPending, n.Status)
	assert.Equal(t, DeliveryEmail, n.DeliveryMethod)
	assert.Equal(t, SourceAssistant, n.Source)
	assert.Equal(t, TypeReminder, n.Type)
	assert.Equal(t, reminder.FrequencyDaily, n.Payload.Frequency)
	assert.Equal(t, "07:00", n.Payload.TimeOfDay)
	assert.Equal(t, text, n.Payload.OriginalText)
	assert.Equal(t, serviceNow, n.CreatedAt)
	assert.Equal(t, serviceNow, n.UpdatedAt)
}

func TestFromParsedPrefersDescriptionForMessage(t *testing.T) {
	parsed := &reminder.ParsedReminder{
		Title:        "Match prep",
		Description:  "pack rackets and water",
		Category:     reminder.CategoryTournaments,
		ScheduledFor: time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC),
		Frequency:    reminder.FrequencyCustom,
	}

	n := FromParsed("ntf-1", "user-1", parsed, "", DeliveryPush, serviceNow)
	assert.Equal(t, "Match prep", n.Title)
	assert.Equal(t, "pack rackets and water", n.Message)
}

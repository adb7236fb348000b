// Package notification persists parsed reminders as scheduled notifications
// and implements the owner-scoped management operations on them.
package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kai/internal/reminder"
)

// Status is the delivery state of a scheduled notification.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
)

// DeliveryMethod names the channel a notification should go out on.
type DeliveryMethod string

const (
	DeliveryPush  DeliveryMethod = "push"
	DeliveryEmail DeliveryMethod = "email"
	DeliveryInApp DeliveryMethod = "in_app"
)

// ParseDeliveryMethod validates a configured delivery method.
func ParseDeliveryMethod(raw string) (DeliveryMethod, error) {
	switch m := DeliveryMethod(strings.ToLower(strings.TrimSpace(raw))); m {
	case DeliveryPush, DeliveryEmail, DeliveryInApp:
		return m, nil
	case "":
		return DeliveryPush, nil
	default:
		return "", fmt.Errorf("unknown delivery method %q", raw)
	}
}

const (
	// TypeReminder tags every notification created from a parsed reminder.
	TypeReminder = "reminder"
	// SourceAssistant marks records created through the conversational assistant.
	SourceAssistant = "assistant"
)

var (
	ErrNotFound     = errors.New("notification not found")
	ErrForbidden    = errors.New("notification belongs to another user")
	ErrLimitReached = errors.New("active reminder limit reached")
	ErrInvalid      = errors.New("invalid notification")
)

// Payload is the opaque audit blob stored alongside a notification.
type Payload struct {
	Frequency    reminder.Frequency `json:"frequency" yaml:"frequency"`
	TimeOfDay    string             `json:"timeOfDay,omitempty" yaml:"time_of_day,omitempty"`
	OriginalText string             `json:"originalText" yaml:"original_text"`
}

// Notification is a durable scheduled notification record.
type Notification struct {
	ID             string            `json:"id" yaml:"id"`
	UserID         string            `json:"userId" yaml:"user_id"`
	Category       reminder.Category `json:"category" yaml:"category"`
	Type           string            `json:"type" yaml:"type"`
	Title          string            `json:"title" yaml:"title"`
	Message        string            `json:"message" yaml:"message"`
	ScheduledFor   time.Time         `json:"scheduledFor" yaml:"scheduled_for"`
	Status         Status            `json:"status" yaml:"status"`
	DeliveryMethod DeliveryMethod    `json:"deliveryMethod" yaml:"delivery_method"`
	Source         string            `json:"source" yaml:"source"`
	Payload        Payload           `json:"payload" yaml:"payload"`
	CreatedAt      time.Time         `json:"createdAt" yaml:"created_at"`
	UpdatedAt      time.Time         `json:"updatedAt" yaml:"updated_at"`
}

// FromParsed builds a pending notification from a parse result.
func FromParsed(notificationID, userID string, parsed *reminder.ParsedReminder, originalText string, method DeliveryMethod, now time.Time) Notification {
	return Notification{
		ID:             notificationID,
		UserID:         userID,
		Category:       parsed.Category,
		Type:           TypeReminder,
		Title:          parsed.Title,
		Message:        parsed.Message(),
		ScheduledFor:   parsed.ScheduledFor,
		Status:         StatusPending,
		DeliveryMethod: method,
		Source:         SourceAssistant,
		Payload: Payload{
			Frequency:    parsed.Frequency,
			TimeOfDay:    parsed.TimeOfDay,
			OriginalText: originalText,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the record before it is written.
func (n Notification) Validate() error {
	var problems []string
	if strings.TrimSpace(n.ID) == "" {
		problems = append(problems, "id is required")
	}
	if strings.TrimSpace(n.UserID) == "" {
		problems = append(problems, "user id is required")
	}
	if strings.TrimSpace(n.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !n.Category.Valid() {
		problems = append(problems, fmt.Sprintf("invalid category %q", n.Category))
	}
	if !n.Payload.Frequency.Valid() {
		problems = append(problems, fmt.Sprintf("invalid frequency %q", n.Payload.Frequency))
	}
	if n.ScheduledFor.IsZero() {
		problems = append(problems, "scheduledFor is required")
	}
	if n.Status != StatusPending && n.Status != StatusSent {
		problems = append(problems, fmt.Sprintf("invalid status %q", n.Status))
	}
	if _, err := ParseDeliveryMethod(string(n.DeliveryMethod)); err != nil || n.DeliveryMethod == "" {
		problems = append(problems, fmt.Sprintf("invalid delivery method %q", n.DeliveryMethod))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title        *string             `json:"title,omitempty"`
	ScheduledFor *time.Time          `json:"scheduledFor,omitempty"`
	Frequency    *reminder.Frequency `json:"frequency,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.ScheduledFor == nil && p.Frequency == nil
}

// apply mutates n. A new schedule also moves the canonical time of day and
// re-arms a notification that has already fired.
func (n *Notification) apply(p Patch, now time.Time) {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if n.Message == n.Title {
			n.Message = title
		}
		n.Title = title
	}
	if p.ScheduledFor != nil {
		n.ScheduledFor = *p.ScheduledFor
		n.Payload.TimeOfDay = reminder.FormatTimeOfDay(p.ScheduledFor.Hour(), p.ScheduledFor.Minute())
		n.Status = StatusPending
	}
	if p.Frequency != nil {
		n.Payload.Frequency = *p.Frequency
	}
	n.UpdatedAt = now
}

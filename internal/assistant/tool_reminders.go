package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kai/internal/notification"
	"kai/internal/observability"
	"kai/internal/reminder"
)

// Tool names exposed to the model.
const (
	ToolCreateReminder = "create_reminder"
	ToolListReminders  = "list_reminders"
	ToolCancelReminder = "cancel_reminder"
	ToolUpdateReminder = "update_reminder"
)

// CreateReminderSchema is the function-calling schema for a reminder.
func CreateReminderSchema() ParameterSchema {
	return ParameterSchema{
		Type: "object",
		Properties: map[string]Property{
			"title": {
				Type:        "string",
				Description: "Short imperative description of what to be reminded about.",
			},
			"scheduledFor": {
				Type:        "string",
				Format:      "date-time",
				Description: "When the reminder fires, as an ISO-8601 timestamp with offset.",
			},
			"frequency": {
				Type:        "string",
				Description: "How often the reminder repeats.",
				Enum:        enumValues(reminder.Frequencies()),
			},
			"category": {
				Type:        "string",
				Description: "Which area of the user's game the reminder belongs to.",
				Enum:        enumValues(reminder.Categories()),
			},
		},
		Required: []string{"title", "scheduledFor"},
	}
}

type createReminder struct {
	baseTool
	notifications Notifications
	now           func() time.Time
}

func newCreateReminder(notifications Notifications, now func() time.Time) *createReminder {
	return &createReminder{
		baseTool: baseTool{
			definition: ToolDefinition{
				Name:        ToolCreateReminder,
				Description: "Schedule a reminder for the user. Use when the user asks to be reminded, notified or not to forget something at a time.",
				Parameters:  CreateReminderSchema(),
			},
			metadata: ToolMetadata{
				Name:     ToolCreateReminder,
				Version:  "1.0.0",
				Category: "reminder",
				Tags:     []string{"reminder", "schedule", "create"},
			},
		},
		notifications: notifications,
		now:           now,
	}
}

func (t *createReminder) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	parsed, err := reminder.FromToolArgs(reminder.ToolArgs{
		Title:        stringArg(call.Arguments, "title"),
		ScheduledFor: stringArg(call.Arguments, "scheduledFor"),
		Frequency:    reminder.Frequency(stringArg(call.Arguments, "frequency")),
		Category:     reminder.Category(stringArg(call.Arguments, "category")),
	})
	if err != nil {
		return toolError(call.ID, "invalid reminder: %v", err)
	}
	now := t.now()
	if !parsed.ScheduledFor.After(now) {
		return toolError(call.ID, "scheduledFor must be in the future")
	}

	n, err := t.notifications.Create(ctx, observability.UserIDFromContext(ctx), parsed, parsed.Title)
	if err != nil {
		return toolError(call.ID, "%s", userMessage(err))
	}
	return &ToolResult{
		CallID:   call.ID,
		Content:  fmt.Sprintf("Reminder scheduled:\n%s", describeNotification(n, now)),
		Metadata: notificationMetadata(n),
	}, nil
}

type listReminders struct {
	baseTool
	notifications Notifications
}

func newListReminders(notifications Notifications) *listReminders {
	return &listReminders{
		baseTool: baseTool{
			definition: ToolDefinition{
				Name:        ToolListReminders,
				Description: "List the user's scheduled reminders, soonest first. Use before cancelling or editing to find the reminder id.",
				Parameters:  ParameterSchema{Type: "object", Properties: map[string]Property{}},
			},
			metadata: ToolMetadata{
				Name:     ToolListReminders,
				Version:  "1.0.0",
				Category: "reminder",
				Tags:     []string{"reminder", "list"},
			},
		},
		notifications: notifications,
	}
}

func (t *listReminders) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	list, err := t.notifications.List(ctx, observability.UserIDFromContext(ctx))
	if err != nil {
		return toolError(call.ID, "%s", userMessage(err))
	}
	pending := make([]notification.Notification, 0, len(list))
	for _, n := range list {
		if n.Status == notification.StatusPending {
			pending = append(pending, n)
		}
	}
	if len(pending) == 0 {
		return &ToolResult{CallID: call.ID, Content: "No scheduled reminders.", Metadata: map[string]any{"count": 0}}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d scheduled reminder(s):", len(pending))
	ids := make([]string, 0, len(pending))
	for _, n := range pending {
		fmt.Fprintf(&b, "\n- [%s] %s (%s, %s) at %s", n.ID, n.Title, CategoryLabel(n.Category),
			strings.ToLower(string(n.Payload.Frequency)), n.ScheduledFor.Format(time.RFC3339))
		ids = append(ids, n.ID)
	}
	return &ToolResult{
		CallID:   call.ID,
		Content:  b.String(),
		Metadata: map[string]any{"count": len(pending), "ids": ids},
	}, nil
}

type cancelReminder struct {
	baseTool
	notifications Notifications
}

func newCancelReminder(notifications Notifications) *cancelReminder {
	return &cancelReminder{
		baseTool: baseTool{
			definition: ToolDefinition{
				Name:        ToolCancelReminder,
				Description: "Cancel and delete one of the user's reminders by id. Use only when the user explicitly asks to remove it.",
				Parameters: ParameterSchema{
					Type: "object",
					Properties: map[string]Property{
						"id": {Type: "string", Description: "The reminder id (e.g. 'ntf-2ABC...')."},
					},
					Required: []string{"id"},
				},
			},
			metadata: ToolMetadata{
				Name:      ToolCancelReminder,
				Version:   "1.0.0",
				Category:  "reminder",
				Tags:      []string{"reminder", "cancel", "delete"},
				Dangerous: true,
			},
		},
		notifications: notifications,
	}
}

func (t *cancelReminder) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	id := stringArg(call.Arguments, "id")
	if id == "" {
		return toolError(call.ID, "id is required")
	}
	n, err := t.notifications.Cancel(ctx, observability.UserIDFromContext(ctx), id)
	if err != nil {
		return toolError(call.ID, "%s", managementMessage(id, err))
	}
	return &ToolResult{
		CallID:   call.ID,
		Content:  fmt.Sprintf("Reminder cancelled:\n- ID: %s\n- Title: %s", n.ID, n.Title),
		Metadata: notificationMetadata(n),
	}, nil
}

type updateReminder struct {
	baseTool
	notifications Notifications
	now           func() time.Time
}

func newUpdateReminder(notifications Notifications, now func() time.Time) *updateReminder {
	schema := CreateReminderSchema()
	delete(schema.Properties, "category")
	schema.Properties["id"] = Property{Type: "string", Description: "The reminder id to change."}
	schema.Required = []string{"id"}
	return &updateReminder{
		baseTool: baseTool{
			definition: ToolDefinition{
				Name:        ToolUpdateReminder,
				Description: "Change the title, time or frequency of one of the user's reminders. Omitted fields stay unchanged.",
				Parameters:  schema,
			},
			metadata: ToolMetadata{
				Name:     ToolUpdateReminder,
				Version:  "1.0.0",
				Category: "reminder",
				Tags:     []string{"reminder", "update", "reschedule"},
			},
		},
		notifications: notifications,
		now:           now,
	}
}

func (t *updateReminder) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	id := stringArg(call.Arguments, "id")
	if id == "" {
		return toolError(call.ID, "id is required")
	}
	patch, err := PatchFromArguments(call.Arguments)
	if err != nil {
		return toolError(call.ID, "%v", err)
	}
	n, err := t.notifications.Update(ctx, observability.UserIDFromContext(ctx), id, patch)
	if err != nil {
		return toolError(call.ID, "%s", managementMessage(id, err))
	}
	return &ToolResult{
		CallID:   call.ID,
		Content:  fmt.Sprintf("Reminder updated:\n%s", describeNotification(n, t.now())),
		Metadata: notificationMetadata(n),
	}, nil
}

// PatchFromArguments builds a partial update from title, scheduledFor and
// frequency arguments. Absent or empty arguments are left unset.
func PatchFromArguments(args map[string]any) (notification.Patch, error) {
	var patch notification.Patch
	if title := stringArg(args, "title"); title != "" {
		patch.Title = &title
	}
	if raw := stringArg(args, "scheduledFor"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return notification.Patch{}, fmt.Errorf("scheduledFor must be ISO-8601: %w", err)
		}
		patch.ScheduledFor = &at
	}
	if raw := stringArg(args, "frequency"); raw != "" {
		f, err := reminder.ParseFrequency(raw)
		if err != nil {
			return notification.Patch{}, err
		}
		patch.Frequency = &f
	}
	return patch, nil
}

func managementMessage(id string, err error) string {
	switch {
	case errors.Is(err, notification.ErrNotFound), errors.Is(err, notification.ErrForbidden):
		// Another user's reminder is reported as missing.
		return fmt.Sprintf("reminder not found: %s", id)
	case errors.Is(err, notification.ErrInvalid):
		return err.Error()
	default:
		return userMessage(err)
	}
}

func describeNotification(n notification.Notification, now time.Time) string {
	return fmt.Sprintf("- ID: %s\n- Title: %s\n- Category: %s\n- When: %s",
		n.ID, n.Title, CategoryLabel(n.Category), DescribeSchedule(n.Payload.Frequency, n.ScheduledFor, now))
}

func notificationMetadata(n notification.Notification) map[string]any {
	return map[string]any{
		"id":           n.ID,
		"title":        n.Title,
		"category":     string(n.Category),
		"frequency":    string(n.Payload.Frequency),
		"scheduledFor": n.ScheduledFor.Format(time.RFC3339),
		"status":       string(n.Status),
	}
}

package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kai/internal/notification"
	"kai/internal/observability"
	"kai/internal/reminder"
)

func newTestRegistry(t *testing.T) (*ToolRegistry, *notification.Service) {
	t.Helper()
	svc, _ := newTestService(t)
	return NewToolRegistry(svc, nil, func() time.Time { return testNow }), svc
}

func userCtx(userID string) context.Context {
	return observability.ContextWithUserID(context.Background(), userID)
}

func TestDefinitionsExposeReminderSchema(t *testing.T) {
	registry, _ := newTestRegistry(t)
	defs := registry.Definitions()

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{ToolCancelReminder, ToolCreateReminder, ToolListReminders, ToolUpdateReminder}, names)

	create := defs[1].Parameters
	assert.Equal(t, "object", create.Type)
	assert.ElementsMatch(t, []string{"title", "scheduledFor"}, create.Required)
	assert.Equal(t, []any{"CUSTOM", "DAILY", "WEEKLY", "MULTIPLE"}, create.Properties["frequency"].Enum)
	assert.Len(t, create.Properties["category"].Enum, len(reminder.Categories()))
	assert.Equal(t, "date-time", create.Properties["scheduledFor"].Format)

	update := defs[3].Parameters
	assert.Equal(t, []string{"id"}, update.Required)
	_, hasCategory := update.Properties["category"]
	assert.False(t, hasCategory)
}

func TestCreateAndListReminderTools(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := userCtx("user-1")

	result, err := registry.Execute(ctx, ToolCall{ID: "call-1", Name: ToolCreateReminder, Arguments: map[string]any{
		"title":        "review match footage",
		"scheduledFor": "2024-01-02T18:00:00Z",
		"frequency":    "weekly",
		"category":     "VIDEO_ANALYSIS",
	}})
	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, "call-1", result.CallID)
	assert.Equal(t, "Review match footage", result.Metadata["title"])
	assert.Equal(t, "WEEKLY", result.Metadata["frequency"])
	assert.Contains(t, result.Content, "every Tuesday at 6 PM")

	result, err = registry.Execute(ctx, ToolCall{ID: "call-2", Name: ToolListReminders})
	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, 1, result.Metadata["count"])
	assert.Contains(t, result.Content, "Review match footage (Video analysis, weekly)")
}

func TestCreateReminderToolRejectsBadArguments(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := userCtx("user-1")

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing title", map[string]any{"scheduledFor": "2024-01-02T18:00:00Z"}, "title is required"},
		{"bad timestamp", map[string]any{"title": "x", "scheduledFor": "tomorrow"}, "ISO-8601"},
		{"past timestamp", map[string]any{"title": "x", "scheduledFor": "2023-12-31T18:00:00Z"}, "future"},
		{"unknown frequency", map[string]any{"title": "x", "scheduledFor": "2024-01-02T18:00:00Z", "frequency": "HOURLY"}, "unknown frequency"},
		{"unknown category", map[string]any{"title": "x", "scheduledFor": "2024-01-02T18:00:00Z", "category": "CHESS"}, "unknown category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := registry.Execute(ctx, ToolCall{ID: "c", Name: ToolCreateReminder, Arguments: tt.args})
			require.NoError(t, err)
			require.Error(t, result.Error)
			assert.Contains(t, result.Content, tt.want)
		})
	}
}

func TestCancelAndUpdateToolsAreOwnerScoped(t *testing.T) {
	registry, svc := newTestRegistry(t)
	parsed := reminder.Parse("Remind me to stretch tomorrow at 7 AM", testNow)
	require.NotNil(t, parsed)
	n, err := svc.Create(context.Background(), "owner", parsed, "Remind me to stretch tomorrow at 7 AM")
	require.NoError(t, err)

	result, err := registry.Execute(userCtx("intruder"), ToolCall{ID: "c1", Name: ToolCancelReminder, Arguments: map[string]any{"id": n.ID}})
	require.NoError(t, err)
	require.Error(t, result.Error)
	assert.Equal(t, "reminder not found: "+n.ID, result.Content)

	result, err = registry.Execute(userCtx("owner"), ToolCall{ID: "c2", Name: ToolUpdateReminder, Arguments: map[string]any{
		"id":           n.ID,
		"scheduledFor": "2024-01-03T08:15:00Z",
		"frequency":    "DAILY",
	}})
	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, "2024-01-03T08:15:00Z", result.Metadata["scheduledFor"])
	assert.Equal(t, "DAILY", result.Metadata["frequency"])

	result, err = registry.Execute(userCtx("owner"), ToolCall{ID: "c3", Name: ToolUpdateReminder, Arguments: map[string]any{"id": n.ID}})
	require.NoError(t, err)
	require.Error(t, result.Error)
	assert.Contains(t, result.Content, "no fields to update")

	result, err = registry.Execute(userCtx("owner"), ToolCall{ID: "c4", Name: ToolCancelReminder, Arguments: map[string]any{"id": n.ID}})
	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Contains(t, result.Content, "Reminder cancelled")

	list, err := svc.List(context.Background(), "owner")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExecuteRequiresUserAndKnownTool(t *testing.T) {
	registry, _ := newTestRegistry(t)

	result, err := registry.Execute(context.Background(), ToolCall{ID: "c", Name: ToolListReminders})
	require.NoError(t, err)
	assert.EqualError(t, result.Error, "user id is required")

	result, err = registry.Execute(userCtx("user-1"), ToolCall{ID: "c", Name: "delete_everything"})
	require.NoError(t, err)
	assert.Contains(t, result.Content, "unknown tool")
}

func TestExecuteRawRepairsMalformedArguments(t *testing.T) {
	registry, _ := newTestRegistry(t)

	result, err := registry.ExecuteRaw(userCtx("user-1"), "c", ToolCreateReminder,
		`{'title': 'pack tournament bag', "scheduledFor": "2024-01-06T07:00:00Z", "category": "TOURNAMENTS",}`)
	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, "TOURNAMENTS", result.Metadata["category"])
}

func TestDecodeArguments(t *testing.T) {
	args, err := DecodeArguments(`{"id": "ntf-1"}`)
	require.NoError(t, err)
	assert.Equal(t, "ntf-1", args["id"])

	args, err = DecodeArguments("")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = DecodeArguments(`{"title": "stretch", "frequency": "DAILY"`)
	require.NoError(t, err)
	assert.Equal(t, "DAILY", args["frequency"])
}

func TestToolResultMarshalsErrorAsString(t *testing.T) {
	data, err := json.Marshal(ToolResult{CallID: "c", Content: "boom", Error: errors.New("boom")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"call_id":"c","content":"boom","error":"boom"}`, string(data))
}

func TestPatchFromArguments(t *testing.T) {
	patch, err := PatchFromArguments(map[string]any{"title": " Stretch ", "frequency": "multiple"})
	require.NoError(t, err)
	require.NotNil(t, patch.Title)
	assert.Equal(t, "Stretch", *patch.Title)
	require.NotNil(t, patch.Frequency)
	assert.Equal(t, reminder.FrequencyMultiple, *patch.Frequency)
	assert.Nil(t, patch.ScheduledFor)

	_, err = PatchFromArguments(map[string]any{"scheduledFor": "next week"})
	assert.Error(t, err)
}

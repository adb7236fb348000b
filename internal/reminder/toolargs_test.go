package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolArgsCarryEveryScheduleField(t *testing.T) {
	now := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	parsed := Parse("Remind me every Monday at 9 AM about tournaments", now)
	require.NotNil(t, parsed)

	args := parsed.ToolArgs()
	assert.Equal(t, "2024-01-08T09:00:00Z", args.ScheduledFor)

	back, err := FromToolArgs(args)
	require.NoError(t, err)
	assert.Equal(t, parsed.Title, back.Title)
	assert.Equal(t, parsed.Category, back.Category)
	assert.Equal(t, parsed.Frequency, back.Frequency)
	assert.Equal(t, parsed.TimeOfDay, back.TimeOfDay)
	assert.True(t, parsed.ScheduledFor.Equal(back.ScheduledFor))
}

func TestFromToolArgsValidation(t *testing.T) {
	_, err := FromToolArgs(ToolArgs{ScheduledFor: "2024-01-01T10:00:00Z"})
	assert.ErrorContains(t, err, "title")

	_, err = FromToolArgs(ToolArgs{Title: "x", ScheduledFor: "tomorrow"})
	assert.ErrorContains(t, err, "ISO-8601")

	_, err = FromToolArgs(ToolArgs{Title: "x", ScheduledFor: "2024-01-01T10:00:00Z", Frequency: "HOURLY"})
	assert.Error(t, err)

	_, err = FromToolArgs(ToolArgs{Title: "x", ScheduledFor: "2024-01-01T10:00:00Z", Category: "SHOPPING"})
	assert.Error(t, err)

	got, err := FromToolArgs(ToolArgs{Title: "stretch", ScheduledFor: "2024-01-01T10:30:00+02:00"})
	require.NoError(t, err)
	assert.Equal(t, "Stretch", got.Title)
	assert.Equal(t, FrequencyCustom, got.Frequency)
	assert.Equal(t, DefaultCategory, got.Category)
	assert.Equal(t, "10:30", got.TimeOfDay)
}

package reminder

import (
	"fmt"
	"strings"
	"time"
)

// ToolArgs is the function-calling representation of a reminder.
type ToolArgs struct {
	Title        string    `json:"title"`
	ScheduledFor string    `json:"scheduledFor"`
	Frequency    Frequency `json:"frequency"`
	Category     Category  `json:"category"`
}

// ToolArgs renders the reminder in function-calling form.
func (r *ParsedReminder) ToolArgs() ToolArgs {
	return ToolArgs{
		Title:        r.Title,
		ScheduledFor: r.ScheduledFor.Format(time.RFC3339),
		Frequency:    r.Frequency,
		Category:     r.Category,
	}
}

// FromToolArgs validates function-calling arguments and builds a ParsedReminder.
// TimeOfDay is derived from scheduledFor in its own offset.
func FromToolArgs(args ToolArgs) (*ParsedReminder, error) {
	title := strings.TrimSpace(args.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	scheduledFor, err := time.Parse(time.RFC3339, strings.TrimSpace(args.ScheduledFor))
	if err != nil {
		return nil, fmt.Errorf("scheduledFor must be ISO-8601: %w", err)
	}

	frequency := FrequencyCustom
	if args.Frequency != "" {
		if frequency, err = ParseFrequency(string(args.Frequency)); err != nil {
			return nil, err
		}
	}
	category := DefaultCategory
	if args.Category != "" {
		if category, err = ParseCategory(string(args.Category)); err != nil {
			return nil, err
		}
	}

	return &ParsedReminder{
		IsReminder:   true,
		Title:        capitalize(title),
		Category:     category,
		ScheduledFor: scheduledFor,
		Frequency:    frequency,
		TimeOfDay:    FormatTimeOfDay(scheduledFor.Hour(), scheduledFor.Minute()),
		Confidence:   maxConfidence,
	}, nil
}

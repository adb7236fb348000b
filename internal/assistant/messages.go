package assistant

import (
	"fmt"
	"strings"
	"time"

	"kai/internal/reminder"
)

const (
	notUnderstoodMessage = "I can set reminders for you. Try something like \"Remind me to practice serves tomorrow at 3 PM\"."
	discardedMessage     = "Okay, I won't set that reminder."
	nothingPendingText   = "There's no reminder waiting for confirmation."
)

var categoryLabels = map[reminder.Category]string{
	reminder.CategoryTournaments:   "Tournaments",
	reminder.CategoryVideoAnalysis: "Video analysis",
	reminder.CategoryCoachKai:      "Coach Kai",
	reminder.CategoryMedia:         "Media",
	reminder.CategoryTraining:      "Training",
	reminder.CategoryGoals:         "Goals",
}

// CategoryLabel returns the human label for c.
func CategoryLabel(c reminder.Category) string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// clarificationMessage restates the draft so the user can confirm or reject it.
func clarificationMessage(r *reminder.ParsedReminder, now time.Time) string {
	return fmt.Sprintf("Just to check: should I remind you to %q (%s) %s? Reply yes to save it or no to skip it.",
		r.Title, CategoryLabel(r.Category), DescribeSchedule(r.Frequency, r.ScheduledFor, now))
}

// confirmationMessage describes a saved reminder.
func confirmationMessage(r *reminder.ParsedReminder, now time.Time) string {
	return fmt.Sprintf("Got it! I'll remind you to %q %s.", r.Title, DescribeSchedule(r.Frequency, r.ScheduledFor, now))
}

// DescribeSchedule renders when and how often a reminder fires, relative to now.
func DescribeSchedule(f reminder.Frequency, at, now time.Time) string {
	clock := formatClock(at)
	switch f {
	case reminder.FrequencyDaily:
		return "every day at " + clock
	case reminder.FrequencyWeekly:
		return fmt.Sprintf("every %s at %s", at.Weekday(), clock)
	case reminder.FrequencyMultiple:
		return fmt.Sprintf("twice a day at %s and %s", clock, formatClock(at.Add(12*time.Hour)))
	default:
		return DescribeWhen(at, now)
	}
}

// DescribeWhen renders a one-off fire time as "today at ...", "tomorrow at ..."
// or a calendar date.
func DescribeWhen(at, now time.Time) string {
	at = at.In(now.Location())
	clock := formatClock(at)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, now.Location()); {
	case day.Equal(today):
		return "today at " + clock
	case day.Equal(today.AddDate(0, 0, 1)):
		return "tomorrow at " + clock
	default:
		return fmt.Sprintf("on %s at %s", at.Format("Monday, Jan 2"), clock)
	}
}

func formatClock(t time.Time) string {
	if t.Minute() == 0 {
		return strings.ToUpper(t.Format("3 pm"))
	}
	return strings.ToUpper(t.Format("3:04 pm"))
}

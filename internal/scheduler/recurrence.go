package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"kai/internal/reminder"
)

var recurrenceParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CronExpr returns the five-field cron expression that repeats a reminder of
// frequency f anchored at the wall-clock time of at. MULTIPLE fires twice a
// day, twelve hours apart. ok is false for one-off reminders.
func CronExpr(f reminder.Frequency, at time.Time) (expr string, ok bool) {
	minute, hour := at.Minute(), at.Hour()
	switch f {
	case reminder.FrequencyDaily:
		return fmt.Sprintf("%d %d * * *", minute, hour), true
	case reminder.FrequencyWeekly:
		return fmt.Sprintf("%d %d * * %d", minute, hour, int(at.Weekday())), true
	case reminder.FrequencyMultiple:
		return fmt.Sprintf("%d %d,%d * * *", minute, hour, (hour+12)%24), true
	default:
		return "", false
	}
}

// NextOccurrence returns the first occurrence of a recurring reminder that is
// strictly after both its current schedule and now. Missed occurrences are
// skipped rather than replayed. ok is false for one-off reminders.
func NextOccurrence(f reminder.Frequency, scheduled, now time.Time) (next time.Time, ok bool, err error) {
	expr, ok := CronExpr(f, scheduled)
	if !ok {
		return time.Time{}, false, nil
	}
	schedule, err := recurrenceParser.Parse(expr)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse recurrence %q: %w", expr, err)
	}
	if spec, isSpec := schedule.(*cron.SpecSchedule); isSpec {
		spec.Location = scheduled.Location()
	}

	from := scheduled
	if now.After(from) {
		from = now
	}
	return schedule.Next(from), true, nil
}

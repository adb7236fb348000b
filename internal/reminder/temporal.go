package reminder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultHour and DefaultMinute are used when the text names no clock time.
const (
	DefaultHour   = 9
	DefaultMinute = 0
)

// weekdayScan lists weekdays in scan order; the first one present in the text wins.
var weekdayScan = []struct {
	day     time.Weekday
	pattern *regexp.Regexp
}{
	{time.Sunday, regexp.MustCompile(`(?i)\bsundays?\b`)},
	{time.Monday, regexp.MustCompile(`(?i)\bmondays?\b`)},
	{time.Tuesday, regexp.MustCompile(`(?i)\btuesdays?\b`)},
	{time.Wednesday, regexp.MustCompile(`(?i)\bwednesdays?\b`)},
	{time.Thursday, regexp.MustCompile(`(?i)\bthursdays?\b`)},
	{time.Friday, regexp.MustCompile(`(?i)\bfridays?\b`)},
	{time.Saturday, regexp.MustCompile(`(?i)\bsaturdays?\b`)},
}

var (
	tomorrowPattern = regexp.MustCompile(`(?i)\btomorrow\b`)
	nextWeekPattern = regexp.MustCompile(`(?i)\bnext\s+week\b`)
	inHoursPattern  = regexp.MustCompile(`(?i)\bin\s+(\d{1,3})\s*(?:hours?|hrs?)\b`)
	inDaysPattern   = regexp.MustCompile(`(?i)\bin\s+(\d{1,3})\s*days?\b`)

	// 3 PM, 9:30am, 11 p.m.
	meridiemPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(a\.?m\.?|p\.?m\.?)(?:\s|$|[^a-z])`)
	// 15:00, 7:05
	clockPattern    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	noonPattern     = regexp.MustCompile(`(?i)\bnoon\b`)
	midnightPattern = regexp.MustCompile(`(?i)\bmidnight\b`)
	tonightPattern  = regexp.MustCompile(`(?i)\btonight\b`)
)

type dayPartRule struct {
	pattern *regexp.Regexp
	hour    int
}

// dayPartTable maps coarse day parts onto canonical clock times.
var dayPartTable = []dayPartRule{
	{regexp.MustCompile(`(?i)\bmorning\b`), 8},
	{regexp.MustCompile(`(?i)\bafternoon\b`), 14},
	{regexp.MustCompile(`(?i)\bevening\b`), 18},
	{regexp.MustCompile(`(?i)\bnight\b`), 20},
	{tonightPattern, 20},
}

// Resolution is the outcome of temporal resolution.
type Resolution struct {
	ScheduledFor time.Time
	TimeOfDay    string
	Weekday      bool
	DateShift    bool
	ExplicitTime bool
	DayPart      bool
}

// Matched reports whether any temporal rule family fired. The 09:00 default does not count.
func (r Resolution) Matched() bool {
	return r.DateShift || r.ExplicitTime || r.DayPart
}

// ResolveTime turns temporal expressions in text into a concrete instant strictly after now.
//
// Date-shifting rules run in order and later rules overwrite earlier ones.
// Then exactly one clock rule applies: explicit time, else day part, else 09:00.
func ResolveTime(text string, now time.Time) Resolution {
	var res Resolution
	working := now

	for _, wd := range weekdayScan {
		if !wd.pattern.MatchString(text) {
			continue
		}
		offset := int(wd.day) - int(now.Weekday())
		if offset <= 0 {
			offset += 7
		}
		working = now.AddDate(0, 0, offset)
		res.Weekday = true
		res.DateShift = true
		break
	}
	if tomorrowPattern.MatchString(text) {
		working = now.AddDate(0, 0, 1)
		res.DateShift = true
	}
	if nextWeekPattern.MatchString(text) {
		working = now.AddDate(0, 0, 7)
		res.DateShift = true
	}
	if m := inHoursPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		working = now.Add(time.Duration(n) * time.Hour)
		res.DateShift = true
	}
	if m := inDaysPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		working = now.AddDate(0, 0, n)
		res.DateShift = true
	}

	hour, minute := DefaultHour, DefaultMinute
	if h, m, ok := explicitClock(text); ok {
		hour, minute = h, m
		res.ExplicitTime = true
	} else if h, ok := dayPartHour(text); ok {
		hour, minute = h, 0
		res.DayPart = true
	}

	scheduled := time.Date(working.Year(), working.Month(), working.Day(), hour, minute, 0, 0, now.Location())
	if !scheduled.After(now) {
		scheduled = scheduled.AddDate(0, 0, 1)
	}

	res.ScheduledFor = scheduled
	res.TimeOfDay = FormatTimeOfDay(hour, minute)
	return res
}

// FormatTimeOfDay renders a 24-hour "HH:MM" string.
func FormatTimeOfDay(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseTimeOfDay reads an "HH:MM" string produced by FormatTimeOfDay.
func ParseTimeOfDay(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

// explicitClock finds the first valid numeric clock time in text.
// Out-of-range values are ignored so resolution falls through to the day part or default.
func explicitClock(text string) (int, int, bool) {
	for _, m := range meridiemPattern.FindAllStringSubmatch(text, -1) {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			continue
		}
		pm := strings.HasPrefix(strings.ToLower(m[3]), "p")
		switch {
		case pm && hour != 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
		return hour, minute, true
	}
	for _, m := range clockPattern.FindAllStringSubmatch(text, -1) {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			continue
		}
		return hour, minute, true
	}
	if noonPattern.MatchString(text) {
		return 12, 0, true
	}
	if midnightPattern.MatchString(text) {
		return 0, 0, true
	}
	return 0, 0, false
}

func dayPartHour(text string) (int, bool) {
	for _, rule := range dayPartTable {
		if rule.pattern.MatchString(text) {
			return rule.hour, true
		}
	}
	return 0, false
}

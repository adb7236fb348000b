package reminder

import "regexp"

type recurrenceRule struct {
	frequency Frequency
	pattern   *regexp.Regexp
}

// recurrenceTable is checked in order. Explicit cadence words outrank the
// implicit weekly cadence of a bare weekday name, which is handled last.
var recurrenceTable = []recurrenceRule{
	{FrequencyDaily, regexp.MustCompile(`(?i)\b(?:daily|every\s*day|each\s+day)\b`)},
	{FrequencyWeekly, regexp.MustCompile(`(?i)\b(?:weekly|every\s+week|each\s+week|once\s+a\s+week)\b`)},
	{FrequencyMultiple, regexp.MustCompile(`(?i)\b(?:twice|multiple\s+times)\b`)},
}

// ClassifyRecurrence returns the cadence implied by text and whether any cue matched.
func ClassifyRecurrence(text string) (Frequency, bool) {
	for _, rule := range recurrenceTable {
		if rule.pattern.MatchString(text) {
			return rule.frequency, true
		}
	}
	for _, wd := range weekdayScan {
		if wd.pattern.MatchString(text) {
			return FrequencyWeekly, true
		}
	}
	return FrequencyCustom, false
}

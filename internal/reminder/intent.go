package reminder

import "regexp"

type intentRule struct {
	name    string
	pattern *regexp.Regexp
	// strip removes the trigger phrase, including trailing connectors, from a title.
	strip  *regexp.Regexp
	strong bool
}

// intentTable is checked top to bottom. Strong rules are explicit reminder
// commands; the weaker rules also match notification or wish phrasing.
var intentTable = []intentRule{
	{
		name:    "remind_me",
		pattern: regexp.MustCompile(`(?i)\bremind\s+me\b`),
		strip:   regexp.MustCompile(`(?i)\bremind\s+me(?:\s+(?:to|about|that|of))?\b`),
		strong:  true,
	},
	{
		name:    "set_reminder",
		pattern: regexp.MustCompile(`(?i)\b(?:set|schedule|create|add|make|send)\s+(?:me\s+)?(?:a\s+|an\s+)?(?:\w+\s+)?reminders?\b`),
		strip:   regexp.MustCompile(`(?i)\b(?:set|schedule|create|add|make|send)\s+(?:me\s+)?(?:a\s+|an\s+)?(?:(\w+)\s+)?reminders?(?:\s+(?:to|for|about|that|of))?\b`),
		strong:  true,
	},
	{
		name:    "dont_forget",
		pattern: regexp.MustCompile(`(?i)\bdon'?t\s+let\s+me\s+forget\b`),
		strip:   regexp.MustCompile(`(?i)\bdon'?t\s+let\s+me\s+forget(?:\s+(?:to|about))?\b`),
		strong:  true,
	},
	{
		name:    "notify_me",
		pattern: regexp.MustCompile(`(?i)\b(?:notify|alert|ping)\s+me\b`),
		strip:   regexp.MustCompile(`(?i)\b(?:notify|alert|ping)\s+me(?:\s+(?:to|about|that|when|of))?\b`),
	},
	{
		name:    "want_reminded",
		pattern: regexp.MustCompile(`(?i)\bi(?:\s+(?:want|need|would\s+like)|'d\s+like)\s+to\s+be\s+(?:reminded|notified)\b`),
		strip:   regexp.MustCompile(`(?i)\bi(?:\s+(?:want|need|would\s+like)|'d\s+like)\s+to\s+be\s+(?:reminded|notified)(?:\s+(?:to|about|that|of))?\b`),
	},
}

// matchIntent returns the first intent rule matching text.
func matchIntent(text string) (intentRule, bool) {
	for _, rule := range intentTable {
		if rule.pattern.MatchString(text) {
			return rule, true
		}
	}
	return intentRule{}, false
}

// IsReminderRequest reports whether text asks for something to be scheduled.
func IsReminderRequest(text string) bool {
	_, ok := matchIntent(text)
	return ok
}

// hasStrongIntent reports whether any strong rule matches, independent of table order.
func hasStrongIntent(text string) bool {
	for _, rule := range intentTable {
		if rule.strong && rule.pattern.MatchString(text) {
			return true
		}
	}
	return false
}

package reminder

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DescriptionMinLength is the length the original text must exceed to be kept as a description.
const DescriptionMinLength = 50

// FallbackTitle is used when nothing remains after stripping.
const FallbackTitle = "Reminder"

// temporalStrip removes time-bearing phrases from a title, most specific first.
var temporalStrip = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:at\s+|by\s+|around\s+)?\d{1,2}(?::\d{2})?\s*(?:a\.?m\.?|p\.?m\.?)(?:\s|$|[^a-z])`),
	regexp.MustCompile(`(?i)\b(?:at\s+|by\s+|around\s+)?\d{1,2}:\d{2}\b`),
	regexp.MustCompile(`(?i)\b(?:at\s+|by\s+|around\s+)?(?:noon|midnight)\b`),
	regexp.MustCompile(`(?i)\b(?:every|each|on|next|this)?\s*(?:sun|mon|tues|wednes|thurs|fri|satur)days?\b`),
	regexp.MustCompile(`(?i)\b(?:tomorrow|tonight|today)\b`),
	regexp.MustCompile(`(?i)\bnext\s+week\b`),
	regexp.MustCompile(`(?i)\bin\s+\d{1,3}\s*(?:hours?|hrs?|days?)\b`),
	regexp.MustCompile(`(?i)\b(?:in\s+the\s+|this\s+|every\s+|each\s+)?(?:morning|afternoon|evening|night)s?\b`),
	regexp.MustCompile(`(?i)\b(?:daily|weekly|every\s*day|each\s+day|every\s+week|each\s+week|once\s+a\s+week)\b`),
	regexp.MustCompile(`(?i)\b(?:twice|multiple\s+times)(?:\s+(?:a|per)\s+(?:day|week))?\b`),
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// connectors left dangling at either edge once phrases are removed
	leadingConnector  = regexp.MustCompile(`(?i)^(?:(?:to|about|that|of|for|at|on|and|please)\b[\s,]*)+`)
	trailingConnector = regexp.MustCompile(`(?i)(?:[\s,]+(?:at|on|by|and|for|please))+$`)
)

// ExtractTitle strips the trigger phrase and then temporal phrases from text.
func ExtractTitle(text string) string {
	title := text
	if rule, ok := matchIntent(text); ok {
		title = rule.strip.ReplaceAllString(title, " ")
	}
	for _, pattern := range temporalStrip {
		title = pattern.ReplaceAllString(title, " ")
	}

	title = whitespaceRun.ReplaceAllString(title, " ")
	title = strings.Trim(title, " ,;:-")
	title = leadingConnector.ReplaceAllString(title, "")
	title = strings.TrimRight(title, " .!?,;:-")
	title = trailingConnector.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)
	if title == "" {
		return FallbackTitle
	}
	return capitalize(title)
}

// ExtractDescription returns the original text when it is long enough to add context.
func ExtractDescription(text string) string {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) > DescriptionMinLength {
		return trimmed
	}
	return ""
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

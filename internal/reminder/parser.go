// Package reminder turns free-form reminder requests into structured, schedulable records.
//
// Everything here is a pure function of the input text and the supplied
// reference time, so callers may parse concurrently without coordination.
package reminder

import (
	"math"
	"strings"
	"time"
)

// Parse interprets text relative to now. It returns nil when text is not a reminder request.
func Parse(text string, now time.Time) *ParsedReminder {
	if _, ok := matchIntent(text); !ok {
		return nil
	}

	resolution := ResolveTime(text, now)
	frequency, recurring := ClassifyRecurrence(text)
	signals := Signals{
		StrongIntent: hasStrongIntent(text),
		Temporal:     resolution.Matched(),
		Weekday:      resolution.Weekday,
		ExplicitTime: resolution.ExplicitTime,
		DayPart:      resolution.DayPart,
		Recurrence:   recurring,
	}

	return &ParsedReminder{
		IsReminder:   true,
		Title:        ExtractTitle(text),
		Description:  ExtractDescription(text),
		Category:     ClassifyCategory(text),
		ScheduledFor: resolution.ScheduledFor,
		Frequency:    frequency,
		TimeOfDay:    resolution.TimeOfDay,
		Confidence:   Score(signals),
		Signals:      signals,
	}
}

// Observer receives every parse outcome. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveParse(result *ParsedReminder, elapsed time.Duration)
}

// Parser wraps Parse with an optional observer for instrumentation.
type Parser struct {
	observer Observer
}

// NewParser builds a Parser. A nil observer disables instrumentation.
func NewParser(observer Observer) *Parser {
	return &Parser{observer: observer}
}

// Parse delegates to the package-level Parse and reports the outcome.
func (p *Parser) Parse(text string, now time.Time) *ParsedReminder {
	start := time.Now()
	result := Parse(strings.TrimSpace(text), now)
	if p != nil && p.observer != nil {
		p.observer.ObserveParse(result, time.Since(start))
	}
	return result
}

// ConfidenceBucket rounds confidence to one decimal for labelling.
func ConfidenceBucket(confidence float64) float64 {
	return math.Round(confidence*10) / 10
}

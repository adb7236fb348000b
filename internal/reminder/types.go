package reminder

import (
	"fmt"
	"strings"
	"time"
)

// Category is the closed taxonomy used to group reminders downstream.
type Category string

const (
	CategoryTournaments   Category = "TOURNAMENTS"
	CategoryVideoAnalysis Category = "VIDEO_ANALYSIS"
	CategoryCoachKai      Category = "COACH_KAI"
	CategoryMedia         Category = "MEDIA"
	CategoryTraining      Category = "TRAINING"
	CategoryGoals         Category = "GOALS"
)

// DefaultCategory is assigned when no keyword matches.
const DefaultCategory = CategoryGoals

// Categories lists every valid category in classification priority order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryTable)+1)
	for _, rule := range categoryTable {
		out = append(out, rule.category)
	}
	return append(out, DefaultCategory)
}

// ParseCategory converts a raw string into a Category, rejecting unknown values.
func ParseCategory(raw string) (Category, error) {
	candidate := Category(strings.ToUpper(strings.TrimSpace(raw)))
	for _, c := range Categories() {
		if c == candidate {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// Valid reports whether c is a member of the taxonomy.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// Frequency describes how often a reminder fires.
type Frequency string

const (
	FrequencyCustom   Frequency = "CUSTOM"
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyMultiple Frequency = "MULTIPLE"
)

// Frequencies lists every valid frequency.
func Frequencies() []Frequency {
	return []Frequency{FrequencyCustom, FrequencyDaily, FrequencyWeekly, FrequencyMultiple}
}

// ParseFrequency converts a raw string into a Frequency, rejecting unknown values.
func ParseFrequency(raw string) (Frequency, error) {
	candidate := Frequency(strings.ToUpper(strings.TrimSpace(raw)))
	for _, f := range Frequencies() {
		if f == candidate {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown frequency %q", raw)
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	_, err := ParseFrequency(string(f))
	return err == nil
}

// Recurring reports whether the reminder repeats after firing.
func (f Frequency) Recurring() bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyMultiple
}

// ParsedReminder is the structured result of a successful parse.
type ParsedReminder struct {
	IsReminder   bool      `json:"isReminder"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Category     Category  `json:"category"`
	ScheduledFor time.Time `json:"scheduledFor"`
	Frequency    Frequency `json:"frequency"`
	TimeOfDay    string    `json:"timeOfDay,omitempty"`
	Confidence   float64   `json:"confidence"`

	// Signals records which rule families fired. Not part of the tool schema.
	Signals Signals `json:"-"`
}

// Message is the notification body: the description when present, otherwise the title.
func (r *ParsedReminder) Message() string {
	if r.Description != "" {
		return r.Description
	}
	return r.Title
}

// Signals captures which rule families matched during a parse.
type Signals struct {
	StrongIntent bool
	Temporal     bool
	Weekday      bool
	ExplicitTime bool
	DayPart      bool
	Recurrence   bool
}

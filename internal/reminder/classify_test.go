package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCategoryPriority(t *testing.T) {
	tests := []struct {
		text string
		want Category
	}{
		{"review my goals", CategoryGoals},
		{"buy groceries", CategoryGoals},
		{"upload the video before the TOURNAMENT", CategoryTournaments},
		{"analyze footage with coach", CategoryVideoAnalysis},
		{"lesson with Coach Kai", CategoryCoachKai},
		{"share the highlight photo", CategoryMedia},
		{"practice serves", CategoryTraining},
		{"practice for the league match", CategoryTournaments},
		{"record a drill video", CategoryVideoAnalysis},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyCategory(tt.text), tt.text)
	}
}

func TestCategoriesEndWithDefault(t *testing.T) {
	all := Categories()
	assert.Equal(t, DefaultCategory, all[len(all)-1])
	assert.Len(t, all, len(categoryTable)+1)
}

func TestClassifyRecurrence(t *testing.T) {
	tests := []struct {
		text    string
		want    Frequency
		matched bool
	}{
		{"every day at 7", FrequencyDaily, true},
		{"daily stretch", FrequencyDaily, true},
		{"weekly review", FrequencyWeekly, true},
		{"once a week", FrequencyWeekly, true},
		{"every week on Monday", FrequencyWeekly, true},
		{"twice a day", FrequencyMultiple, true},
		{"multiple times this week", FrequencyMultiple, true},
		{"on Thursday", FrequencyWeekly, true},
		{"daily on Thursday", FrequencyDaily, true},
		{"tomorrow", FrequencyCustom, false},
		{"in the morning", FrequencyCustom, false},
	}
	for _, tt := range tests {
		got, matched := ClassifyRecurrence(tt.text)
		assert.Equal(t, tt.want, got, tt.text)
		assert.Equal(t, tt.matched, matched, tt.text)
	}
}

func TestIntentGate(t *testing.T) {
	positives := []string{
		"Remind me to stretch",
		"please REMIND ME later",
		"Set a reminder for practice",
		"schedule me a reminder",
		"Create reminders for my matches",
		"send a quick reminder tomorrow",
		"notify me when it is 5pm",
		"alert me at 6",
		"I want to be reminded about the bracket",
		"i need to be notified",
		"don't let me forget the water bottle",
		"dont let me forget",
	}
	for _, text := range positives {
		assert.True(t, IsReminderRequest(text), text)
	}

	negatives := []string{
		"Tell me about practice drills",
		"What's the weather like tomorrow?",
		"How do I improve my serve?",
		"my reminder app crashed",
		"I was reminded of my childhood",
	}
	for _, text := range negatives {
		assert.False(t, IsReminderRequest(text), text)
	}
}

func TestStrongIntentSubset(t *testing.T) {
	assert.True(t, hasStrongIntent("remind me"))
	assert.True(t, hasStrongIntent("set a daily reminder"))
	assert.True(t, hasStrongIntent("don't let me forget"))
	assert.False(t, hasStrongIntent("notify me"))
	assert.False(t, hasStrongIntent("I want to be reminded"))
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Remind me to practice serves tomorrow at 3 PM", "Practice serves"},
		{"Set a daily reminder at 8 AM to review my goals", "Review my goals"},
		{"Remind me every Monday at 9 AM about tournaments", "Tournaments"},
		{"remind me to call the club at 15:00 tomorrow.", "Call the club"},
		{"Notify me in 2 hours to stretch", "Stretch"},
		{"set a weekly reminder on Sundays to plan the week", "Plan the week"},
		{"remind me twice a day to drink water", "Drink water"},
		{"I'd like to be reminded to book courts next week please", "Book courts"},
		{"remind me at 7pm", FallbackTitle},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractTitle(tt.text), tt.text)
	}
}

func TestExtractDescriptionThreshold(t *testing.T) {
	short := "Remind me to practice serves tomorrow at 3 PM"
	assert.Empty(t, ExtractDescription(short))

	exactly50 := "remind me to do the thing with the coach tomorrow!"
	assert.Len(t, exactly50, 50)
	assert.Empty(t, ExtractDescription(exactly50))

	long := exactly50 + "!"
	assert.Equal(t, long, ExtractDescription(long))
}

func TestScoreClamps(t *testing.T) {
	assert.InDelta(t, 0.5, Score(Signals{}), 1e-9)
	assert.InDelta(t, 1.0, Score(Signals{StrongIntent: true, Temporal: true, Recurrence: true}), 1e-9)
	assert.LessOrEqual(t, Score(Signals{StrongIntent: true, Temporal: true, Recurrence: true}), 1.0)
}

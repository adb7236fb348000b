package reminder

import "strings"

type categoryRule struct {
	category Category
	keywords []string
}

// categoryTable is evaluated in order and the first rule with a keyword hit wins.
//
//  1. TOURNAMENTS: dated events; a tournament mention outranks whatever the
//     player plans to do for it ("upload video before the tournament").
//  2. VIDEO_ANALYSIS: footage work is routed to the analysis queue even when
//     it concerns coaching or goals.
//  3. COACH_KAI: requests addressed to the coach.
//  4. MEDIA: photos and highlight content.
//  5. TRAINING: practice and drills.
//
// GOALS is the fallback and also owns goal vocabulary, so it is not listed.
var categoryTable = []categoryRule{
	{category: CategoryTournaments, keywords: []string{"tournament", "match", "competition", "bracket", "registration", "league"}},
	{category: CategoryVideoAnalysis, keywords: []string{"video", "footage", "analysis", "analyze", "analyse", "recording", "upload"}},
	{category: CategoryCoachKai, keywords: []string{"coach", "kai", "lesson", "check-in", "check in"}},
	{category: CategoryMedia, keywords: []string{"photo", "picture", "highlight", "media", "podcast", "article"}},
	{category: CategoryTraining, keywords: []string{"practice", "drill", "workout", "training", "exercise", "stretch"}},
}

// ClassifyCategory maps text onto exactly one Category.
func ClassifyCategory(text string) Category {
	lower := strings.ToLower(text)
	for _, rule := range categoryTable {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.category
			}
		}
	}
	return DefaultCategory
}

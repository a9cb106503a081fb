package classifier

import (
	"context"
	"strings"
)

// Classifier assigns one category from the given set to free-form text.
// Implementations return an error on capability failure and never retry;
// choosing a safe default in that case is the caller's job.
type Classifier interface {
	Classify(ctx context.Context, text string, categories []string) (string, error)
}

// Fallback is the category used when no category fits.
const Fallback = "general"

// KeywordClassifier is an offline classifier matching category keywords in
// the text. Used when no LLM capability is configured.
type KeywordClassifier struct {
	keywords map[string][]string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		keywords: map[string][]string{
			"travel":   {"trip", "flight", "hotel", "vacation", "booking", "airport"},
			"schedule": {"meeting", "appointment", "calendar", "schedule", "event"},
			"family":   {"family", "mom", "dad", "kids", "household"},
			"todo":     {"task", "todo", "to-do", "checklist", "deadline"},
			"document": {"document", "file", "paperwork", "report", "draft"},
		},
	}
}

func (c *KeywordClassifier) Classify(ctx context.Context, text string, categories []string) (string, error) {
	lowered := strings.ToLower(text)
	for _, category := range categories {
		for _, keyword := range c.keywords[category] {
			if strings.Contains(lowered, keyword) {
				return category, nil
			}
		}
	}
	return Fallback, nil
}

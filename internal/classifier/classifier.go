// Package classifier extracts a structured service request from a raw
// transcript. The core consumes it through the Classifier interface; the
// production implementation calls an OpenAI-compatible chat model.
package classifier

import (
	"context"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
)

// Classifier turns a transcript into a classification result.
type Classifier interface {
	Classify(ctx context.Context, transcript string) (domain.ClassificationResult, error)
}

// Fallback is the result used when classification fails outright: the task
// is still created, routed to the catch-all category with zero confidence so
// the escalation policy flags it.
func Fallback(transcript string) domain.ClassificationResult {
	issue := transcript
	if len(issue) > 100 {
		issue = issue[:100]
	}
	return domain.ClassificationResult{
		Intent:     domain.IntentOther,
		Issue:      issue,
		Urgency:    domain.UrgencyMedium,
		Confidence: 0.0,
	}
}

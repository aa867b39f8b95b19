// Package escalation decides whether a classified service request needs a
// human alert before or instead of automatic routing. The decision is pure:
// it never fails and touches no external state.
package escalation

import (
	"fmt"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
)

// DefaultConfidenceThreshold is used when no threshold is configured.
const DefaultConfidenceThreshold = 0.75

// minIssueLength is the shortest problem description considered usable.
const minIssueLength = 5

// Policy evaluates escalation rules against classification results.
type Policy struct {
	threshold float64
}

// NewPolicy returns a Policy with the given confidence threshold.
// A non-positive threshold falls back to the default.
func NewPolicy(threshold float64) *Policy {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Policy{threshold: threshold}
}

// Decide applies the escalation rules in order, first match wins:
//
//  1. confidence below threshold
//  2. intent is the catch-all category
//  3. issue missing or too short
//
// It returns whether to escalate and the human-readable reason.
func (p *Policy) Decide(result domain.ClassificationResult) (bool, string) {
	if result.Confidence < p.threshold {
		return true, fmt.Sprintf("Low confidence score: %.2f", result.Confidence)
	}
	if result.Intent == domain.IntentOther {
		return true, "Unable to categorize service type"
	}
	if len(result.Issue) < minIssueLength {
		return true, "Insufficient problem description"
	}
	return false, ""
}

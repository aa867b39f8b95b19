package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
)

func result(intent, issue string, confidence float64) domain.ClassificationResult {
	return domain.ClassificationResult{
		Intent:     intent,
		Issue:      issue,
		Urgency:    domain.UrgencyMedium,
		Confidence: confidence,
	}
}

func TestDecide_RuleOrder(t *testing.T) {
	p := NewPolicy(0.75)

	tests := []struct {
		name       string
		result     domain.ClassificationResult
		escalate   bool
		wantReason string
	}{
		{
			name:       "low confidence wins over everything",
			result:     result(domain.IntentOther, "x", 0.10),
			escalate:   true,
			wantReason: "Low confidence score: 0.10",
		},
		{
			name:       "confidence exactly at threshold does not trigger rule one",
			result:     result("Plumbing", "leaking kitchen sink", 0.75),
			escalate:   false,
			wantReason: "",
		},
		{
			name:       "uncategorized intent escalates even at high confidence",
			result:     result(domain.IntentOther, "leaking kitchen sink", 0.90),
			escalate:   true,
			wantReason: "Unable to categorize service type",
		},
		{
			name:       "short issue",
			result:     result("Plumbing", "leak", 0.90),
			escalate:   true,
			wantReason: "Insufficient problem description",
		},
		{
			name:       "empty issue",
			result:     result("Plumbing", "", 0.90),
			escalate:   true,
			wantReason: "Insufficient problem description",
		},
		{
			name:       "clean result passes",
			result:     result("AC Repair", "AC not cooling in bedroom", 0.92),
			escalate:   false,
			wantReason: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escalate, reason := p.Decide(tt.result)
			assert.Equal(t, tt.escalate, escalate)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestDecide_ReasonFormatsToTwoDecimals(t *testing.T) {
	p := NewPolicy(0.75)
	_, reason := p.Decide(result("Plumbing", "leaking sink pipe", 0.333))
	assert.Equal(t, "Low confidence score: 0.33", reason)
}

func TestNewPolicy_DefaultsThreshold(t *testing.T) {
	p := NewPolicy(0)
	escalate, _ := p.Decide(result("Plumbing", "leaking sink pipe", 0.74))
	assert.True(t, escalate, "0.74 must escalate under the default 0.75 threshold")

	escalate, _ = p.Decide(result("Plumbing", "leaking sink pipe", 0.76))
	assert.False(t, escalate)
}

package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/tidwall/gjson"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
)

const systemPromptTemplate = `You are an intake assistant for a local service business.
Analyze the customer transcript and extract structured information.

SUPPORTED SERVICE CATEGORIES:
%s

Extract:
1. intent: which service category this relates to
2. issue: the specific problem or request
3. urgency: low, medium, high or critical
4. location: where service is needed, if mentioned
5. preferred_time: when they want service, if mentioned
6. confidence: how confident you are in this extraction, 0.0 to 1.0

Return ONLY a valid JSON object with exactly these keys:
{"intent", "issue", "urgency", "location", "preferred_time", "confidence"}
Use null for optional fields that are not mentioned.`

// OpenAI classifies transcripts with a chat-completion model.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds a classifier for the given API key and model.
func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *OpenAI) Classify(ctx context.Context, transcript string) (domain.ClassificationResult, error) {
	system := fmt.Sprintf(systemPromptTemplate, strings.Join(domain.SupportedIntents, ", "))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage("Customer transcript: " + transcript),
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.ClassificationResult{}, errors.New("chat completion returned no choices")
	}

	return parseResult(completion.Choices[0].Message.Content), nil
}

// parseResult reads the model output leniently and normalizes it into the
// closed intent/urgency vocabulary. Unknown intents fall back to the
// catch-all category with a confidence penalty.
func parseResult(raw string) domain.ClassificationResult {
	result := domain.ClassificationResult{
		Intent:        gjson.Get(raw, "intent").String(),
		Issue:         gjson.Get(raw, "issue").String(),
		Location:      gjson.Get(raw, "location").String(),
		PreferredTime: gjson.Get(raw, "preferred_time").String(),
		Confidence:    gjson.Get(raw, "confidence").Float(),
	}
	result.Urgency = domain.NormalizeUrgency(strings.ToLower(gjson.Get(raw, "urgency").String()))

	if !domain.SupportedIntent(result.Intent) {
		result.Intent = domain.IntentOther
		result.Confidence -= 0.2
	}
	result.Confidence = clamp(result.Confidence)
	return result
}

func clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClassifier implements Classifier using an OpenAI chat model
// prompted to emit a three-class probability distribution. It is
// constructed once at wire time and reused across cycles.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier creates a classifier for the given API key and
// model. An empty model falls back to GPT-4o-mini.
func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClassifier{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

const classifyPrompt = `You are a financial sentiment model for cryptocurrency social posts.
Classify the post below into bullish, neutral, and bearish probabilities that sum to 1.

Post:
%s

Respond with JSON only, no prose:
{"bullish": float, "neutral": float, "bearish": float}`

// Classify sends one post text to the chat model and parses the returned
// distribution. The probabilities are renormalized defensively in case
// the model's output does not sum exactly to 1.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(classifyPrompt, text),
			},
		},
	})
	if err != nil {
		return Classification{}, fmt.Errorf("openai: classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Classification{}, fmt.Errorf("openai: classify: empty response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var cl Classification
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &cl); err != nil {
		return Classification{}, fmt.Errorf("openai: parse classification: %w", err)
	}

	total := cl.Bullish + cl.Neutral + cl.Bearish
	if total > 0 {
		cl.Bullish /= total
		cl.Neutral /= total
		cl.Bearish /= total
	}
	return cl, nil
}

var _ Classifier = (*OpenAIClassifier)(nil)

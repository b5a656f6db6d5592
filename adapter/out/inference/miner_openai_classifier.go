package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"jobminer/core/domain"
	"jobminer/core/port/out"
	"jobminer/pkg/apperr"
)

// defaultOpenAIModel is a literal: the pinned go-openai release predates the
// model's named constant.
const defaultOpenAIModel = "gpt-4o-mini"

const classifySystemPrompt = `You label emails for a job-application tracker.
For each input text, decide whether it is a "confirmation" (an acknowledgement
that a job application was received or submitted), a "rejection", or
"unrelated". Reply with a JSON object {"labels": [...]} containing exactly one
label per input, in input order.`

// OpenAIClassifier labels texts with a chat model. Drop-in alternative to the
// hosted sequence classifier for deployments without one.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAIClassifier creates the classifier. model defaults to gpt-4o-mini.
func NewOpenAIClassifier(apiKey, model string, log zerolog.Logger) *OpenAIClassifier {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClassifier{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log.With().Str("component", "openai_classifier").Logger(),
	}
}

type openaiLabels struct {
	Labels []string `json:"labels"`
}

// Classify labels a batch of texts in one chat completion.
func (c *OpenAIClassifier) Classify(ctx context.Context, texts []string) ([]domain.ClassificationResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input, err := json.Marshal(map[string]any{"texts": texts})
	if err != nil {
		return nil, fmt.Errorf("encode classify input: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(input)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, apperr.TransientNetwork(err, "openai")
	}
	if len(resp.Choices) == 0 {
		return nil, apperr.TransientNetwork(fmt.Errorf("empty completion"), "openai")
	}

	var parsed openaiLabels
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, apperr.TransientNetwork(fmt.Errorf("decode completion: %w", err), "openai")
	}
	if len(parsed.Labels) != len(texts) {
		return nil, fmt.Errorf("model returned %d labels for %d inputs", len(parsed.Labels), len(texts))
	}

	results := make([]domain.ClassificationResult, len(texts))
	for i, raw := range parsed.Labels {
		label := domain.Label(strings.ToLower(strings.TrimSpace(raw)))
		switch label {
		case domain.LabelConfirmation, domain.LabelRejection, domain.LabelUnrelated:
		default:
			label = domain.LabelUnrelated
		}
		results[i] = domain.ClassificationResult{Label: label}
	}
	return results, nil
}

var _ out.Classifier = (*OpenAIClassifier)(nil)

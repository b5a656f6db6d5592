package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"jobminer/core/domain"
	"jobminer/core/port/out"
)

// classifyRequest is the batched text-classification payload.
type classifyRequest struct {
	Inputs []string `json:"inputs"`
}

// labelScore is one label candidate in a classifier reply.
type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// HTTPClassifier calls a hosted sequence-classification model. The reply
// carries one label ranking per input; the top label wins.
type HTTPClassifier struct {
	client *modelClient
}

// NewHTTPClassifier creates a classifier against endpoint.
func NewHTTPClassifier(endpoint, apiToken string, log zerolog.Logger) *HTTPClassifier {
	return &HTTPClassifier{client: newModelClient("classifier", endpoint, apiToken, log)}
}

// Classify labels a batch of texts. The reply must carry exactly one ranking
// per input; anything else is a transport-level failure.
func (c *HTTPClassifier) Classify(ctx context.Context, texts []string) ([]domain.ClassificationResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var rankings [][]labelScore
	if err := c.client.post(ctx, classifyRequest{Inputs: texts}, &rankings); err != nil {
		return nil, err
	}
	if len(rankings) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d rankings for %d inputs", len(rankings), len(texts))
	}

	results := make([]domain.ClassificationResult, len(texts))
	for i, ranking := range rankings {
		results[i] = pickLabel(ranking)
	}
	return results, nil
}

// pickLabel reduces a ranking to the validated boundary type. Unknown labels
// fall back to unrelated so a model revision cannot inject records.
func pickLabel(ranking []labelScore) domain.ClassificationResult {
	best := labelScore{Label: string(domain.LabelUnrelated)}
	for _, ls := range ranking {
		if ls.Score > best.Score {
			best = ls
		}
	}

	label := domain.Label(strings.ToLower(best.Label))
	switch label {
	case domain.LabelConfirmation, domain.LabelRejection, domain.LabelUnrelated:
	default:
		label = domain.LabelUnrelated
	}
	return domain.ClassificationResult{Label: label, Score: best.Score}
}

var _ out.Classifier = (*HTTPClassifier)(nil)

package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"jobminer/core/domain"
	"jobminer/core/port/out"
)

// tokenPrediction is one subtoken from a token-classification reply, with
// byte offsets into the input text.
type tokenPrediction struct {
	Entity string  `json:"entity"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

// HTTPExtractor calls a hosted token-classification model and merges the
// BIO-tagged subtokens into entity spans.
type HTTPExtractor struct {
	client   *modelClient
	minScore float64
}

// NewHTTPExtractor creates an extractor against endpoint. Spans whose mean
// confidence falls below minScore are discarded.
func NewHTTPExtractor(endpoint, apiToken string, minScore float64, log zerolog.Logger) *HTTPExtractor {
	return &HTTPExtractor{
		client:   newModelClient("extractor", endpoint, apiToken, log),
		minScore: minScore,
	}
}

// Extract returns entity candidates for each text, ordered by first
// occurrence in the text.
func (e *HTTPExtractor) Extract(ctx context.Context, texts []string) ([]domain.EntityCandidates, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var predictions [][]tokenPrediction
	if err := e.client.post(ctx, classifyRequest{Inputs: texts}, &predictions); err != nil {
		return nil, err
	}
	if len(predictions) != len(texts) {
		return nil, fmt.Errorf("extractor returned %d predictions for %d inputs", len(predictions), len(texts))
	}

	candidates := make([]domain.EntityCandidates, len(texts))
	for i, preds := range predictions {
		spans := mergeSpans(texts[i], preds, e.minScore)
		for _, span := range spans {
			switch span.Type {
			case domain.EntityCompany:
				candidates[i].Companies = append(candidates[i].Companies, span.Text)
			case domain.EntityPosition:
				candidates[i].Positions = append(candidates[i].Positions, span.Text)
			}
		}
	}
	return candidates, nil
}

// mergeSpans folds consecutive B-/I- subtokens of the same entity type into
// one span covering the original text between the first start and the last
// end offset. A B- tag always opens a new span; any tag break closes the
// current one.
func mergeSpans(text string, preds []tokenPrediction, minScore float64) []domain.EntitySpan {
	var spans []domain.EntitySpan

	var (
		openType   string
		openStart  int
		openEnd    int
		scoreSum   float64
		scoreCount int
	)

	flush := func() {
		if openType == "" {
			return
		}
		mean := scoreSum / float64(scoreCount)
		if mean >= minScore && openStart < openEnd && openEnd <= len(text) {
			spans = append(spans, domain.EntitySpan{
				Type:  openType,
				Text:  strings.TrimSpace(text[openStart:openEnd]),
				Score: mean,
			})
		}
		openType = ""
		scoreSum, scoreCount = 0, 0
	}

	for _, pred := range preds {
		if pred.Start == pred.End {
			continue // special tokens carry empty offsets
		}

		prefix, entityType, ok := splitTag(pred.Entity)
		if !ok {
			flush()
			continue
		}

		switch {
		case prefix == "B":
			flush()
			openType = entityType
			openStart, openEnd = pred.Start, pred.End
			scoreSum, scoreCount = pred.Score, 1
		case prefix == "I" && openType == entityType:
			openEnd = pred.End
			scoreSum += pred.Score
			scoreCount++
		default:
			// An I- tag without a matching open span is a model artifact.
			flush()
		}
	}
	flush()
	return spans
}

// splitTag parses "B-COMPANY" style BIO tags. "O" and malformed tags report
// not ok.
func splitTag(tag string) (prefix, entityType string, ok bool) {
	prefix, entityType, found := strings.Cut(tag, "-")
	if !found || (prefix != "B" && prefix != "I") {
		return "", "", false
	}
	return prefix, entityType, true
}

var _ out.EntityExtractor = (*HTTPExtractor)(nil)

package out

import (
	"context"

	"jobminer/core/domain"
)

// Classifier is the outbound port for the text-classification service.
// Inputs are already truncated subject+body texts; the reply carries exactly
// one result per input, confirmation or unrelated. Adapters surface a
// SERVICE_WARMING_UP error with the provider's wait hint when the model is
// still loading.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]domain.ClassificationResult, error)
}

// EntityExtractor is the outbound port for the span-extraction service.
// One EntityCandidates per input, ordered by first occurrence.
type EntityExtractor interface {
	Extract(ctx context.Context, texts []string) ([]domain.EntityCandidates, error)
}

package inference

import (
	"fmt"

	"github.com/rs/zerolog"

	"jobminer/core/port/out"
)

// Config selects and configures the model backends.
type Config struct {
	// Backend is "http" (hosted classification endpoints) or "openai".
	Backend string

	ClassifierURL  string
	ExtractorURL   string
	APIToken       string
	MinEntityScore float64

	OpenAIAPIKey string
	OpenAIModel  string
}

// NewClassifier builds the classifier for the configured backend.
func NewClassifier(cfg *Config, log zerolog.Logger) (out.Classifier, error) {
	switch cfg.Backend {
	case "", "http":
		if cfg.ClassifierURL == "" {
			return nil, fmt.Errorf("classifier url not set")
		}
		return NewHTTPClassifier(cfg.ClassifierURL, cfg.APIToken, log), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai api key not set")
		}
		return NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel, log), nil
	default:
		return nil, fmt.Errorf("unsupported inference backend: %s", cfg.Backend)
	}
}

// NewExtractor builds the entity extractor. Extraction always uses the hosted
// token-classification endpoint; span offsets need a real NER model.
func NewExtractor(cfg *Config, log zerolog.Logger) (out.EntityExtractor, error) {
	if cfg.ExtractorURL == "" {
		return nil, fmt.Errorf("extractor url not set")
	}
	minScore := cfg.MinEntityScore
	if minScore <= 0 {
		minScore = 0.5
	}
	return NewHTTPExtractor(cfg.ExtractorURL, cfg.APIToken, minScore, log), nil
}

package inference

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewOpenAIClassifierDefaultsModel(t *testing.T) {
	c := NewOpenAIClassifier("key", "", zerolog.Nop())
	if c.model != defaultOpenAIModel {
		t.Fatalf("model = %q, want %q", c.model, defaultOpenAIModel)
	}

	c = NewOpenAIClassifier("key", "gpt-4.1", zerolog.Nop())
	if c.model != "gpt-4.1" {
		t.Fatalf("model = %q, want gpt-4.1", c.model)
	}
}

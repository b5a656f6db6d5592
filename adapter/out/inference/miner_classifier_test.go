package inference

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"jobminer/core/domain"
	"jobminer/pkg/apperr"
)

func TestHTTPClassifierClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}

		rankings := make([][]labelScore, len(req.Inputs))
		for i := range req.Inputs {
			rankings[i] = []labelScore{
				{Label: "confirmation", Score: 0.91},
				{Label: "unrelated", Score: 0.09},
			}
		}
		json.NewEncoder(w).Encode(rankings)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "tok", zerolog.Nop())
	results, err := c.Classify(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, res := range results {
		if res.Label != domain.LabelConfirmation {
			t.Errorf("Label = %q, want confirmation", res.Label)
		}
		if res.Score != 0.91 {
			t.Errorf("Score = %v, want 0.91", res.Score)
		}
	}
}

func TestHTTPClassifierWarmingUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(warmingReply{Error: "Model is currently loading", EstimatedTime: 20})
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "", zerolog.Nop())
	_, err := c.Classify(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected warming-up error")
	}
	hint, ok := apperr.WarmupHint(err)
	if !ok {
		t.Fatalf("error is not SERVICE_WARMING_UP: %v", err)
	}
	if hint != 20*time.Second {
		t.Errorf("hint = %v, want 20s", hint)
	}
}

func TestHTTPClassifierCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([][]labelScore{{{Label: "confirmation", Score: 1}}})
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "", zerolog.Nop())
	if _, err := c.Classify(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error on ranking count mismatch")
	}
}

func TestHTTPClassifierAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "bad", zerolog.Nop())
	_, err := c.Classify(context.Background(), []string{"a"})
	if !apperr.IsAuth(err) {
		t.Fatalf("error = %v, want AUTH_ERROR", err)
	}
}

func TestPickLabelUnknownFallsBackToUnrelated(t *testing.T) {
	res := pickLabel([]labelScore{{Label: "LABEL_3", Score: 0.99}})
	if res.Label != domain.LabelUnrelated {
		t.Errorf("Label = %q, want unrelated", res.Label)
	}
}

func TestHTTPClassifierEmptyBatch(t *testing.T) {
	c := NewHTTPClassifier("http://unused.invalid", "", zerolog.Nop())
	results, err := c.Classify(context.Background(), nil)
	if err != nil || results != nil {
		t.Errorf("empty batch: results=%v err=%v, want nil/nil", results, err)
	}
}

package inference

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"jobminer/core/domain"
)

func TestMergeSpans(t *testing.T) {
	//        0123456789012345678901234567890123456789
	text := "Thanks for applying to Acme Corp as Staff Engineer"

	tests := []struct {
		name  string
		preds []tokenPrediction
		want  []domain.EntitySpan
	}{
		{
			name:  "no predictions",
			preds: nil,
			want:  nil,
		},
		{
			name: "single-token company",
			preds: []tokenPrediction{
				{Entity: "B-COMPANY", Score: 0.99, Start: 23, End: 27},
			},
			want: []domain.EntitySpan{{Type: "COMPANY", Text: "Acme", Score: 0.99}},
		},
		{
			name: "continuation merges into one span",
			preds: []tokenPrediction{
				{Entity: "B-COMPANY", Score: 0.98, Start: 23, End: 27},
				{Entity: "I-COMPANY", Score: 0.96, Start: 28, End: 32},
			},
			want: []domain.EntitySpan{{Type: "COMPANY", Text: "Acme Corp", Score: 0.97}},
		},
		{
			name: "two entity types",
			preds: []tokenPrediction{
				{Entity: "B-COMPANY", Score: 1, Start: 23, End: 27},
				{Entity: "I-COMPANY", Score: 1, Start: 28, End: 32},
				{Entity: "B-POSITION", Score: 1, Start: 36, End: 41},
				{Entity: "I-POSITION", Score: 1, Start: 42, End: 50},
			},
			want: []domain.EntitySpan{
				{Type: "COMPANY", Text: "Acme Corp", Score: 1},
				{Type: "POSITION", Text: "Staff Engineer", Score: 1},
			},
		},
		{
			name: "new B tag closes the previous span",
			preds: []tokenPrediction{
				{Entity: "B-COMPANY", Score: 1, Start: 23, End: 27},
				{Entity: "B-COMPANY", Score: 1, Start: 28, End: 32},
			},
			want: []domain.EntitySpan{
				{Type: "COMPANY", Text: "Acme", Score: 1},
				{Type: "COMPANY", Text: "Corp", Score: 1},
			},
		},
		{
			name: "outside tag breaks the span",
			preds: []tokenPrediction{
				{Entity: "B-COMPANY", Score: 1, Start: 23, End: 27},
				{Entity: "O", Score: 1, Start: 28, End: 32},
				{Entity: "I-COMPANY", Score: 1, Start: 36, End: 41},
			},
			want: []domain.EntitySpan{{Type: "COMPANY", Text: "Acme", Score: 1}},
		},
		{
			name: "orphan continuation is dropped",
			preds: []tokenPrediction{
				{Entity: "I-POSITION", Score: 1, Start: 36, End: 41},
			},
			want: nil,
		},
		{
			name: "special tokens with empty offsets are skipped",
			preds: []tokenPrediction{
				{Entity: "O", Score: 1, Start: 0, End: 0},
				{Entity: "B-COMPANY", Score: 1, Start: 23, End: 27},
				{Entity: "O", Score: 1, Start: 0, End: 0},
			},
			want: []domain.EntitySpan{{Type: "COMPANY", Text: "Acme", Score: 1}},
		},
		{
			name: "low confidence span discarded",
			preds: []tokenPrediction{
				{Entity: "B-COMPANY", Score: 0.2, Start: 23, End: 27},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeSpans(text, tt.preds, 0.5)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d spans %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i].Type != tt.want[i].Type || got[i].Text != tt.want[i].Text {
					t.Errorf("span[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
				if diff := got[i].Score - tt.want[i].Score; diff > 0.001 || diff < -0.001 {
					t.Errorf("span[%d].Score = %v, want %v", i, got[i].Score, tt.want[i].Score)
				}
			}
		})
	}
}

func TestHTTPExtractorExtract(t *testing.T) {
	text := "Thanks for applying to Acme Corp as Staff Engineer"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		preds := make([][]tokenPrediction, len(req.Inputs))
		preds[0] = []tokenPrediction{
			{Entity: "B-COMPANY", Score: 0.99, Start: 23, End: 27},
			{Entity: "I-COMPANY", Score: 0.98, Start: 28, End: 32},
			{Entity: "B-POSITION", Score: 0.97, Start: 36, End: 41},
			{Entity: "I-POSITION", Score: 0.96, Start: 42, End: 50},
		}
		json.NewEncoder(w).Encode(preds)
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL, "", 0.5, zerolog.Nop())
	candidates, err := e.Extract(context.Background(), []string{text})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Company() != "Acme Corp" {
		t.Errorf("Company = %q, want Acme Corp", candidates[0].Company())
	}
	if candidates[0].Position() != "Staff Engineer" {
		t.Errorf("Position = %q, want Staff Engineer", candidates[0].Position())
	}
}

func TestHTTPExtractorCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([][]tokenPrediction{})
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL, "", 0.5, zerolog.Nop())
	if _, err := e.Extract(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error on prediction count mismatch")
	}
}

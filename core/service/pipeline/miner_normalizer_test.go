package pipeline

import (
	"strings"
	"testing"
	"time"

	"jobminer/core/domain"
	"jobminer/pkg/cache"
)

func TestCleanSamples(t *testing.T) {
	n := NewNormalizer(1000, nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text passes through",
			input: "Thanks for applying to Acme",
			want:  "Thanks for applying to Acme",
		},
		{
			name:  "whitespace collapsed and trimmed",
			input: "  hello \n\n\t world  ",
			want:  "hello world",
		},
		{
			name:  "tags stripped",
			input: "<html><body><p>Your application was received.</p></body></html>",
			want:  "Your application was received.",
		},
		{
			name:  "script and style removed",
			input: "<html><head><style>p{color:red}</style></head><body><script>alert(1)</script><p>visible</p></body></html>",
			want:  "visible",
		},
		{
			name:  "hyperlink visible text survives",
			input: `<p>You applied for <a href="https://jobs.example.com/123">Software Engineer</a> at Acme</p>`,
			want:  "You applied for Software Engineer at Acme",
		},
		{
			name:  "entities decoded",
			input: "Acme&nbsp;Corp &amp; Sons",
			want:  "Acme Corp & Sons",
		},
		{
			name:  "buttons and images dropped",
			input: `<div><img src="x.png"/><button>View application</button>Position confirmed</div>`,
			want:  "Position confirmed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Clean(tt.input)
			// The collapse step folds non-breaking spaces like any other
			// whitespace once decoded.
			want := strings.Join(strings.Fields(tt.want), " ")
			if got != want {
				t.Errorf("Clean() = %q, want %q", got, want)
			}
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	n := NewNormalizer(200, nil)
	samples := []string{
		"plain body, nothing special",
		"<html><body><a href='x'>Engineer</a> role at <b>Acme</b></body></html>",
		"  spaced   out\n\ninput ",
		"&quot;quoted&quot; &amp; escaped",
		strings.Repeat("long body ", 100),
	}
	for _, s := range samples {
		once := n.Clean(s)
		twice := n.Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: first %q, second %q", s, once, twice)
		}
	}
}

func TestCleanTruncates(t *testing.T) {
	n := NewNormalizer(10, nil)
	got := n.Clean("aaaa bbbb cccc dddd")
	if len([]rune(got)) > 10 {
		t.Errorf("Clean() length = %d, want <= 10", len([]rune(got)))
	}
	if got != n.Clean(got) {
		t.Errorf("truncated output not stable: %q vs %q", got, n.Clean(got))
	}
}

func TestNormalizePrefersPlainTextLeaf(t *testing.T) {
	raw := &domain.RawMessage{
		ID:      "m1",
		Subject: " Offer update ",
		Payload: &domain.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*domain.MessagePart{
				{MimeType: "text/html", Data: []byte("<p>html version</p>")},
				{MimeType: "text/plain", Data: []byte("plain version")},
			},
		},
	}
	got := NewNormalizer(1000, nil).Normalize(raw)
	if got.BodyText != "plain version" {
		t.Errorf("BodyText = %q, want plain version", got.BodyText)
	}
	if got.Subject != "Offer update" {
		t.Errorf("Subject = %q, want trimmed", got.Subject)
	}
}

func TestNormalizeFallsBackToHTMLLeaf(t *testing.T) {
	raw := &domain.RawMessage{
		ID: "m2",
		Payload: &domain.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*domain.MessagePart{
				{MimeType: "image/png", Data: []byte{0x89}},
				{
					MimeType: "multipart/alternative",
					Parts: []*domain.MessagePart{
						{MimeType: "text/html", Data: []byte("<p>only html here</p>")},
					},
				},
			},
		},
	}
	got := NewNormalizer(1000, nil).Normalize(raw)
	if got.BodyText != "only html here" {
		t.Errorf("BodyText = %q, want only html here", got.BodyText)
	}
}

func TestNormalizeMemoizesByContent(t *testing.T) {
	memo := cache.NewMemoCache(10, time.Minute)
	n := NewNormalizer(1000, memo)
	raw := &domain.RawMessage{
		ID:      "m3",
		Payload: &domain.MessagePart{MimeType: "text/plain", Data: []byte("same body twice")},
	}

	first := n.Normalize(raw)
	if memo.Len() != 1 {
		t.Fatalf("memo.Len() = %d after first normalize, want 1", memo.Len())
	}
	second := n.Normalize(raw)
	if memo.Len() != 1 {
		t.Fatalf("memo.Len() = %d after second normalize, want 1", memo.Len())
	}
	if first.BodyText != second.BodyText {
		t.Errorf("memoized BodyText differs: %q vs %q", first.BodyText, second.BodyText)
	}
}

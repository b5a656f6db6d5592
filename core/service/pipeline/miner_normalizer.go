// Package pipeline implements the per-user email ingestion pipeline and its
// concurrency orchestrator.
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/net/html"

	"jobminer/core/domain"
	"jobminer/pkg/cache"
)

// Elements whose content never carries message text.
var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"meta":   true,
	"link":   true,
	"img":    true,
	"button": true,
}

// Normalizer reduces a raw provider payload to clean plain text, memoized by
// a fingerprint of the raw body since similar bodies recur within a cycle.
type Normalizer struct {
	maxLen int
	memo   *cache.MemoCache
}

// NewNormalizer creates a normalizer truncating bodies to maxLen runes with a
// bounded memoization cache shared across concurrent pipelines.
func NewNormalizer(maxLen int, memo *cache.MemoCache) *Normalizer {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &Normalizer{maxLen: maxLen, memo: memo}
}

// Normalize turns a raw message into its normalized view.
func (n *Normalizer) Normalize(raw *domain.RawMessage) *domain.NormalizedEmail {
	body := selectBodyPart(raw.Payload)
	return &domain.NormalizedEmail{
		Subject:  strings.TrimSpace(raw.Subject),
		BodyText: n.cleanCached(body),
	}
}

// cleanCached memoizes Clean by a hash of the raw input.
func (n *Normalizer) cleanCached(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if n.memo == nil {
		return n.Clean(string(body))
	}

	sum := sha256.Sum256(body)
	key := hex.EncodeToString(sum[:])
	if text, ok := n.memo.Get(key); ok {
		return text
	}
	text := n.Clean(string(body))
	n.memo.Set(key, text)
	return text
}

// Clean strips markup, decodes entities, collapses whitespace and truncates.
// It is pure and idempotent: Clean(Clean(x)) == Clean(x).
func (n *Normalizer) Clean(content string) string {
	if content == "" {
		return ""
	}

	text := extractText(content)
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > n.maxLen {
		text = strings.TrimSpace(string(runes[:n.maxLen]))
	}
	return text
}

// extractText parses content as HTML and collects visible text. Plain text
// passes through unchanged apart from entity decoding; hyperlink text
// survives because anchors contribute their child text nodes.
func extractText(content string) string {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skippedElements[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteByte(' ')
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return sb.String()
}

// selectBodyPart walks the part tree depth-first and returns the first
// text/plain leaf, falling back to the first text/html leaf found anywhere.
func selectBodyPart(part *domain.MessagePart) []byte {
	if part == nil {
		return nil
	}

	var htmlFallback []byte
	var walk func(*domain.MessagePart) []byte
	walk = func(p *domain.MessagePart) []byte {
		if p == nil {
			return nil
		}
		if p.MimeType == "text/plain" && len(p.Data) > 0 {
			return p.Data
		}
		if p.MimeType == "text/html" && len(p.Data) > 0 && htmlFallback == nil {
			htmlFallback = p.Data
		}
		for _, sub := range p.Parts {
			if plain := walk(sub); plain != nil {
				return plain
			}
		}
		return nil
	}

	if plain := walk(part); plain != nil {
		return plain
	}
	return htmlFallback
}

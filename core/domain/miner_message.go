// Package domain contains the core entities of the ingestion pipeline.
package domain

import "time"

// =============================================================================
// Raw Provider Message
// =============================================================================

// MessagePart is one node of a provider MIME tree. Data already carries the
// decoded bytes; a decode failure at fetch time surfaces as MalformedMessage
// and the message never reaches the pipeline.
type MessagePart struct {
	MimeType string
	Data     []byte
	Parts    []*MessagePart
}

// RawMessage is the ephemeral, per-cycle representation of one provider
// message. It is never persisted.
type RawMessage struct {
	ID         string
	Subject    string
	Payload    *MessagePart
	ReceivedAt time.Time
}

// =============================================================================
// Normalized Email
// =============================================================================

// NormalizedEmail is the cleaned, truncated plain-text view of a RawMessage.
// Lives only for one pipeline pass.
type NormalizedEmail struct {
	Subject  string
	BodyText string
}

// ClassifyText returns the text handed to the pre-filter and the classifier,
// subject and body joined by a single space.
func (e *NormalizedEmail) ClassifyText() string {
	if e.BodyText == "" {
		return e.Subject
	}
	return e.Subject + " " + e.BodyText
}

package domain

// Label is the coarse classification of one message.
type Label string

const (
	LabelConfirmation Label = "confirmation"
	LabelRejection    Label = "rejection"
	LabelUnrelated    Label = "unrelated"
)

// ClassificationResult is the validated boundary type for a classifier reply.
// Score is optional; adapters that have no confidence report 0.
type ClassificationResult struct {
	Label Label
	Score float64
}

// Entity types produced by the span extractor.
const (
	EntityCompany  = "COMPANY"
	EntityPosition = "POSITION"
)

// EntitySpan is one merged token span from the extraction service.
type EntitySpan struct {
	Type  string
	Text  string
	Score float64
}

// EntityCandidates holds the company and position candidates found in one
// text, ordered by first occurrence. The first entry of each list is the
// canonical pick for the message.
type EntityCandidates struct {
	Companies []string
	Positions []string
}

// Company returns the canonical company for the message, or "" if none.
func (c *EntityCandidates) Company() string {
	if len(c.Companies) == 0 {
		return ""
	}
	return c.Companies[0]
}

// Position returns the canonical position for the message, or "" if none.
func (c *EntityCandidates) Position() string {
	if len(c.Positions) == 0 {
		return ""
	}
	return c.Positions[0]
}

package domain

import (
	"strings"
	"time"
)

// UnknownPosition is the sentinel stored when no job title could be extracted.
// It participates in the (user, company, title) uniqueness key like any other
// title; it is distinct from an absent value.
const UnknownPosition = "unknown position"

// JobApplicationRecord is the only entity with persistent lifetime. One row
// exists per (UserEmail, Company, JobTitle); Company and JobTitle are stored
// case-folded and trimmed.
type JobApplicationRecord struct {
	UserEmail   string    `db:"user_email" json:"user_email"`
	Company     string    `db:"company" json:"company"`
	JobTitle    string    `db:"job_title" json:"job_title"`
	AppliedDate time.Time `db:"applied_date" json:"applied_date"`
}

// FoldKey normalizes a company or title for keying and storage.
func FoldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewApplication builds a candidate record from extracted entities, applying
// case-folding and the sentinel title.
func NewApplication(userEmail, company, position string, appliedAt time.Time) JobApplicationRecord {
	title := FoldKey(position)
	if title == "" {
		title = UnknownPosition
	}
	return JobApplicationRecord{
		UserEmail:   userEmail,
		Company:     FoldKey(company),
		JobTitle:    title,
		AppliedDate: appliedAt,
	}
}

// HasKnownTitle reports whether the record carries a real extracted title
// rather than the sentinel.
func (r *JobApplicationRecord) HasKnownTitle() bool {
	return r.JobTitle != UnknownPosition
}

package domain

import "time"

// SkipReason says why a message produced no candidate record. Skips are data,
// not control flow: every message resolves to either a record or a reason.
type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipAlreadyProcessed SkipReason = "already_processed"
	SkipMalformed        SkipReason = "malformed"
	SkipRejection        SkipReason = "rejection"
	SkipUnrelated        SkipReason = "unrelated"
	SkipNoCompany        SkipReason = "no_company"
	SkipDuplicate        SkipReason = "duplicate"
	SkipConflict         SkipReason = "conflict"
)

// MessageOutcome is the per-message result of one pipeline pass.
type MessageOutcome struct {
	MessageID string
	Record    *JobApplicationRecord
	Skip      SkipReason
}

// Skipped reports whether the message yielded no record.
func (o *MessageOutcome) Skipped() bool {
	return o.Record == nil
}

// =============================================================================
// Cycle Reporting
// =============================================================================

// UserCycleResult aggregates one user's pipeline pass.
type UserCycleResult struct {
	UserEmail string                `json:"user_email" bson:"user_email"`
	Processed int                   `json:"processed" bson:"processed"`
	Skipped   int                   `json:"skipped" bson:"skipped"`
	SkipsBy   map[SkipReason]int    `json:"skips_by,omitempty" bson:"skips_by,omitempty"`
	Err       string                `json:"error,omitempty" bson:"error,omitempty"`
}

// Failed reports whether the user's pipeline ended in a caught failure.
func (r *UserCycleResult) Failed() bool {
	return r.Err != ""
}

// CycleReport aggregates one full orchestrator cycle across users.
type CycleReport struct {
	CycleID    string            `json:"cycle_id" bson:"cycle_id"`
	StartedAt  time.Time         `json:"started_at" bson:"started_at"`
	FinishedAt time.Time         `json:"finished_at" bson:"finished_at"`
	Users      []UserCycleResult `json:"users" bson:"users"`
}

// Totals sums processed and skipped counts across users.
func (r *CycleReport) Totals() (processed, skipped int) {
	for i := range r.Users {
		processed += r.Users[i].Processed
		skipped += r.Users[i].Skipped
	}
	return processed, skipped
}

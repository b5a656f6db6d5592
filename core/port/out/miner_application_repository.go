package out

import (
	"context"

	"jobminer/core/domain"
)

// UpsertResult reports how a batch write landed. Conflicts are not errors:
// a row colliding with the (user, company, title) key is counted as skipped.
type UpsertResult struct {
	Inserted int
	Skipped  int
}

// ApplicationRepository is the storage boundary for job application records.
type ApplicationRepository interface {
	// UpsertBatch writes candidate records in chunks with insert-or-ignore
	// semantics. A failing chunk rolls back that chunk only.
	UpsertBatch(ctx context.Context, records []domain.JobApplicationRecord) (*UpsertResult, error)

	// CompaniesWithKnownTitle returns the subset of companies that already
	// have a non-sentinel title stored for this user.
	CompaniesWithKnownTitle(ctx context.Context, userEmail string, companies []string) (map[string]bool, error)
}

// ApplicationReader serves the read side of the trigger surface.
type ApplicationReader interface {
	// ListByUser returns all stored applications for a user, newest first.
	ListByUser(ctx context.Context, userEmail string) ([]domain.JobApplicationRecord, error)
}

// CycleReportStore persists per-cycle aggregate reports.
type CycleReportStore interface {
	SaveReport(ctx context.Context, report *domain.CycleReport) error
}

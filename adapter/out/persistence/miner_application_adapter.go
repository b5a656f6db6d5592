// Package persistence provides PostgreSQL adapters.
package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"jobminer/core/domain"
	"jobminer/core/port/out"
	"jobminer/pkg/apperr"
)

// upsertChunkSize bounds the multi-row insert so one bad chunk cannot take
// down a whole batch, and parameter counts stay well under the wire limit.
const upsertChunkSize = 50

// ApplicationAdapter implements out.ApplicationRepository using PostgreSQL.
type ApplicationAdapter struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewApplicationAdapter creates the adapter.
func NewApplicationAdapter(db *sqlx.DB, log zerolog.Logger) *ApplicationAdapter {
	return &ApplicationAdapter{
		db:  db,
		log: log.With().Str("component", "application_repository").Logger(),
	}
}

// UpsertBatch writes records with insert-or-ignore semantics on the
// (user_email, company, job_title) key. Each chunk runs in its own
// transaction; a chunk failure rolls back that chunk only and fails the
// batch after the surviving chunks landed.
func (a *ApplicationAdapter) UpsertBatch(ctx context.Context, records []domain.JobApplicationRecord) (*out.UpsertResult, error) {
	result := &out.UpsertResult{}
	if len(records) == 0 {
		return result, nil
	}

	var firstErr error
	for start := 0; start < len(records); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(records) {
			end = len(records)
		}

		inserted, err := a.upsertChunk(ctx, records[start:end])
		if err != nil {
			a.log.Error().Err(err).Int("chunk_size", end-start).Msg("upsert chunk failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		result.Inserted += inserted
		result.Skipped += (end - start) - inserted
	}

	if firstErr != nil {
		return result, apperr.Wrap(firstErr, apperr.CodeDatabaseError, "upsert batch failed", 500)
	}
	return result, nil
}

func (a *ApplicationAdapter) upsertChunk(ctx context.Context, records []domain.JobApplicationRecord) (int, error) {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args := buildUpsertQuery(records)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert chunk: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit chunk: %w", err)
	}
	return int(inserted), nil
}

// buildUpsertQuery renders the multi-row insert-or-ignore statement.
func buildUpsertQuery(records []domain.JobApplicationRecord) (string, []interface{}) {
	placeholders := make([]string, len(records))
	args := make([]interface{}, 0, len(records)*4)
	for i, rec := range records {
		base := i * 4
		placeholders[i] = fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, rec.UserEmail, rec.Company, rec.JobTitle, rec.AppliedDate)
	}

	query := `
		INSERT INTO job_applications (user_email, company, job_title, applied_date)
		VALUES ` + strings.Join(placeholders, ", ") + `
		ON CONFLICT (user_email, company, job_title) DO NOTHING`
	return query, args
}

// CompaniesWithKnownTitle returns the subset of companies that already have
// a non-sentinel title stored for this user.
func (a *ApplicationAdapter) CompaniesWithKnownTitle(ctx context.Context, userEmail string, companies []string) (map[string]bool, error) {
	known := make(map[string]bool, len(companies))
	if len(companies) == 0 {
		return known, nil
	}

	query := `
		SELECT DISTINCT company
		FROM job_applications
		WHERE user_email = $1
		  AND company = ANY($2)
		  AND job_title <> $3`

	var found []string
	if err := a.db.SelectContext(ctx, &found, query, userEmail, pq.Array(companies), domain.UnknownPosition); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "known-title lookup failed", 500)
	}

	for _, company := range found {
		known[company] = true
	}
	return known, nil
}

// ListByUser returns all stored applications for a user, newest first.
func (a *ApplicationAdapter) ListByUser(ctx context.Context, userEmail string) ([]domain.JobApplicationRecord, error) {
	var records []domain.JobApplicationRecord
	query := `
		SELECT user_email, company, job_title, applied_date
		FROM job_applications
		WHERE user_email = $1
		ORDER BY applied_date DESC`

	if err := a.db.SelectContext(ctx, &records, query, userEmail); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "list applications failed", 500)
	}
	return records, nil
}

var _ out.ApplicationRepository = (*ApplicationAdapter)(nil)

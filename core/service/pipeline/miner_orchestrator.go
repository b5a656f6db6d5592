package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/pool"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jobminer/core/domain"
	"jobminer/core/port/out"
	"jobminer/pkg/retry"
)

// UserRunner runs one user's full pipeline pass. Implemented by UserPipeline.
type UserRunner interface {
	Run(ctx context.Context, userEmail string) *domain.UserCycleResult
}

// Orchestrator fans out per-user pipelines under a bounded worker budget.
// A pipeline's failure is caught and reported; siblings are unaffected.
type Orchestrator struct {
	runner   UserRunner
	creds    out.CredentialStore
	reports  out.CycleReportStore
	retryCfg retry.Config
	limit    int
	log      zerolog.Logger
}

// NewOrchestrator creates an orchestrator with at most limit concurrent
// per-user pipelines. reports may be nil.
func NewOrchestrator(runner UserRunner, creds out.CredentialStore, reports out.CycleReportStore, limit int, retryCfg retry.Config, log zerolog.Logger) *Orchestrator {
	if limit <= 0 {
		limit = 5
	}
	return &Orchestrator{
		runner:   runner,
		creds:    creds,
		reports:  reports,
		retryCfg: retryCfg,
		limit:    limit,
		log:      log.With().Str("component", "orchestrator").Logger(),
	}
}

// RunUserCycle runs a single user's pipeline.
func (o *Orchestrator) RunUserCycle(ctx context.Context, userEmail string) *domain.UserCycleResult {
	return o.runner.Run(ctx, userEmail)
}

// cycleWorker implements pool.Worker for user emails.
type cycleWorker struct {
	orch    *Orchestrator
	mu      sync.Mutex
	results []domain.UserCycleResult
}

// Do runs one user's pipeline and collects the result. It never returns an
// error: failures live inside the result so the pool keeps draining.
func (w *cycleWorker) Do(ctx context.Context, userEmail string) error {
	res := w.orch.runner.Run(ctx, userEmail)
	w.mu.Lock()
	w.results = append(w.results, *res)
	w.mu.Unlock()
	return nil
}

// RunAllCycle enumerates all known users and runs their pipelines with
// bounded concurrency. Returns an error only when the cycle cannot start.
func (o *Orchestrator) RunAllCycle(ctx context.Context) (*domain.CycleReport, error) {
	var users []string
	err := retry.Do(ctx, o.retryCfg, func(ctx context.Context) error {
		var lerr error
		users, lerr = o.creds.ListUsers(ctx)
		return lerr
	})
	if err != nil {
		return nil, err
	}

	report := &domain.CycleReport{
		CycleID:   uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	o.log.Info().Str("cycle_id", report.CycleID).Int("users", len(users)).Msg("cycle started")

	worker := &cycleWorker{orch: o}
	wg := pool.New[string](o.limit, worker).WithContinueOnError()
	if err := wg.Go(ctx); err != nil {
		return nil, err
	}
	for _, userEmail := range users {
		wg.Submit(userEmail)
	}
	if err := wg.Close(ctx); err != nil && ctx.Err() != nil {
		// Only context cancellation aborts a cycle; per-user failures are
		// already captured in their results.
		return nil, err
	}

	report.FinishedAt = time.Now().UTC()
	worker.mu.Lock()
	report.Users = worker.results
	worker.mu.Unlock()

	processed, skipped := report.Totals()
	o.log.Info().
		Str("cycle_id", report.CycleID).
		Int("processed", processed).
		Int("skipped", skipped).
		Int("users", len(report.Users)).
		Msg("cycle finished")

	if o.reports != nil {
		if err := o.reports.SaveReport(ctx, report); err != nil {
			o.log.Warn().Err(err).Str("cycle_id", report.CycleID).Msg("failed to save cycle report")
		}
	}
	return report, nil
}

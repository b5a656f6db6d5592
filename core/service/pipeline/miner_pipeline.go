package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"jobminer/core/domain"
	"jobminer/core/port/out"
	"jobminer/pkg/apperr"
	"jobminer/pkg/cache"
	"jobminer/pkg/retry"
)

// Config holds per-user pipeline settings.
type Config struct {
	FetchWindowHours  int
	FetchPageSize     int
	ClassifyBatchSize int
	Retry             retry.Config
}

// DefaultConfig mirrors production defaults: 24h window, 50-message pages,
// classification batches of 16.
func DefaultConfig() Config {
	return Config{
		FetchWindowHours:  24,
		FetchPageSize:     50,
		ClassifyBatchSize: 16,
		Retry:             retry.DefaultConfig(),
	}
}

// UserPipeline composes fetch, normalize, pre-filter, classify, extract,
// merge and upsert for one user. Stages run strictly sequentially; every
// message resolves to a record or a skip reason before merge runs.
type UserPipeline struct {
	creds      out.CredentialStore
	providers  out.MailProviderFactory
	classifier out.Classifier
	extractor  out.EntityExtractor
	repo       out.ApplicationRepository
	marker     *cache.ProcessedMarker
	normalizer *Normalizer
	filter     *RejectionFilter
	cfg        Config
	log        zerolog.Logger
	now        func() time.Time
}

// NewUserPipeline wires a pipeline from its ports.
func NewUserPipeline(
	creds out.CredentialStore,
	providers out.MailProviderFactory,
	classifier out.Classifier,
	extractor out.EntityExtractor,
	repo out.ApplicationRepository,
	marker *cache.ProcessedMarker,
	normalizer *Normalizer,
	cfg Config,
	log zerolog.Logger,
) *UserPipeline {
	return &UserPipeline{
		creds:      creds,
		providers:  providers,
		classifier: classifier,
		extractor:  extractor,
		repo:       repo,
		marker:     marker,
		normalizer: normalizer,
		filter:     NewRejectionFilter(),
		cfg:        cfg,
		log:        log.With().Str("component", "user_pipeline").Logger(),
		now:        time.Now,
	}
}

// pendingMessage carries a message between stages.
type pendingMessage struct {
	raw  *domain.RawMessage
	norm *domain.NormalizedEmail
}

// Run executes one full pipeline pass for userEmail. Per-message failures
// are recorded as skips; per-user failures are caught and reported in the
// result, never propagated.
func (p *UserPipeline) Run(ctx context.Context, userEmail string) (res *domain.UserCycleResult) {
	res = &domain.UserCycleResult{
		UserEmail: userEmail,
		SkipsBy:   make(map[domain.SkipReason]int),
	}
	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Sprintf("panic: %v", r)
			p.log.Error().Interface("panic", r).Str("user", userEmail).Msg("pipeline panicked")
		}
	}()

	outcomes, err := p.process(ctx, userEmail, res)
	if err != nil {
		res.Err = err.Error()
		p.log.Error().Err(err).Str("user", userEmail).Msg("pipeline failed")
		return res
	}

	for i := range outcomes {
		if outcomes[i].Skipped() {
			res.SkipsBy[outcomes[i].Skip]++
		}
	}
	for _, n := range res.SkipsBy {
		res.Skipped += n
	}

	p.log.Info().
		Str("user", userEmail).
		Int("processed", res.Processed).
		Int("skipped", res.Skipped).
		Dur("elapsed", p.now().Sub(start)).
		Msg("pipeline cycle complete")
	return res
}

func (p *UserPipeline) process(ctx context.Context, userEmail string, res *domain.UserCycleResult) ([]domain.MessageOutcome, error) {
	creds, err := p.creds.GetValidCredentials(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	provider, err := p.providers.ForUser(ctx, creds)
	if err != nil {
		return nil, err
	}

	outcomes, pendings, err := p.fetchAndNormalize(ctx, userEmail, provider)
	if err != nil {
		return nil, err
	}

	// Rejection pre-filter: a hit short-circuits the model stages entirely.
	toClassify := pendings[:0]
	for _, pm := range pendings {
		if p.filter.IsRejection(pm.norm.ClassifyText()) {
			outcomes = p.skip(ctx, outcomes, userEmail, pm.raw.ID, domain.SkipRejection)
			continue
		}
		toClassify = append(toClassify, pm)
	}

	confirmed, outcomes := p.classifyStage(ctx, userEmail, toClassify, outcomes)
	records, recordIDs, outcomes := p.extractStage(ctx, userEmail, confirmed, outcomes)

	merged, duplicates := MergeBatch(records)
	res.SkipsBy[domain.SkipDuplicate] += duplicates

	if sentinels := SentinelCompanies(merged); len(sentinels) > 0 {
		var known map[string]bool
		err := retry.Do(ctx, p.cfg.Retry, func(ctx context.Context) error {
			var qerr error
			known, qerr = p.repo.CompaniesWithKnownTitle(ctx, userEmail, sentinels)
			return qerr
		})
		if err != nil {
			return nil, err
		}
		var dropped int
		merged, dropped = FilterKnownSentinels(merged, known)
		res.SkipsBy[domain.SkipDuplicate] += dropped
	}

	var upserted *out.UpsertResult
	err = retry.Do(ctx, p.cfg.Retry, func(ctx context.Context) error {
		var uerr error
		upserted, uerr = p.repo.UpsertBatch(ctx, merged)
		return uerr
	})
	if err != nil {
		return nil, err
	}

	res.Processed = upserted.Inserted
	res.SkipsBy[domain.SkipConflict] += upserted.Skipped

	// Record-producing messages are only marked once their batch landed.
	for _, id := range recordIDs {
		p.marker.Mark(ctx, userEmail, id)
	}
	return outcomes, nil
}

// fetchAndNormalize pages through the provider listing and pulls full
// payloads. Provider errors that survive the retry budget are terminal for
// this user's cycle; an undecodable message is skipped and counted.
func (p *UserPipeline) fetchAndNormalize(ctx context.Context, userEmail string, provider out.MailProvider) ([]domain.MessageOutcome, []pendingMessage, error) {
	var outcomes []domain.MessageOutcome
	var pendings []pendingMessage

	query := &out.ListQuery{
		NewerThanHours: p.cfg.FetchWindowHours,
		PageSize:       p.cfg.FetchPageSize,
	}
	for {
		var page *out.MessagePage
		err := retry.Do(ctx, p.cfg.Retry, func(ctx context.Context) error {
			var lerr error
			page, lerr = provider.ListMessageIDs(ctx, query)
			return lerr
		})
		if err != nil {
			return nil, nil, err
		}

		for _, id := range page.IDs {
			if p.marker.Seen(ctx, userEmail, id) {
				outcomes = append(outcomes, domain.MessageOutcome{MessageID: id, Skip: domain.SkipAlreadyProcessed})
				continue
			}

			var raw *domain.RawMessage
			err := retry.Do(ctx, p.cfg.Retry, func(ctx context.Context) error {
				var gerr error
				raw, gerr = provider.GetMessage(ctx, id)
				return gerr
			})
			if err != nil {
				if apperr.IsMalformed(err) {
					outcomes = p.skip(ctx, outcomes, userEmail, id, domain.SkipMalformed)
					continue
				}
				return nil, nil, err
			}

			pendings = append(pendings, pendingMessage{raw: raw, norm: p.normalizer.Normalize(raw)})
		}

		if page.NextPageToken == "" {
			return outcomes, pendings, nil
		}
		query.PageToken = page.NextPageToken
	}
}

// classifyStage labels the surviving messages in batches. When a batch fails
// past the retry budget every message in it falls back to unrelated: false
// negatives are preferred over polluting storage.
func (p *UserPipeline) classifyStage(ctx context.Context, userEmail string, pendings []pendingMessage, outcomes []domain.MessageOutcome) ([]pendingMessage, []domain.MessageOutcome) {
	var confirmed []pendingMessage

	for _, batch := range chunk(pendings, p.cfg.ClassifyBatchSize) {
		texts := make([]string, len(batch))
		for i, pm := range batch {
			texts[i] = pm.norm.ClassifyText()
		}

		var results []domain.ClassificationResult
		err := retry.Do(ctx, p.cfg.Retry, func(ctx context.Context) error {
			var cerr error
			results, cerr = p.classifier.Classify(ctx, texts)
			return cerr
		})
		if err != nil || len(results) != len(batch) {
			p.log.Warn().Err(err).Str("user", userEmail).Int("batch", len(batch)).
				Msg("classification failed, defaulting batch to unrelated")
			results = nil
		}

		for i, pm := range batch {
			if results != nil && results[i].Label == domain.LabelConfirmation {
				confirmed = append(confirmed, pm)
				continue
			}
			reason := domain.SkipUnrelated
			if results != nil && results[i].Label == domain.LabelRejection {
				reason = domain.SkipRejection
			}
			outcomes = p.skip(ctx, outcomes, userEmail, pm.raw.ID, reason)
		}
	}
	return confirmed, outcomes
}

// extractStage pulls entity candidates for confirmed messages. Extractor
// failure yields empty candidates; messages without a company are skipped.
func (p *UserPipeline) extractStage(ctx context.Context, userEmail string, pendings []pendingMessage, outcomes []domain.MessageOutcome) ([]domain.JobApplicationRecord, []string, []domain.MessageOutcome) {
	var records []domain.JobApplicationRecord
	var recordIDs []string

	for _, batch := range chunk(pendings, p.cfg.ClassifyBatchSize) {
		texts := make([]string, len(batch))
		for i, pm := range batch {
			texts[i] = pm.norm.ClassifyText()
		}

		var candidates []domain.EntityCandidates
		err := retry.Do(ctx, p.cfg.Retry, func(ctx context.Context) error {
			var xerr error
			candidates, xerr = p.extractor.Extract(ctx, texts)
			return xerr
		})
		if err != nil || len(candidates) != len(batch) {
			p.log.Warn().Err(err).Str("user", userEmail).Int("batch", len(batch)).
				Msg("extraction failed, treating batch as candidate-less")
			candidates = make([]domain.EntityCandidates, len(batch))
		}

		for i, pm := range batch {
			company := candidates[i].Company()
			if company == "" {
				outcomes = p.skip(ctx, outcomes, userEmail, pm.raw.ID, domain.SkipNoCompany)
				continue
			}

			appliedAt := pm.raw.ReceivedAt
			if appliedAt.IsZero() {
				appliedAt = p.now()
			}
			rec := domain.NewApplication(userEmail, company, candidates[i].Position(), appliedAt)
			records = append(records, rec)
			recordIDs = append(recordIDs, pm.raw.ID)
			outcomes = append(outcomes, domain.MessageOutcome{MessageID: pm.raw.ID, Record: &rec})
		}
	}
	return records, recordIDs, outcomes
}

// skip finalizes a message with a reason and marks it processed so the next
// cycle within the window does not refetch it.
func (p *UserPipeline) skip(ctx context.Context, outcomes []domain.MessageOutcome, userEmail, messageID string, reason domain.SkipReason) []domain.MessageOutcome {
	p.marker.Mark(ctx, userEmail, messageID)
	return append(outcomes, domain.MessageOutcome{MessageID: messageID, Skip: reason})
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

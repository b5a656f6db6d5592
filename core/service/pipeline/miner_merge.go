package pipeline

import "jobminer/core/domain"

// MergeBatch reconciles repeated company mentions within one fetch cycle.
// Records are grouped by their already case-folded company; a non-sentinel
// title beats the sentinel, and between two distinct known titles the
// first-seen wins. Returns the kept records in first-seen order and the
// number of records merged away.
func MergeBatch(records []domain.JobApplicationRecord) ([]domain.JobApplicationRecord, int) {
	kept := make([]domain.JobApplicationRecord, 0, len(records))
	index := make(map[string]int, len(records))
	dropped := 0

	for _, rec := range records {
		if rec.Company == "" {
			dropped++
			continue
		}
		i, seen := index[rec.Company]
		if !seen {
			index[rec.Company] = len(kept)
			kept = append(kept, rec)
			continue
		}
		dropped++
		// Upgrade a sentinel title when a later message knows the real one.
		if !kept[i].HasKnownTitle() && rec.HasKnownTitle() {
			kept[i] = rec
		}
	}
	return kept, dropped
}

// FilterKnownSentinels applies storage reconciliation: a sentinel-titled
// record whose company already has a known title stored for this user is
// dropped entirely, so less-informative data never lands next to an existing
// record. knownTitle is keyed by case-folded company.
func FilterKnownSentinels(records []domain.JobApplicationRecord, knownTitle map[string]bool) ([]domain.JobApplicationRecord, int) {
	kept := records[:0]
	dropped := 0
	for _, rec := range records {
		if !rec.HasKnownTitle() && knownTitle[rec.Company] {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, dropped
}

// SentinelCompanies lists the companies in the batch whose kept title is the
// sentinel; only those need the storage lookup.
func SentinelCompanies(records []domain.JobApplicationRecord) []string {
	var companies []string
	for _, rec := range records {
		if !rec.HasKnownTitle() {
			companies = append(companies, rec.Company)
		}
	}
	return companies
}

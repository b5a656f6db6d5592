package pipeline

import (
	"testing"
	"time"

	"jobminer/core/domain"
)

var mergeAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func app(company, position string) domain.JobApplicationRecord {
	return domain.NewApplication("user@example.com", company, position, mergeAt)
}

func TestMergeBatch(t *testing.T) {
	tests := []struct {
		name        string
		in          []domain.JobApplicationRecord
		wantTitles  map[string]string
		wantDropped int
	}{
		{
			name:        "empty batch",
			in:          nil,
			wantTitles:  map[string]string{},
			wantDropped: 0,
		},
		{
			name: "distinct companies untouched",
			in: []domain.JobApplicationRecord{
				app("Acme", "Software Engineer"),
				app("Globex", "Data Analyst"),
			},
			wantTitles:  map[string]string{"acme": "software engineer", "globex": "data analyst"},
			wantDropped: 0,
		},
		{
			name: "known title beats sentinel",
			in: []domain.JobApplicationRecord{
				app("Acme", ""),
				app("Acme", "Software Engineer"),
			},
			wantTitles:  map[string]string{"acme": "software engineer"},
			wantDropped: 1,
		},
		{
			name: "sentinel arriving later is merged away",
			in: []domain.JobApplicationRecord{
				app("Acme", "Software Engineer"),
				app("Acme", ""),
			},
			wantTitles:  map[string]string{"acme": "software engineer"},
			wantDropped: 1,
		},
		{
			name: "first seen wins between two known titles",
			in: []domain.JobApplicationRecord{
				app("Acme", "Software Engineer"),
				app("Acme", "Senior Engineer"),
			},
			wantTitles:  map[string]string{"acme": "software engineer"},
			wantDropped: 1,
		},
		{
			name: "case folded companies collapse",
			in: []domain.JobApplicationRecord{
				app("ACME", ""),
				app("acme", "Engineer"),
			},
			wantTitles:  map[string]string{"acme": "engineer"},
			wantDropped: 1,
		},
		{
			name: "empty company dropped",
			in: []domain.JobApplicationRecord{
				app("", "Engineer"),
				app("Acme", "Engineer"),
			},
			wantTitles:  map[string]string{"acme": "engineer"},
			wantDropped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, dropped := MergeBatch(tt.in)
			if dropped != tt.wantDropped {
				t.Errorf("dropped = %d, want %d", dropped, tt.wantDropped)
			}
			if len(kept) != len(tt.wantTitles) {
				t.Fatalf("kept %d records, want %d", len(kept), len(tt.wantTitles))
			}
			for _, rec := range kept {
				want, ok := tt.wantTitles[rec.Company]
				if !ok {
					t.Errorf("unexpected company %q", rec.Company)
					continue
				}
				if rec.JobTitle != want {
					t.Errorf("company %q title = %q, want %q", rec.Company, rec.JobTitle, want)
				}
			}
		})
	}
}

func TestMergeBatchPreservesFirstSeenOrder(t *testing.T) {
	in := []domain.JobApplicationRecord{
		app("Globex", "Analyst"),
		app("Acme", ""),
		app("Initech", "Engineer"),
		app("Acme", "Software Engineer"),
	}
	kept, _ := MergeBatch(in)
	wantOrder := []string{"globex", "acme", "initech"}
	if len(kept) != len(wantOrder) {
		t.Fatalf("kept %d, want %d", len(kept), len(wantOrder))
	}
	for i, company := range wantOrder {
		if kept[i].Company != company {
			t.Errorf("kept[%d].Company = %q, want %q", i, kept[i].Company, company)
		}
	}
}

func TestFilterKnownSentinels(t *testing.T) {
	records := []domain.JobApplicationRecord{
		app("Acme", ""),     // sentinel, storage knows a real title -> dropped
		app("Globex", ""),   // sentinel, storage knows nothing -> kept
		app("Initech", "Engineer"), // known title always kept
	}
	known := map[string]bool{"acme": true}

	kept, dropped := FilterKnownSentinels(records, known)
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(kept) != 2 {
		t.Fatalf("kept %d, want 2", len(kept))
	}
	if kept[0].Company != "globex" || kept[1].Company != "initech" {
		t.Errorf("kept companies = [%s %s], want [globex initech]", kept[0].Company, kept[1].Company)
	}
}

func TestSentinelCompanies(t *testing.T) {
	records := []domain.JobApplicationRecord{
		app("Acme", "Engineer"),
		app("Globex", ""),
		app("Initech", ""),
	}
	got := SentinelCompanies(records)
	if len(got) != 2 || got[0] != "globex" || got[1] != "initech" {
		t.Errorf("SentinelCompanies = %v, want [globex initech]", got)
	}
}

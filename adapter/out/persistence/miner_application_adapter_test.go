package persistence

import (
	"strings"
	"testing"
	"time"

	"jobminer/core/domain"
)

func TestBuildUpsertQuery(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	records := []domain.JobApplicationRecord{
		{UserEmail: "a@example.com", Company: "acme", JobTitle: "engineer", AppliedDate: at},
		{UserEmail: "a@example.com", Company: "globex", JobTitle: domain.UnknownPosition, AppliedDate: at},
	}

	query, args := buildUpsertQuery(records)

	if !strings.Contains(query, "ON CONFLICT (user_email, company, job_title) DO NOTHING") {
		t.Errorf("query missing conflict clause:\n%s", query)
	}
	if !strings.Contains(query, "($1, $2, $3, $4)") || !strings.Contains(query, "($5, $6, $7, $8)") {
		t.Errorf("query missing row placeholders:\n%s", query)
	}
	if len(args) != 8 {
		t.Fatalf("got %d args, want 8", len(args))
	}
	if args[0] != "a@example.com" || args[1] != "acme" || args[2] != "engineer" {
		t.Errorf("first row args = %v", args[:4])
	}
	if args[5] != "globex" || args[6] != domain.UnknownPosition {
		t.Errorf("second row args = %v", args[4:])
	}
}

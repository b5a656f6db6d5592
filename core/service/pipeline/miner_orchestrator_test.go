package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"jobminer/core/domain"
	"jobminer/pkg/apperr"
)

// countingRunner tracks how many pipelines run at once.
type countingRunner struct {
	active  atomic.Int32
	peak    atomic.Int32
	total   atomic.Int32
	failFor map[string]bool
	delay   time.Duration
}

func (r *countingRunner) Run(_ context.Context, userEmail string) *domain.UserCycleResult {
	cur := r.active.Add(1)
	for {
		peak := r.peak.Load()
		if cur <= peak || r.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.total.Add(1)
	r.active.Add(-1)

	res := &domain.UserCycleResult{UserEmail: userEmail, Processed: 1}
	if r.failFor[userEmail] {
		res.Processed = 0
		res.Err = "simulated pipeline failure"
	}
	return res
}

type listOnlyCreds struct {
	users []string
	err   error
}

func (c *listOnlyCreds) GetValidCredentials(context.Context, string) (*oauth2.Token, error) {
	return nil, errors.New("not used")
}

func (c *listOnlyCreds) ListUsers(context.Context) ([]string, error) {
	return c.users, c.err
}

type capturingReports struct {
	mu    sync.Mutex
	saved []*domain.CycleReport
	err   error
}

func (s *capturingReports) SaveReport(_ context.Context, report *domain.CycleReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, report)
	return nil
}

func manyUsers(n int) []string {
	users := make([]string, n)
	for i := range users {
		users[i] = fmt.Sprintf("user%02d@example.com", i)
	}
	return users
}

func TestRunAllCycleBoundsConcurrency(t *testing.T) {
	const limit = 3
	runner := &countingRunner{delay: 20 * time.Millisecond}
	creds := &listOnlyCreds{users: manyUsers(12)}

	o := NewOrchestrator(runner, creds, nil, limit, fastRetry(), zerolog.Nop())
	report, err := o.RunAllCycle(context.Background())
	if err != nil {
		t.Fatalf("RunAllCycle: %v", err)
	}

	if got := runner.total.Load(); got != 12 {
		t.Errorf("ran %d pipelines, want 12", got)
	}
	if peak := runner.peak.Load(); peak > limit {
		t.Errorf("peak concurrency = %d, exceeds limit %d", peak, limit)
	}
	if len(report.Users) != 12 {
		t.Errorf("report has %d users, want 12", len(report.Users))
	}
	if report.CycleID == "" {
		t.Error("report missing cycle id")
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}
}

func TestRunAllCycleIsolatesFailures(t *testing.T) {
	runner := &countingRunner{failFor: map[string]bool{"user01@example.com": true}}
	creds := &listOnlyCreds{users: manyUsers(4)}
	reports := &capturingReports{}

	o := NewOrchestrator(runner, creds, reports, 2, fastRetry(), zerolog.Nop())
	report, err := o.RunAllCycle(context.Background())
	if err != nil {
		t.Fatalf("RunAllCycle: %v", err)
	}

	var failed, succeeded int
	for i := range report.Users {
		if report.Users[i].Failed() {
			failed++
		} else {
			succeeded++
		}
	}
	if failed != 1 || succeeded != 3 {
		t.Errorf("failed=%d succeeded=%d, want 1/3", failed, succeeded)
	}

	processed, _ := report.Totals()
	if processed != 3 {
		t.Errorf("total processed = %d, want 3", processed)
	}

	if len(reports.saved) != 1 {
		t.Fatalf("saved %d reports, want 1", len(reports.saved))
	}
	if reports.saved[0].CycleID != report.CycleID {
		t.Error("saved report differs from returned report")
	}
}

func TestRunAllCycleListFailureAborts(t *testing.T) {
	creds := &listOnlyCreds{err: apperr.TransientNetwork(errors.New("token store down"), "postgres")}
	o := NewOrchestrator(&countingRunner{}, creds, nil, 2, fastRetry(), zerolog.Nop())

	if _, err := o.RunAllCycle(context.Background()); err == nil {
		t.Fatal("expected error when user enumeration never succeeds")
	}
}

func TestRunAllCycleEmptyUserList(t *testing.T) {
	o := NewOrchestrator(&countingRunner{}, &listOnlyCreds{}, nil, 2, fastRetry(), zerolog.Nop())
	report, err := o.RunAllCycle(context.Background())
	if err != nil {
		t.Fatalf("RunAllCycle: %v", err)
	}
	if len(report.Users) != 0 {
		t.Errorf("report has %d users, want 0", len(report.Users))
	}
}

func TestRunAllCycleReportSaveFailureIsNonFatal(t *testing.T) {
	reports := &capturingReports{err: errors.New("mongo down")}
	o := NewOrchestrator(&countingRunner{}, &listOnlyCreds{users: manyUsers(2)}, reports, 2, fastRetry(), zerolog.Nop())

	report, err := o.RunAllCycle(context.Background())
	if err != nil {
		t.Fatalf("RunAllCycle: %v", err)
	}
	if len(report.Users) != 2 {
		t.Errorf("report has %d users, want 2", len(report.Users))
	}
}

func TestRunUserCycleDelegates(t *testing.T) {
	runner := &countingRunner{}
	o := NewOrchestrator(runner, &listOnlyCreds{}, nil, 1, fastRetry(), zerolog.Nop())

	res := o.RunUserCycle(context.Background(), "solo@example.com")
	if res.UserEmail != "solo@example.com" || res.Processed != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if runner.total.Load() != 1 {
		t.Errorf("runner ran %d times, want 1", runner.total.Load())
	}
}

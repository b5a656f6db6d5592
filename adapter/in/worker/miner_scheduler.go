// Package worker runs the periodic cycle scheduler.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jobminer/core/port/in"
)

// startupDelay gives the storage connections time to settle before the first
// scheduled cycle.
const startupDelay = 30 * time.Second

// CycleScheduler triggers a full pipeline cycle at a fixed interval.
type CycleScheduler struct {
	trigger  in.PipelineTrigger
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCycleScheduler creates the scheduler.
func NewCycleScheduler(trigger in.PipelineTrigger, interval time.Duration, log zerolog.Logger) *CycleScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CycleScheduler{
		trigger:  trigger,
		interval: interval,
		timeout:  30 * time.Minute,
		log:      log.With().Str("component", "cycle_scheduler").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the scheduling loop.
func (s *CycleScheduler) Start() {
	s.log.Info().Dur("interval", s.interval).Msg("cycle scheduler starting")
	s.wg.Add(1)
	go s.run()
}

// Stop cancels the loop and waits for an in-flight cycle to return.
func (s *CycleScheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.log.Info().Msg("cycle scheduler stopped")
}

func (s *CycleScheduler) run() {
	defer s.wg.Done()

	select {
	case <-s.ctx.Done():
		return
	case <-time.After(startupDelay):
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runCycle()
		}
	}
}

func (s *CycleScheduler) runCycle() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	report, err := s.trigger.RunAllCycle(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled cycle failed to start")
		return
	}
	processed, skipped := report.Totals()
	s.log.Info().
		Str("cycle_id", report.CycleID).
		Int("users", len(report.Users)).
		Int("processed", processed).
		Int("skipped", skipped).
		Msg("scheduled cycle finished")
}

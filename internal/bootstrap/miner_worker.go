package bootstrap

import (
	"jobminer/adapter/in/worker"
	"jobminer/config"
)

// Worker runs the periodic mining cycle without the HTTP surface.
type Worker struct {
	scheduler *worker.CycleScheduler
}

// NewWorker builds the cycle scheduler on top of wired dependencies.
func NewWorker(cfg *config.Config, deps *Dependencies) *Worker {
	return &Worker{
		scheduler: worker.NewCycleScheduler(deps.Orchestrator, cfg.SchedulerInterval, deps.Log),
	}
}

// Start launches the scheduler loop.
func (w *Worker) Start() {
	w.scheduler.Start()
}

// Stop signals the scheduler and waits for an in-flight cycle to finish.
func (w *Worker) Stop() {
	w.scheduler.Stop()
}

// Package in defines inbound ports (driving ports) for the pipeline.
package in

import (
	"context"

	"jobminer/core/domain"
)

// PipelineTrigger is the surface exposed to the web layer and the scheduler.
// A cycle never fails because of an individual user; it can only fail to
// start (e.g. users cannot be enumerated).
type PipelineTrigger interface {
	// RunUserCycle runs one user's pipeline and returns its counts.
	RunUserCycle(ctx context.Context, userEmail string) *domain.UserCycleResult

	// RunAllCycle enumerates all users and runs their pipelines under the
	// bounded concurrency limit.
	RunAllCycle(ctx context.Context) (*domain.CycleReport, error)
}

// Package cron schedules the periodic background work: one report cycle
// per configured timeframe and the retention sweep over the data
// directory.
package cron

import "context"

// Job is one recurring unit of background work.
type Job interface {
	// Name identifies the job in logs and guards against double
	// registration. Names must be unique within a scheduler.
	Name() string

	// Schedule is the five-field cron expression the job fires on.
	Schedule() string

	// Run performs one tick. Long-running jobs should honor ctx, which
	// is canceled when the scheduler stops.
	Run(ctx context.Context) error
}

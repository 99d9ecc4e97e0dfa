package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity verifies posted entries still balance and that
	// reversal links are consistent.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskReportsWarmup pre-computes today's reports into the cache.
	TaskReportsWarmup = "reports:warmup"
)

// NewLedgerIntegrityTask constructs the integrity check task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// NewReportsWarmupTask constructs the report warmup task.
func NewReportsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskReportsWarmup, nil)
}

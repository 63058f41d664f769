package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage persists and hands out notification jobs. Implementations must
// make ClaimJob safe under concurrent workers: a job is claimed by at
// most one worker until its lock expires.
type Storage interface {
	// CreateJob stores a new pending job.
	CreateJob(ctx context.Context, job *Job) error

	// ClaimJob atomically claims the next due pending job, locking it for
	// lockDuration. Returns ErrNoJobToClaim when nothing is due. Jobs
	// whose processing lock has expired are eligible again.
	ClaimJob(ctx context.Context, lockDuration time.Duration) (*Job, error)

	// CompleteJob marks a job completed.
	CompleteJob(ctx context.Context, jobID uuid.UUID) error

	// FailJob records a failure. With retries remaining the job returns
	// to pending after retryDelay; otherwise it is marked dead.
	FailJob(ctx context.Context, jobID uuid.UUID, errMsg string, retryDelay time.Duration) error

	// RetryJob resets a failed or dead job to pending for immediate
	// reprocessing.
	RetryJob(ctx context.Context, jobID uuid.UUID) error

	// GetJob returns one job by ID.
	GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error)

	// Stats returns the queue census.
	Stats(ctx context.Context) (Stats, error)
}

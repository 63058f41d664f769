package queue

import "errors"

var (
	// ErrStorageNil is returned when a nil storage is provided.
	ErrStorageNil = errors.New("queue: storage cannot be nil")

	// ErrSenderNil is returned when a worker is built without a sender.
	ErrSenderNil = errors.New("queue: sender cannot be nil")

	// ErrNotificationNil is returned when enqueueing a nil notification.
	ErrNotificationNil = errors.New("queue: notification cannot be nil")

	// ErrInvalidPriority is returned when priority is outside valid range.
	ErrInvalidPriority = errors.New("queue: priority must be between 0 and 100")

	// ErrNoJobToClaim signals an empty queue; callers treat it as a normal
	// idle condition, not a failure.
	ErrNoJobToClaim = errors.New("queue: no job to claim")

	// ErrJobNotFound is returned when a job ID does not exist.
	ErrJobNotFound = errors.New("queue: job not found")

	// ErrJobNotRetryable is returned when retrying a job that is neither
	// failed nor dead.
	ErrJobNotRetryable = errors.New("queue: job is not in a retryable state")

	// ErrWorkerAlreadyStarted is returned when Start is called twice.
	ErrWorkerAlreadyStarted = errors.New("queue: worker already started")

	// ErrWorkerNotStarted is returned when Stop is called before Start.
	ErrWorkerNotStarted = errors.New("queue: worker not started")
)

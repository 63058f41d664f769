package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// Enqueuer persists notifications as jobs for asynchronous delivery.
type Enqueuer struct {
	storage         Storage
	defaultPriority Priority
	defaultRetries  int8
}

// EnqueuerOption configures an Enqueuer.
type EnqueuerOption func(*Enqueuer)

// WithDefaultPriority sets the priority applied when an enqueue call does
// not override it.
func WithDefaultPriority(p Priority) EnqueuerOption {
	return func(e *Enqueuer) { e.defaultPriority = p }
}

// WithDefaultMaxRetries sets the retry budget applied by default.
func WithDefaultMaxRetries(n int8) EnqueuerOption {
	return func(e *Enqueuer) { e.defaultRetries = n }
}

// NewEnqueuer creates an Enqueuer on the given storage.
func NewEnqueuer(storage Storage, opts ...EnqueuerOption) (*Enqueuer, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	e := &Enqueuer{
		storage:         storage,
		defaultPriority: PriorityDefault,
		defaultRetries:  3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EnqueueOption configures one enqueue call.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	priority    Priority
	maxRetries  int8
	delay       time.Duration
	scheduledAt *time.Time
}

// WithPriority overrides the job priority.
func WithPriority(p Priority) EnqueueOption {
	return func(o *enqueueOptions) { o.priority = p }
}

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(n int8) EnqueueOption {
	return func(o *enqueueOptions) { o.maxRetries = n }
}

// WithDelay defers the job by the given duration.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) { o.delay = d }
}

// WithScheduledAt defers the job until an absolute time; it wins over
// WithDelay.
func WithScheduledAt(t time.Time) EnqueueOption {
	return func(o *enqueueOptions) { o.scheduledAt = &t }
}

// Enqueue seals the notification with its routing map and stores it as a
// pending job. Builders run now; the worker replays the built messages.
func (e *Enqueuer) Enqueue(ctx context.Context, n *notify.Notification, routes notify.Routes, opts ...EnqueueOption) (uuid.UUID, error) {
	if n == nil {
		return uuid.Nil, ErrNotificationNil
	}

	options := &enqueueOptions{
		priority:   e.defaultPriority,
		maxRetries: e.defaultRetries,
	}
	for _, opt := range opts {
		opt(options)
	}
	if !options.priority.Valid() {
		return uuid.Nil, ErrInvalidPriority
	}

	env, err := Seal(ctx, n, routes)
	if err != nil {
		return uuid.Nil, err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return uuid.Nil, fmt.Errorf("queue: marshal envelope: %w", err)
	}

	scheduledAt := time.Now()
	if options.scheduledAt != nil {
		scheduledAt = *options.scheduledAt
	} else if options.delay > 0 {
		scheduledAt = scheduledAt.Add(options.delay)
	}

	job := &Job{
		ID:          uuid.New(),
		Payload:     payload,
		Status:      JobStatusPending,
		Priority:    options.priority,
		MaxRetries:  options.maxRetries,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now(),
	}
	if err := e.storage.CreateJob(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("queue: create job: %w", err)
	}
	return job.ID, nil
}

// Stats reports the queue census.
func (e *Enqueuer) Stats(ctx context.Context) (Stats, error) {
	return e.storage.Stats(ctx)
}

// Retry resets a failed or dead job to pending.
func (e *Enqueuer) Retry(ctx context.Context, jobID uuid.UUID) error {
	return e.storage.RetryJob(ctx, jobID)
}

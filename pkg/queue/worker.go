package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notify"
)

// Sender dispatches one reconstructed notification. *notify.Manager
// satisfies it.
type Sender interface {
	Send(ctx context.Context, n *notify.Notification, routes notify.Routes) (notify.Report, error)
}

// Worker claims queued notification jobs and dispatches them through a
// Sender, retrying failures with linear backoff and parking exhausted
// jobs as dead.
type Worker struct {
	storage Storage
	sender  Sender
	sem     chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex

	pullInterval time.Duration
	lockTimeout  time.Duration
	retryDelay   time.Duration
	logger       *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// WorkerOption configures a Worker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pullInterval  time.Duration
	lockTimeout   time.Duration
	retryDelay    time.Duration
	maxConcurrent int
	logger        *slog.Logger
}

// WithPullInterval sets how often the worker polls for due jobs.
func WithPullInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pullInterval = d
		}
	}
}

// WithLockTimeout sets how long a claimed job stays locked.
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithRetryDelay sets the base delay before a failed job is retried; the
// delay grows linearly with the retry count.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.retryDelay = d
		}
	}
}

// WithMaxConcurrent bounds the number of jobs processed at once.
func WithMaxConcurrent(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewWorker creates a notification job worker.
func NewWorker(storage Storage, sender Sender, opts ...WorkerOption) (*Worker, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if sender == nil {
		return nil, ErrSenderNil
	}

	options := &workerOptions{
		pullInterval:  5 * time.Second,
		lockTimeout:   2 * time.Minute,
		retryDelay:    30 * time.Second,
		maxConcurrent: 1,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		storage:      storage,
		sender:       sender,
		sem:          make(chan struct{}, options.maxConcurrent),
		pullInterval: options.pullInterval,
		lockTimeout:  options.lockTimeout,
		retryDelay:   options.retryDelay,
		logger:       options.logger,
	}, nil
}

// Start begins polling for jobs in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return ErrWorkerAlreadyStarted
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.stopping.Store(false)
	go w.run()

	w.logger.Info("queue worker started",
		slog.Duration("pull_interval", w.pullInterval),
		slog.Int("max_concurrent", cap(w.sem)))
	return nil
}

// Stop cancels polling and waits for in-flight jobs to settle.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	w.stopping.Store(true)
	cancel()
	w.wg.Wait()

	w.logger.Info("queue worker stopped")
	return nil
}

// Run returns a start-and-block function suitable for errgroup.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) run() {
	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			select {
			case w.sem <- struct{}{}:
				if w.stopping.Load() {
					<-w.sem
					return
				}
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-w.sem }()
					if err := w.pullAndProcess(); err != nil {
						w.logger.Error("failed to process job", logger.Error(err))
					}
				}()
			default:
				w.logger.Debug("all worker slots busy, skipping tick")
			}
		}
	}
}

func (w *Worker) pullAndProcess() error {
	job, err := w.storage.ClaimJob(w.ctx, w.lockTimeout)
	if err != nil {
		if errors.Is(err, ErrNoJobToClaim) {
			return nil
		}
		return fmt.Errorf("claim job: %w", err)
	}

	w.logger.Debug("claimed job",
		logger.JobID(job.ID),
		logger.RetryCount(int(job.RetryCount)))

	return w.process(job)
}

func (w *Worker) process(job *Job) (retErr error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in job processing: %v", r)
			w.logger.Error("job processing panicked",
				logger.JobID(job.ID),
				slog.Any("panic", r))
			_ = w.handleFailure(job, retErr)
		}
	}()

	var env Envelope
	if err := json.Unmarshal(job.Payload, &env); err != nil {
		// Corrupt payloads cannot succeed on retry; park immediately.
		return w.handlePermanentFailure(job, fmt.Errorf("unmarshal envelope: %w", err))
	}
	n, routes, err := env.Open()
	if err != nil {
		return w.handlePermanentFailure(job, err)
	}

	// Job execution outlives worker shutdown so in-flight deliveries can
	// finish; the lock timeout bounds it instead.
	ctx, cancel := context.WithTimeout(context.Background(), w.lockTimeout)
	defer cancel()

	_, err = w.sender.Send(ctx, n, routes)
	duration := time.Since(start)
	if err != nil {
		w.logger.Warn("job delivery failed",
			logger.JobID(job.ID),
			logger.Reference(env.Reference),
			logger.RetryCount(int(job.RetryCount)),
			slog.Duration("duration", duration),
			logger.Error(err))
		return w.handleFailure(job, err)
	}

	if err := w.storage.CompleteJob(w.ctx, job.ID); err != nil {
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}
	w.logger.Info("job delivered",
		logger.JobID(job.ID),
		logger.Reference(env.Reference),
		slog.Duration("duration", duration))
	return nil
}

func (w *Worker) handleFailure(job *Job, execErr error) error {
	// Linear backoff keyed on the attempt number.
	delay := time.Duration(job.RetryCount+1) * w.retryDelay
	if err := w.storage.FailJob(w.ctx, job.ID, execErr.Error(), delay); err != nil {
		return fmt.Errorf("fail job %s: %w", job.ID, err)
	}
	if job.RetryCount >= job.MaxRetries {
		w.logger.Warn("job exhausted retries, parked as dead", logger.JobID(job.ID))
	}
	return nil
}

func (w *Worker) handlePermanentFailure(job *Job, execErr error) error {
	// A corrupt payload fails identically on every attempt; burn the
	// remaining retry budget so the job parks as dead now.
	remaining := int(job.MaxRetries-job.RetryCount) + 1
	for range remaining {
		if err := w.storage.FailJob(w.ctx, job.ID, execErr.Error(), 0); err != nil {
			return fmt.Errorf("fail job %s: %w", job.ID, err)
		}
	}
	w.logger.Error("job payload is not processable, parked as dead",
		logger.JobID(job.ID),
		logger.Error(execErr))
	return nil
}

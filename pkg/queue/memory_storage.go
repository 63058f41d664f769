package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory Storage suitable for development and
// testing. Jobs survive only as long as the process.
type MemoryStorage struct {
	jobs map[uuid.UUID]*Job
	mu   sync.Mutex
}

// NewMemoryStorage creates an empty in-memory job storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{jobs: make(map[uuid.UUID]*Job)}
}

func (s *MemoryStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return ErrJobNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStorage) ClaimJob(ctx context.Context, lockDuration time.Duration) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var candidates []*Job
	for _, job := range s.jobs {
		switch job.Status {
		case JobStatusPending:
			if !job.ScheduledAt.After(now) {
				candidates = append(candidates, job)
			}
		case JobStatusProcessing:
			// Expired lock: the previous worker died mid-flight.
			if job.LockedUntil != nil && job.LockedUntil.Before(now) {
				candidates = append(candidates, job)
			}
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoJobToClaim
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].ScheduledAt.Before(candidates[j].ScheduledAt)
	})

	job := candidates[0]
	until := now.Add(lockDuration)
	job.Status = JobStatusProcessing
	job.LockedUntil = &until

	cp := *job
	return &cp, nil
}

func (s *MemoryStorage) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	now := time.Now()
	job.Status = JobStatusCompleted
	job.ProcessedAt = &now
	job.LockedUntil = nil
	return nil
}

func (s *MemoryStorage) FailJob(ctx context.Context, jobID uuid.UUID, errMsg string, retryDelay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}

	job.RetryCount++
	job.LastError = errMsg
	job.LockedUntil = nil
	if job.RetryCount > job.MaxRetries {
		now := time.Now()
		job.Status = JobStatusDead
		job.ProcessedAt = &now
		return nil
	}
	job.Status = JobStatusPending
	job.ScheduledAt = time.Now().Add(retryDelay)
	return nil
}

func (s *MemoryStorage) RetryJob(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status != JobStatusFailed && job.Status != JobStatusDead {
		return ErrJobNotRetryable
	}
	job.Status = JobStatusPending
	job.RetryCount = 0
	job.LastError = ""
	job.ScheduledAt = time.Now()
	job.ProcessedAt = nil
	return nil
}

func (s *MemoryStorage) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStorage) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats Stats
	for _, job := range s.jobs {
		switch job.Status {
		case JobStatusPending:
			stats.Pending++
		case JobStatusProcessing:
			stats.Processing++
		case JobStatusCompleted:
			stats.Completed++
		case JobStatusFailed:
			stats.Failed++
		case JobStatusDead:
			stats.Dead++
		}
	}
	return stats, nil
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "notifykit"

// completedJobTTL bounds how long finished job records stay queryable.
const completedJobTTL = 24 * time.Hour

// RedisStorage is a Redis-backed Storage. Due jobs are claimed by due
// time: the claim is an atomic ZREM, so a job goes to exactly one worker.
// Unlike MemoryStorage it does not order same-instant jobs by priority.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// RedisOption configures RedisStorage.
type RedisOption func(*RedisStorage)

// WithKeyPrefix namespaces all queue keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStorage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStorage creates a Redis-backed job storage on an established
// client.
func NewRedisStorage(client *redis.Client, opts ...RedisOption) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.New("queue: redis client cannot be nil")
	}

	s := &RedisStorage{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RedisStorage) jobKey(id uuid.UUID) string { return s.prefix + ":job:" + id.String() }
func (s *RedisStorage) pendingKey() string         { return s.prefix + ":pending" }
func (s *RedisStorage) processingKey() string      { return s.prefix + ":processing" }
func (s *RedisStorage) deadKey() string            { return s.prefix + ":dead" }
func (s *RedisStorage) counterKey(st string) string {
	return s.prefix + ":stats:" + st
}

func (s *RedisStorage) saveJob(ctx context.Context, job *Job, ttl time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	return s.client.Set(ctx, s.jobKey(job.ID), data, ttl).Err()
}

func (s *RedisStorage) loadJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	data, err := s.client.Get(ctx, s.jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("queue: load job: %w", err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("queue: unmarshal job: %w", err)
	}
	return &job, nil
}

func (s *RedisStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return ErrJobNotFound
	}
	if err := s.saveJob(ctx, job, 0); err != nil {
		return err
	}
	return s.client.ZAdd(ctx, s.pendingKey(), redis.Z{
		Score:  float64(job.ScheduledAt.Unix()),
		Member: job.ID.String(),
	}).Err()
}

func (s *RedisStorage) ClaimJob(ctx context.Context, lockDuration time.Duration) (*Job, error) {
	now := time.Now()

	// Reclaim jobs whose processing lock expired: the owning worker died
	// mid-flight. Moving them back to pending keeps delivery at-least-once.
	expired, err := s.client.ZRangeByScore(ctx, s.processingKey(), &redis.ZRangeBy{
		Min: "-inf", Max: fmt.Sprintf("%d", now.Unix()), Count: 10,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("queue: scan expired locks: %w", err)
	}
	for _, member := range expired {
		if removed, _ := s.client.ZRem(ctx, s.processingKey(), member).Result(); removed == 1 {
			_ = s.client.ZAdd(ctx, s.pendingKey(), redis.Z{
				Score: float64(now.Unix()), Member: member,
			}).Err()
		}
	}

	due, err := s.client.ZRangeByScore(ctx, s.pendingKey(), &redis.ZRangeBy{
		Min: "-inf", Max: fmt.Sprintf("%d", now.Unix()), Count: 10,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("queue: scan due jobs: %w", err)
	}

	for _, member := range due {
		// ZREM returning 1 means this worker won the claim race.
		removed, err := s.client.ZRem(ctx, s.pendingKey(), member).Result()
		if err != nil || removed != 1 {
			continue
		}

		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		job, err := s.loadJob(ctx, id)
		if err != nil {
			continue
		}

		until := now.Add(lockDuration)
		job.Status = JobStatusProcessing
		job.LockedUntil = &until
		if err := s.saveJob(ctx, job, 0); err != nil {
			return nil, err
		}
		if err := s.client.ZAdd(ctx, s.processingKey(), redis.Z{
			Score: float64(until.Unix()), Member: member,
		}).Err(); err != nil {
			return nil, fmt.Errorf("queue: track processing job: %w", err)
		}
		return job, nil
	}

	return nil, ErrNoJobToClaim
}

func (s *RedisStorage) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return err
	}

	now := time.Now()
	job.Status = JobStatusCompleted
	job.ProcessedAt = &now
	job.LockedUntil = nil

	if err := s.saveJob(ctx, job, completedJobTTL); err != nil {
		return err
	}
	if err := s.client.ZRem(ctx, s.processingKey(), jobID.String()).Err(); err != nil {
		return fmt.Errorf("queue: untrack processing job: %w", err)
	}
	return s.client.Incr(ctx, s.counterKey("completed")).Err()
}

func (s *RedisStorage) FailJob(ctx context.Context, jobID uuid.UUID, errMsg string, retryDelay time.Duration) error {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return err
	}

	if err := s.client.ZRem(ctx, s.processingKey(), jobID.String()).Err(); err != nil {
		return fmt.Errorf("queue: untrack processing job: %w", err)
	}
	if err := s.client.Incr(ctx, s.counterKey("failed")).Err(); err != nil {
		return fmt.Errorf("queue: bump failure counter: %w", err)
	}

	job.RetryCount++
	job.LastError = errMsg
	job.LockedUntil = nil

	if job.RetryCount > job.MaxRetries {
		now := time.Now()
		job.Status = JobStatusDead
		job.ProcessedAt = &now
		if err := s.saveJob(ctx, job, 0); err != nil {
			return err
		}
		return s.client.SAdd(ctx, s.deadKey(), jobID.String()).Err()
	}

	job.Status = JobStatusPending
	job.ScheduledAt = time.Now().Add(retryDelay)
	if err := s.saveJob(ctx, job, 0); err != nil {
		return err
	}
	return s.client.ZAdd(ctx, s.pendingKey(), redis.Z{
		Score: float64(job.ScheduledAt.Unix()), Member: jobID.String(),
	}).Err()
}

func (s *RedisStorage) RetryJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != JobStatusFailed && job.Status != JobStatusDead {
		return ErrJobNotRetryable
	}

	job.Status = JobStatusPending
	job.RetryCount = 0
	job.LastError = ""
	job.ScheduledAt = time.Now()
	job.ProcessedAt = nil

	if err := s.saveJob(ctx, job, 0); err != nil {
		return err
	}
	if err := s.client.SRem(ctx, s.deadKey(), jobID.String()).Err(); err != nil {
		return fmt.Errorf("queue: unpark dead job: %w", err)
	}
	return s.client.ZAdd(ctx, s.pendingKey(), redis.Z{
		Score: float64(job.ScheduledAt.Unix()), Member: jobID.String(),
	}).Err()
}

func (s *RedisStorage) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	return s.loadJob(ctx, jobID)
}

func (s *RedisStorage) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	pending, err := s.client.ZCard(ctx, s.pendingKey()).Result()
	if err != nil {
		return stats, fmt.Errorf("queue: count pending: %w", err)
	}
	processing, err := s.client.ZCard(ctx, s.processingKey()).Result()
	if err != nil {
		return stats, fmt.Errorf("queue: count processing: %w", err)
	}
	dead, err := s.client.SCard(ctx, s.deadKey()).Result()
	if err != nil {
		return stats, fmt.Errorf("queue: count dead: %w", err)
	}
	completed, err := s.client.Get(ctx, s.counterKey("completed")).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return stats, fmt.Errorf("queue: read completed counter: %w", err)
	}
	failed, err := s.client.Get(ctx, s.counterKey("failed")).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return stats, fmt.Errorf("queue: read failed counter: %w", err)
	}

	stats.Pending = int(pending)
	stats.Processing = int(processing)
	stats.Dead = int(dead)
	stats.Completed = completed
	stats.Failed = failed
	return stats, nil
}

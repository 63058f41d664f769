package logstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store suitable for development and testing.
type MemoryStore struct {
	records []Record
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Log(ctx context.Context, rec Record) error {
	if rec.NotificationID == "" {
		return errors.New("logstore: notification ID is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, f Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Record, 0, len(s.records))
	// Newest first
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if !matches(rec, f) {
			continue
		}
		matched = append(matched, rec)
	}

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []Record{}, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func matches(rec Record, f Filter) bool {
	if f.NotificationID != "" && rec.NotificationID != f.NotificationID {
		return false
	}
	if f.Reference != "" && rec.Reference != f.Reference {
		return false
	}
	if f.Channel != "" && rec.Channel != f.Channel {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.OnlyFailed && rec.Success {
		return false
	}
	if f.Since != nil && rec.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

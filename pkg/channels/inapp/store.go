package inapp

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrItemNotFound is returned when an inbox item does not exist.
var ErrItemNotFound = errors.New("inapp: inbox item not found")

// Item is one delivered in-app notification in a user's inbox.
type Item struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ListOptions filters inbox listings.
type ListOptions struct {
	Limit      int
	Offset     int
	OnlyUnread bool
}

// Inbox persists delivered in-app notifications per user.
type Inbox interface {
	// Put stores one item in the user's inbox.
	Put(ctx context.Context, item Item) error

	// List returns a user's inbox items, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Item, error)

	// MarkRead marks items as read.
	MarkRead(ctx context.Context, userID string, itemIDs ...string) error

	// CountUnread returns the unread count for a user.
	CountUnread(ctx context.Context, userID string) (int, error)
}

// MemoryInbox is an in-memory Inbox suitable for development and testing.
type MemoryInbox struct {
	items map[string][]Item // userID -> items
	mu    sync.RWMutex
}

// NewMemoryInbox creates an empty in-memory inbox.
func NewMemoryInbox() *MemoryInbox {
	return &MemoryInbox{items: make(map[string][]Item)}
}

func (s *MemoryInbox) Put(ctx context.Context, item Item) error {
	if item.ID == "" {
		return errors.New("inapp: item ID is required")
	}
	if item.UserID == "" {
		return errors.New("inapp: user ID is required")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.UserID] = append(s.items[item.UserID], item)
	return nil
}

func (s *MemoryInbox) List(ctx context.Context, userID string, opts ListOptions) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.items[userID]
	filtered := make([]Item, 0, len(stored))
	// Newest first
	for i := len(stored) - 1; i >= 0; i-- {
		item := stored[i]
		if opts.OnlyUnread && item.Read {
			continue
		}
		filtered = append(filtered, item)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(filtered) {
			return []Item{}, nil
		}
		filtered = filtered[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(filtered) {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

func (s *MemoryInbox) MarkRead(ctx context.Context, userID string, itemIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.items[userID]
	if !exists {
		return ErrItemNotFound
	}

	ids := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = struct{}{}
	}

	now := time.Now()
	found := false
	for i := range stored {
		if _, ok := ids[stored[i].ID]; ok {
			stored[i].Read = true
			stored[i].ReadAt = &now
			found = true
		}
	}
	if !found {
		return ErrItemNotFound
	}
	return nil
}

func (s *MemoryInbox) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items[userID] {
		if !item.Read {
			count++
		}
	}
	return count, nil
}

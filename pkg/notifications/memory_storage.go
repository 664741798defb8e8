package notifications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation for development and
// tests. Safe for concurrent use.
type MemoryStorage struct {
	mu        sync.RWMutex
	records   map[string]Notification
	templates map[int]Template
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records:   make(map[string]Notification),
		templates: make(map[int]Template),
	}
}

func (s *MemoryStorage) Create(_ context.Context, notif Notification) error {
	if notif.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[notif.ID] = notif
	return nil
}

func (s *MemoryStorage) FindByID(_ context.Context, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notif, ok := s.records[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	return &notif, nil
}

func (s *MemoryStorage) FindMany(_ context.Context, filter Filter) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, 0)
	for _, n := range s.records {
		if filter.UserID != "" && n.UserID != filter.UserID {
			continue
		}
		if filter.IsRead != nil && n.IsRead() != *filter.IsRead {
			continue
		}
		out = append(out, n)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStorage) MarkRead(_ context.Context, id string) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notif, ok := s.records[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	// Re-marking keeps the original timestamp.
	if notif.ReadAt == nil {
		now := time.Now().UTC()
		notif.ReadAt = &now
		s.records[id] = notif
	}
	return &notif, nil
}

func (s *MemoryStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotificationNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStorage) CountUnread(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.records {
		if n.UserID == userID && !n.IsRead() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) FindTemplateByID(_ context.Context, id int) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return &tpl, nil
}

func (s *MemoryStorage) CreateTemplate(_ context.Context, tpl Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.ID] = tpl
	return nil
}

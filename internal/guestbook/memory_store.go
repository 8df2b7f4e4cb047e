package guestbook

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps entries in process memory. Used for local development
// (store = "memory") and in tests.
type MemoryStore struct {
	mutex   sync.Mutex
	entries []Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: []Entry{},
		now:     now,
	}
}

func (s *MemoryStore) ListEntries(_ context.Context) ([]Entry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// entries are kept in insertion order; reverse first, so equal timestamps
	// keep the most recent insert on top after the stable sort
	entries := make([]Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		entries = append(entries, s.entries[i])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries, nil
}

func (s *MemoryStore) CreateEntry(_ context.Context, name, message string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = append(s.entries, Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Message:   message,
		CreatedAt: s.now(),
	})

	return nil
}

func (s *MemoryStore) Count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.entries)
}

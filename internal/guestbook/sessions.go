package guestbook

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const DefaultSessionTTL = 30 * time.Minute

// Session is a single guestbook view, kept across requests of one browser.
type Session struct {
	ID            string
	Controller    *Controller
	Notifications *NotificationQueue
}

// Sessions keeps the views alive while they are used. A session not
// touched for the TTL is forgotten; a store call it still has in flight
// completes against the orphaned controller and nobody reads the result.
type Sessions struct {
	store Store
	cache *gocache.Cache
}

func NewSessions(store Store, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		store: store,
		// no janitor goroutine, expired items are removed by Cleanup
		cache: gocache.New(ttl, 0),
	}
}

func (s *Sessions) New() *Session {
	notifications := NewNotificationQueue()
	session := &Session{
		ID:            uuid.NewString(),
		Controller:    NewController(s.store, notifications),
		Notifications: notifications,
	}
	s.cache.SetDefault(session.ID, session)
	return session
}

// Get returns the session and extends its lifetime.
func (s *Sessions) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	item, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	session, ok := item.(*Session)
	if !ok {
		return nil, false
	}
	s.cache.SetDefault(id, session)
	return session, true
}

func (s *Sessions) Count() int {
	return s.cache.ItemCount()
}

func (s *Sessions) Cleanup() {
	s.cache.DeleteExpired()
}

package session

import (
	"sync"

	"github.com/gdsc-dev/portalclient/token"
)

// Store is the single source of truth for "who is logged in". Writes come
// from exactly one path (the auth client); readers observe the latest
// snapshot synchronously or subscribe for changes.
type Store struct {
	mu          sync.RWMutex
	current     Session
	subscribers map[int]func(Session)
	nextID      int
}

func NewStore() *Store {
	return &Store{subscribers: make(map[int]func(Session))}
}

// Restore builds a store initialized from persisted state: a still-valid
// access token plus a user record reconstructs the session without a
// network round-trip, otherwise the store starts unauthenticated.
func Restore(tokens token.Store, validator *token.Validator) *Store {
	s := NewStore()
	if tokens == nil || validator == nil {
		return s
	}
	if !validator.IsValid(tokens.AccessToken()) {
		return s
	}
	raw, ok := tokens.User()
	if !ok {
		return s
	}
	rec, err := DecodeRecord(raw)
	if err != nil {
		return s
	}
	// A record that identifies nobody cannot authenticate anybody.
	if rec.UserID == "" && rec.Username == "" {
		return s
	}
	s.current = rec.Session()
	return s
}

func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) IsAuthenticated() bool {
	return s.Current().Authenticated
}

func (s *Store) HasRole(role Role) bool {
	return s.Current().HasRole(role)
}

func (s *Store) HasAnyRole(roles ...Role) bool {
	return s.Current().HasAnyRole(roles...)
}

// Set replaces the current session and notifies subscribers.
func (s *Store) Set(session Session) {
	s.mu.Lock()
	s.current = session
	subs := s.snapshotSubscribersLocked()
	s.mu.Unlock()
	for _, fn := range subs {
		fn(session)
	}
}

// Clear resets to the unauthenticated empty session. Safe to call when
// already unauthenticated.
func (s *Store) Clear() {
	s.Set(Session{})
}

// Subscribe registers fn for session changes and returns a cancel func.
// fn is called outside the store lock, in no particular order relative to
// other subscribers.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) snapshotSubscribersLocked() []func(Session) {
	out := make([]func(Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		out = append(out, fn)
	}
	return out
}

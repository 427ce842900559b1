package token

import "sync"

// MemoryStore keeps the credential pair in process memory. It is the
// default backend for tests and short-lived commands.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
	user    []byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *MemoryStore) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = token
	return nil
}

func (s *MemoryStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *MemoryStore) SetRefreshToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = token
	return nil
}

func (s *MemoryStore) User() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.user) == 0 {
		return nil, false
	}
	out := make([]byte, len(s.user))
	copy(out, s.user)
	return out, true
}

func (s *MemoryStore) SetUser(record []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = append([]byte(nil), record...)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	s.user = nil
	return nil
}

package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the credential pair as a JSON file so a new process
// resumes the session, the way the browser app survives a page reload.
type FileStore struct {
	mu   sync.Mutex
	path string
	data fileData
}

type fileData struct {
	AccessToken  string          `json:"access_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads any existing state from path. A missing file starts
// empty; a corrupt file is discarded rather than surfaced, matching the
// fail-soft posture of the storage layer.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("token: empty file store path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("token: create store dir: %w", err)
	}
	s := &FileStore{path: path}
	raw, err := os.ReadFile(path)
	if err == nil {
		_ = json.Unmarshal(raw, &s.data)
	}
	return s, nil
}

func (s *FileStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.AccessToken
}

func (s *FileStore) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.AccessToken = token
	return s.flushLocked()
}

func (s *FileStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.RefreshToken
}

func (s *FileStore) SetRefreshToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.RefreshToken = token
	return s.flushLocked()
}

func (s *FileStore) User() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data.User) == 0 {
		return nil, false
	}
	out := make([]byte, len(s.data.User))
	copy(out, s.data.User)
	return out, true
}

func (s *FileStore) SetUser(record []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.User = append(json.RawMessage(nil), record...)
	return s.flushLocked()
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = fileData{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("token: clear store: %w", err)
	}
	return nil
}

func (s *FileStore) flushLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("token: encode store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("token: write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("token: write store: %w", err)
	}
	return nil
}

package memory

import (
	"context"
	"sync"

	"github.com/asc-solution/accounts/internal/core/ports"
)

// SessionStore keeps session values in process memory. Values never expire;
// use the Redis store when sessions must outlive the process or be shared.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string][]byte
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]map[string][]byte)}
}

func (s *SessionStore) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.sessions[sessionID][key]
	if !ok || v == nil {
		return nil, ports.ErrSessionKeyMissing
	}
	return append([]byte(nil), v...), nil
}

func (s *SessionStore) Set(_ context.Context, sessionID, key string, value []byte) error {
	if value == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = make(map[string][]byte)
		s.sessions[sessionID] = sess
	}
	sess[key] = append([]byte(nil), value...)
	return nil
}

func (s *SessionStore) Remove(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions[sessionID], key)
	return nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/asc-solution/accounts/internal/core/ports"
)

const defaultSessionTTL = 20 * time.Minute

// SessionStore keeps session values in one Redis hash per session.
// Key format: session:<session_id>, one hash field per cache name.
// Every write slides the expiry of the whole session.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	v, err := s.client.HGet(ctx, s.key(sessionID), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrSessionKeyMissing
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	return v, nil
}

func (s *SessionStore) Set(ctx context.Context, sessionID, key string, value []byte) error {
	k := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, key, value)
	pipe.Expire(ctx, k, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, sessionID, key string) error {
	if err := s.client.HDel(ctx, s.key(sessionID), key).Err(); err != nil {
		return fmt.Errorf("session remove: %w", err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

package ports

import (
	"context"
	"errors"
)

// ErrSessionKeyMissing is returned by SessionStore.Get when nothing is stored.
var ErrSessionKeyMissing = errors.New("session key missing")

// SessionStore persists raw values scoped to a caller session.
type SessionStore interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Remove(ctx context.Context, sessionID, key string) error
}

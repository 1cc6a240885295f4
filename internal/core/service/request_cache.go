package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/asc-solution/accounts/internal/core/ports"
	"github.com/asc-solution/accounts/internal/pkg/metrics"
)

const (
	CacheServiceEngineers = "ServiceEngineers"
	CacheCustomers        = "Customers"
	CacheFlashError       = "Error"
)

// RequestCache is a typed view of one caller session in a SessionStore. It
// holds the list rendered by a GET so the follow-up POST can re-render it
// without querying the registry again. Entries are snapshots and may be stale.
type RequestCache struct {
	store     ports.SessionStore
	sessionID string
	log       zerolog.Logger
}

// NewRequestCache binds store to the session identified by sessionID.
func NewRequestCache(store ports.SessionStore, sessionID string, log zerolog.Logger) *RequestCache {
	return &RequestCache{store: store, sessionID: sessionID, log: log}
}

// Put serializes value under name, replacing any previous value.
func (c *RequestCache) Put(ctx context.Context, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session cache %q: encode: %w", name, err)
	}
	if err := c.store.Set(ctx, c.sessionID, name, raw); err != nil {
		return fmt.Errorf("session cache %q: %w", name, err)
	}
	return nil
}

// Get decodes the value stored under name into dst. It reports false when the
// value is missing, unreadable or undecodable; callers re-derive in that case.
func (c *RequestCache) Get(ctx context.Context, name string, dst any) bool {
	raw, err := c.store.Get(ctx, c.sessionID, name)
	if err != nil {
		if !errors.Is(err, ports.ErrSessionKeyMissing) {
			c.log.Warn().Err(err).Str("cache", name).Msg("session cache read failed")
		}
		metrics.SessionCacheLookupsTotal.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn().Err(err).Str("cache", name).Msg("session cache entry undecodable")
		metrics.SessionCacheLookupsTotal.WithLabelValues("miss").Inc()
		return false
	}
	metrics.SessionCacheLookupsTotal.WithLabelValues("hit").Inc()
	return true
}

// Delete drops name from the session.
func (c *RequestCache) Delete(ctx context.Context, name string) error {
	return c.store.Remove(ctx, c.sessionID, name)
}

// Flash stores a message that the next list render shows once.
func (c *RequestCache) Flash(ctx context.Context, msg string) error {
	return c.Put(ctx, CacheFlashError, msg)
}

// TakeFlash returns and clears the pending flash message.
func (c *RequestCache) TakeFlash(ctx context.Context) string {
	var msg string
	if !c.Get(ctx, CacheFlashError, &msg) {
		return ""
	}
	if err := c.Delete(ctx, CacheFlashError); err != nil {
		c.log.Warn().Err(err).Msg("failed to clear flash message")
	}
	return msg
}

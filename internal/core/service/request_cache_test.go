package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/asc-solution/accounts/internal/core/ports"
)

type stubSessions struct {
	mu     sync.Mutex
	values map[string][]byte
	getErr error
}

func newStubSessions() *stubSessions {
	return &stubSessions{values: make(map[string][]byte)}
}

func (s *stubSessions) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.values[sessionID+"/"+key]
	if !ok {
		return nil, ports.ErrSessionKeyMissing
	}
	return v, nil
}

func (s *stubSessions) Set(_ context.Context, sessionID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[sessionID+"/"+key] = value
	return nil
}

func (s *stubSessions) Remove(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, sessionID+"/"+key)
	return nil
}

func TestRequestCache_PutGet(t *testing.T) {
	cache := NewRequestCache(newStubSessions(), "s1", zerolog.Nop())
	ctx := context.Background()

	list := []ports.AccountSummary{{Email: "eng1@x.com", IsActive: true}, {Email: "eng2@x.com"}}
	if err := cache.Put(ctx, CacheServiceEngineers, list); err != nil {
		t.Fatalf("put: %v", err)
	}

	var got []ports.AccountSummary
	if !cache.Get(ctx, CacheServiceEngineers, &got) {
		t.Fatal("expected a hit")
	}
	if len(got) != 2 || got[0].Email != "eng1@x.com" || !got[0].IsActive || got[1].IsActive {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestRequestCache_PutOverwrites(t *testing.T) {
	cache := NewRequestCache(newStubSessions(), "s1", zerolog.Nop())
	ctx := context.Background()

	_ = cache.Put(ctx, CacheCustomers, []ports.AccountSummary{{Email: "old@x.com"}})
	_ = cache.Put(ctx, CacheCustomers, []ports.AccountSummary{{Email: "new@x.com"}})

	var got []ports.AccountSummary
	cache.Get(ctx, CacheCustomers, &got)
	if len(got) != 1 || got[0].Email != "new@x.com" {
		t.Fatalf("expected last write to win, got %+v", got)
	}
}

func TestRequestCache_Missing(t *testing.T) {
	store := newStubSessions()
	cache := NewRequestCache(store, "s1", zerolog.Nop())
	ctx := context.Background()

	var got []ports.AccountSummary
	if cache.Get(ctx, CacheCustomers, &got) {
		t.Fatal("expected a miss for an absent entry")
	}

	// Undecodable entries count as missing.
	_ = store.Set(ctx, "s1", CacheCustomers, []byte("{not json"))
	if cache.Get(ctx, CacheCustomers, &got) {
		t.Fatal("expected a miss for an undecodable entry")
	}

	// So do store failures.
	store.getErr = errors.New("redis down")
	if cache.Get(ctx, CacheServiceEngineers, &got) {
		t.Fatal("expected a miss when the store fails")
	}
}

func TestRequestCache_SessionsAreIsolated(t *testing.T) {
	store := newStubSessions()
	ctx := context.Background()

	_ = NewRequestCache(store, "s1", zerolog.Nop()).Put(ctx, CacheCustomers, []ports.AccountSummary{{Email: "a@x.com"}})

	var got []ports.AccountSummary
	if NewRequestCache(store, "s2", zerolog.Nop()).Get(ctx, CacheCustomers, &got) {
		t.Fatal("another session must not see the entry")
	}
}

func TestRequestCache_FlashIsReadOnce(t *testing.T) {
	cache := NewRequestCache(newStubSessions(), "s1", zerolog.Nop())
	ctx := context.Background()

	if got := cache.TakeFlash(ctx); got != "" {
		t.Fatalf("expected no flash, got %q", got)
	}
	if err := cache.Flash(ctx, "Error occurred while deleting a user."); err != nil {
		t.Fatalf("flash: %v", err)
	}
	if got := cache.TakeFlash(ctx); got != "Error occurred while deleting a user." {
		t.Fatalf("unexpected flash %q", got)
	}
	if got := cache.TakeFlash(ctx); got != "" {
		t.Fatalf("flash must be consumed, got %q", got)
	}
}

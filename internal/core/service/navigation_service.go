package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
	"github.com/asc-solution/accounts/internal/pkg/metrics"
)

const navigationKey = "navigation"

// NavigationCache holds the process-wide navigation menu. It moves from empty
// to built on the first GetOrBuild and back to empty on Invalidate. Concurrent
// first callers share one build.
type NavigationCache struct {
	source ports.MenuSource
	log    zerolog.Logger

	mu         sync.RWMutex
	menu       *domain.NavigationMenu
	generation uint64

	group singleflight.Group
}

func NewNavigationCache(source ports.MenuSource, log zerolog.Logger) *NavigationCache {
	return &NavigationCache{source: source, log: log}
}

// GetOrBuild returns the cached menu, building it when the cache is empty.
// The returned menu is shared; callers must not modify it.
func (n *NavigationCache) GetOrBuild(ctx context.Context) (*domain.NavigationMenu, error) {
	if menu := n.current(); menu != nil {
		return menu, nil
	}

	// The build is shared, so it must not die with whichever request
	// started it. Each caller still stops waiting when its own ctx ends.
	buildCtx := context.WithoutCancel(ctx)
	ch := n.group.DoChan(navigationKey, func() (any, error) {
		return n.build(buildCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.NavigationMenu), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (n *NavigationCache) build(ctx context.Context) (*domain.NavigationMenu, error) {
	n.mu.RLock()
	menu, gen := n.menu, n.generation
	n.mu.RUnlock()
	if menu != nil {
		return menu, nil
	}

	built, err := n.source.Load(ctx)
	if err != nil {
		metrics.NavigationBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build navigation menu: %w", err)
	}
	built = built.Sorted()
	metrics.NavigationBuildsTotal.WithLabelValues("ok").Inc()

	n.mu.Lock()
	// An Invalidate during the build wins: waiters get this menu but it
	// is not kept.
	if n.generation == gen {
		n.menu = built
	}
	n.mu.Unlock()

	n.log.Info().Int("items", len(built.MenuItems)).Msg("navigation menu built")
	return built, nil
}

// Invalidate empties the cache; the next GetOrBuild rebuilds.
func (n *NavigationCache) Invalidate() {
	n.mu.Lock()
	n.menu = nil
	n.generation++
	n.mu.Unlock()
	n.log.Info().Msg("navigation menu invalidated")
}

// Create builds the menu eagerly. Bootstrap calls it once before serving.
func (n *NavigationCache) Create(ctx context.Context) error {
	_, err := n.GetOrBuild(ctx)
	return err
}

func (n *NavigationCache) current() *domain.NavigationMenu {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.menu
}

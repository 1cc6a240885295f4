package ports

import (
	"context"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// MenuSource loads the navigation menu definition.
type MenuSource interface {
	Load(ctx context.Context) (*domain.NavigationMenu, error)
}

// NavigationCacheOperations exposes the process-wide navigation menu.
type NavigationCacheOperations interface {
	GetOrBuild(ctx context.Context) (*domain.NavigationMenu, error)
	Invalidate()
	// Create builds the menu eagerly; bootstrap calls it once at startup.
	Create(ctx context.Context) error
}

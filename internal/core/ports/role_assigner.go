package ports

import (
	"context"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// RoleAssigner manages role membership and enforces account-class exclusivity.
type RoleAssigner interface {
	// Assign fails with domain.ErrRoleConflict when the account already holds
	// a mutually exclusive role. Re-assigning a held role is a no-op.
	Assign(ctx context.Context, account *domain.Account, role domain.Role) error
	Remove(ctx context.Context, account *domain.Account, role domain.Role) error
	// ListMembers returns members in store-native order.
	ListMembers(ctx context.Context, role domain.Role) ([]*domain.Account, error)
	RolesOf(ctx context.Context, account *domain.Account) ([]domain.Role, error)
}

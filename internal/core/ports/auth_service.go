package ports

import (
	"context"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// Principal is the authenticated caller as seen by handlers.
type Principal struct {
	AccountID string
	Username  string
	Email     string
	Roles     []domain.Role
}

// HasRole reports whether the principal holds role.
func (p Principal) HasRole(role domain.Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type AuthService interface {
	// Login verifies credentials and the IsActive claim and returns a signed token.
	Login(ctx context.Context, email, password string) (string, *Principal, error)
	// Refresh re-issues a token for account, picking up profile and role changes.
	Refresh(ctx context.Context, account *domain.Account) (string, *Principal, error)
}

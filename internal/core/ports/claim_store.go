package ports

import (
	"context"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// ClaimStore reads and writes claims attached to an account.
type ClaimStore interface {
	GetClaims(ctx context.Context, account *domain.Account) ([]domain.Claim, error)
	// SetClaim replaces every claim of claimType with a single claim holding
	// value. Implementations must not let a reader observe the account with
	// zero claims of claimType once the call returns successfully.
	SetClaim(ctx context.Context, account *domain.Account, claimType, value string) error
}

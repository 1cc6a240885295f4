package ports

import (
	"context"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// AccountRegistry is the CRUD capability over account records. Credential
// hashing and policy checks belong to the implementation.
type AccountRegistry interface {
	// FindByEmail matches case-insensitively; a miss is domain.ErrAccountNotFound.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Create fails with a *domain.ValidationError on policy violations or when
	// the email or username is already taken.
	Create(ctx context.Context, profile domain.AccountProfile, password string) (*domain.Account, error)
	// Update persists profile fields of account, re-checking uniqueness.
	Update(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// Delete removes the record; a missing record is domain.ErrAccountNotFound.
	Delete(ctx context.Context, account *domain.Account) error

	GeneratePasswordResetToken(ctx context.Context, account *domain.Account) (string, error)
	ResetPassword(ctx context.Context, account *domain.Account, token, newPassword string) error
	CheckPassword(ctx context.Context, account *domain.Account, password string) (bool, error)
}

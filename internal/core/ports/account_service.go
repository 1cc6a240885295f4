package ports

import (
	"context"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// AccountClass selects which role a new account joins.
type AccountClass string

const (
	ClassEngineer AccountClass = "engineer"
	ClassCustomer AccountClass = "customer"
)

// Role maps the class to its role.
func (c AccountClass) Role() domain.Role {
	if c == ClassCustomer {
		return domain.RoleUser
	}
	return domain.RoleEngineer
}

// CreateAccountInput carries a new-account form.
type CreateAccountInput struct {
	Class    AccountClass
	Username string
	Email    string
	Password string
	IsActive bool
}

// UpdateEngineerInput carries an admin edit of an engineer account.
type UpdateEngineerInput struct {
	Username string
	Email    string
	Password string
	IsActive bool
}

// SetActiveInput carries an active-flag change for a customer account.
type SetActiveInput struct {
	Email    string
	IsActive bool
}

// DeleteOutcome says what DeleteAccount actually did.
type DeleteOutcome string

const (
	DeleteOutcomeDeleted  DeleteOutcome = "deleted"
	DeleteOutcomeNotFound DeleteOutcome = "not_found"
)

// AccountSummary is the list-view snapshot cached between a list render and
// the follow-up action.
type AccountSummary struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
	IsActive       bool   `json:"is_active"`
}

// AccountService implements the account lifecycle workflows.
type AccountService interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error)
	UpdateEngineer(ctx context.Context, input UpdateEngineerInput) (*domain.Account, error)
	SetCustomerActive(ctx context.Context, input SetActiveInput) (*domain.Account, error)
	DeleteAccount(ctx context.Context, email string) (DeleteOutcome, error)
	UpdateProfile(ctx context.Context, email, username string) (*domain.Account, error)
	ListByRole(ctx context.Context, role domain.Role) ([]AccountSummary, error)
	State(ctx context.Context, email string) (domain.AccountState, error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
	"github.com/asc-solution/accounts/internal/pkg/metrics"
)

const (
	opCreate            = "create"
	opUpdateEngineer    = "update_engineer"
	opSetCustomerActive = "set_customer_active"
	opDelete            = "delete"
	opUpdateProfile     = "update_profile"
)

const (
	SubjectCreatedModified = "Account Created/Modified"
	SubjectModified        = "Account Modified"
	SubjectDeactivated     = "Account Deactivated"
)

// AccountService orchestrates the registry, claim store and role assigner.
// Every workflow runs its steps sequentially and never compensates a step
// that already succeeded.
type AccountService struct {
	registry ports.AccountRegistry
	claims   ports.ClaimStore
	roles    ports.RoleAssigner
	notifier ports.NotificationDispatcher
	log      zerolog.Logger
}

func NewAccountService(
	registry ports.AccountRegistry,
	claims ports.ClaimStore,
	roles ports.RoleAssigner,
	notifier ports.NotificationDispatcher,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		registry: registry,
		claims:   claims,
		roles:    roles,
		notifier: notifier,
		log:      log,
	}
}

// CreateAccount registers a new engineer or customer. A registry failure
// aborts before any claim or role is written. Failures after the record
// exists are reported as *domain.PartialFailureError and the account stays.
func (s *AccountService) CreateAccount(ctx context.Context, in ports.CreateAccountInput) (*domain.Account, error) {
	role := in.Class.Role()

	// 1. Account record.
	account, err := s.registry.Create(ctx, domain.AccountProfile{
		Username:       strings.TrimSpace(in.Username),
		Email:          strings.TrimSpace(in.Email),
		EmailConfirmed: true,
	}, in.Password)
	if err != nil {
		s.observe(opCreate, err)
		return nil, fmt.Errorf("create account: %w", err)
	}

	// 2. Claims.
	if err := s.claims.SetClaim(ctx, account, domain.ClaimEmailAddress, account.Email); err != nil {
		return nil, s.partial(opCreate, "email claim", account, err)
	}
	if err := s.claims.SetClaim(ctx, account, domain.ClaimIsActive, domain.FormatBool(in.IsActive)); err != nil {
		return nil, s.partial(opCreate, "active claim", account, err)
	}

	// 3. Role, only ever applied here.
	if err := s.roles.Assign(ctx, account, role); err != nil {
		return nil, s.partial(opCreate, "role assignment", account, err)
	}

	s.log.Info().Str("account_id", account.ID).Str("email", account.Email).Str("role", string(role)).Bool("active", in.IsActive).Msg("account created")
	s.observe(opCreate, nil)

	// 4. Notification.
	subject, body := engineerMessage(account.Email, in.IsActive)
	s.notify(ctx, account.Email, subject, body)
	return account, nil
}

// UpdateEngineer applies an admin edit: username, password and active flag.
// Username and password failures short-circuit with field errors; the
// username change is not reverted when the password step fails.
func (s *AccountService) UpdateEngineer(ctx context.Context, in ports.UpdateEngineerInput) (*domain.Account, error) {
	account, err := s.findForEdit(ctx, opUpdateEngineer, in.Email)
	if err != nil {
		return nil, err
	}
	if err := s.requireClass(ctx, opUpdateEngineer, account, domain.RoleEngineer); err != nil {
		return nil, err
	}

	// 1. Username.
	account.Username = strings.TrimSpace(in.Username)
	if _, err := s.registry.Update(ctx, account); err != nil {
		s.observe(opUpdateEngineer, err)
		return nil, fmt.Errorf("update engineer: %w", err)
	}

	// 2. Password through the reset-token flow.
	token, err := s.registry.GeneratePasswordResetToken(ctx, account)
	if err != nil {
		s.observe(opUpdateEngineer, err)
		return nil, fmt.Errorf("update engineer: reset token: %w", err)
	}
	if err := s.registry.ResetPassword(ctx, account, token, in.Password); err != nil {
		s.observe(opUpdateEngineer, err)
		return nil, fmt.Errorf("update engineer: reset password: %w", err)
	}

	// 3. Re-fetch so the claim write targets the persisted record.
	account, err = s.registry.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, s.partial(opUpdateEngineer, "re-fetch", &domain.Account{Email: in.Email}, err)
	}

	// 4. Active claim.
	if err := s.claims.SetClaim(ctx, account, domain.ClaimIsActive, domain.FormatBool(in.IsActive)); err != nil {
		return nil, s.partial(opUpdateEngineer, "active claim", account, err)
	}

	s.log.Info().Str("account_id", account.ID).Str("email", account.Email).Bool("active", in.IsActive).Msg("engineer updated")
	s.observe(opUpdateEngineer, nil)

	// 5. Notification.
	subject, body := engineerMessage(account.Email, in.IsActive)
	s.notify(ctx, account.Email, subject, body)
	return account, nil
}

// SetCustomerActive flips the active flag of a customer. Nothing else about
// the account is touched.
func (s *AccountService) SetCustomerActive(ctx context.Context, in ports.SetActiveInput) (*domain.Account, error) {
	account, err := s.findForEdit(ctx, opSetCustomerActive, in.Email)
	if err != nil {
		return nil, err
	}
	if err := s.requireClass(ctx, opSetCustomerActive, account, domain.RoleUser); err != nil {
		return nil, err
	}

	if err := s.claims.SetClaim(ctx, account, domain.ClaimIsActive, domain.FormatBool(in.IsActive)); err != nil {
		s.observe(opSetCustomerActive, err)
		return nil, fmt.Errorf("set customer active: %w", err)
	}

	s.log.Info().Str("account_id", account.ID).Str("email", account.Email).Bool("active", in.IsActive).Msg("customer status updated")
	s.observe(opSetCustomerActive, nil)

	subject, body := customerMessage(account.Email, in.IsActive)
	s.notify(ctx, account.Email, subject, body)
	return account, nil
}

// DeleteAccount removes the account registered under email. A missing
// account is reported as DeleteOutcomeNotFound with a nil error.
func (s *AccountService) DeleteAccount(ctx context.Context, email string) (ports.DeleteOutcome, error) {
	if strings.TrimSpace(email) == "" {
		return ports.DeleteOutcomeNotFound, nil
	}

	account, err := s.registry.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		s.log.Debug().Str("email", email).Msg("delete skipped, account not found")
		s.observe(opDelete, err)
		return ports.DeleteOutcomeNotFound, nil
	}
	if err != nil {
		s.observe(opDelete, err)
		return "", fmt.Errorf("delete account: %w", err)
	}

	if err := s.registry.Delete(ctx, account); err != nil {
		s.observe(opDelete, err)
		if errors.Is(err, domain.ErrAccountNotFound) {
			return ports.DeleteOutcomeNotFound, nil
		}
		s.log.Error().Err(err).Str("email", email).Msg("failed to delete account")
		return "", fmt.Errorf("delete account: %w", err)
	}

	s.log.Info().Str("account_id", account.ID).Str("email", account.Email).Msg("account deleted")
	s.observe(opDelete, nil)
	return ports.DeleteOutcomeDeleted, nil
}

// UpdateProfile changes the username of the caller's own account.
func (s *AccountService) UpdateProfile(ctx context.Context, email, username string) (*domain.Account, error) {
	account, err := s.findForEdit(ctx, opUpdateProfile, email)
	if err != nil {
		return nil, err
	}

	account.Username = strings.TrimSpace(username)
	updated, err := s.registry.Update(ctx, account)
	if err != nil {
		s.observe(opUpdateProfile, err)
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.observe(opUpdateProfile, nil)
	return updated, nil
}

// ListByRole returns the members of role with their active flag, in the
// order the role store returns them.
func (s *AccountService) ListByRole(ctx context.Context, role domain.Role) ([]ports.AccountSummary, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	members, err := s.roles.ListMembers(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list %s members: %w", role, err)
	}

	out := make([]ports.AccountSummary, 0, len(members))
	for _, m := range members {
		claims, err := s.claims.GetClaims(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("list %s members: claims of %s: %w", role, m.Email, err)
		}
		out = append(out, ports.AccountSummary{
			ID:             m.ID,
			Username:       m.Username,
			Email:          m.Email,
			EmailConfirmed: m.EmailConfirmed,
			IsActive:       domain.IsActive(claims),
		})
	}
	return out, nil
}

// State reports the lifecycle state of the account registered under email.
func (s *AccountService) State(ctx context.Context, email string) (domain.AccountState, error) {
	account, err := s.registry.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.StateNonExistent, nil
	}
	if err != nil {
		return "", err
	}

	claims, err := s.claims.GetClaims(ctx, account)
	if err != nil {
		return "", err
	}
	if domain.IsActive(claims) {
		return domain.StateActive, nil
	}
	return domain.StateInactive, nil
}

// findForEdit loads the target of an edit. Edits have no fallback for a
// missing account, so NotFound becomes a field error on email.
func (s *AccountService) findForEdit(ctx context.Context, op, email string) (*domain.Account, error) {
	account, err := s.registry.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		s.observe(op, err)
		return nil, domain.NewValidationError(err, domain.FieldError{Field: "email", Message: "no account is registered with this email"})
	}
	if err != nil {
		s.observe(op, err)
		return nil, fmt.Errorf("%s: find account: %w", op, err)
	}
	return account, nil
}

// requireClass rejects an edit aimed at an account outside the workflow's
// class. A class never changes after creation, so an Admin or an account of
// the other class is reported as a field error on email.
func (s *AccountService) requireClass(ctx context.Context, op string, account *domain.Account, role domain.Role) error {
	roles, err := s.roles.RolesOf(ctx, account)
	if err != nil {
		s.observe(op, err)
		return fmt.Errorf("%s: roles of account: %w", op, err)
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	s.log.Warn().Str("operation", op).Str("email", account.Email).Str("required_role", string(role)).Msg("edit rejected, account outside workflow class")
	err = domain.NewValidationError(domain.ErrForbidden, domain.FieldError{Field: "email", Message: classMessage(role)})
	s.observe(op, err)
	return err
}

func classMessage(role domain.Role) string {
	if role == domain.RoleUser {
		return "no customer account is registered with this email"
	}
	return "no service engineer account is registered with this email"
}

func (s *AccountService) partial(op, step string, account *domain.Account, err error) error {
	s.log.Error().Err(err).Str("operation", op).Str("step", step).Str("email", account.Email).Msg("account workflow partially applied")
	metrics.AccountLifecycleTotal.WithLabelValues(op, "partial_failure").Inc()
	return &domain.PartialFailureError{Step: step, Account: account, Err: err}
}

// notify hands the email to the dispatcher. The account change has already
// been persisted, so a delivery failure is only logged.
func (s *AccountService) notify(ctx context.Context, to, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, to, subject, body); err != nil {
		s.log.Warn().Err(err).Str("to", to).Str("subject", subject).Msg("failed to dispatch notification")
	}
}

func (s *AccountService) observe(op string, err error) {
	metrics.AccountLifecycleTotal.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	var ve *domain.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "not_found"
	case errors.As(err, &ve), errors.Is(err, domain.ErrConflict):
		return "validation_error"
	default:
		return "error"
	}
}

func engineerMessage(email string, active bool) (string, string) {
	if !active {
		return SubjectDeactivated, "Your account has been deactivated."
	}
	return SubjectCreatedModified, fmt.Sprintf("Email: %s \n Your account is ready to use.", email)
}

func customerMessage(email string, active bool) (string, string) {
	if !active {
		return SubjectDeactivated, "Your account has been deactivated."
	}
	return SubjectModified, fmt.Sprintf("Your account has been activated, email : %s", email)
}

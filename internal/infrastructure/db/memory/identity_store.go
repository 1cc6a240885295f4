// Package memory provides process-local implementations of the identity
// store and session store. They back the "memory" backends and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/infrastructure/identity"
)

type record struct {
	account domain.Account
	claims  []domain.Claim
	roles   []domain.Role
}

// IdentityStore implements ports.AccountRegistry, ports.ClaimStore and
// ports.RoleAssigner over one in-memory table. Each method holds the lock for
// its whole duration, so SetClaim and Assign are atomic.
type IdentityStore struct {
	mu      sync.RWMutex
	records map[string]*record
	order   []string // insertion order of IDs
	tokens  *identity.ResetTokens
}

func NewIdentityStore(tokens *identity.ResetTokens) *IdentityStore {
	return &IdentityStore{
		records: make(map[string]*record),
		tokens:  tokens,
	}
}

// ── AccountRegistry ──────────────────────────────────────────────────────────

func (s *IdentityStore) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := s.byEmailLocked(email)
	if rec == nil {
		return nil, domain.ErrAccountNotFound
	}
	acc := rec.account
	return &acc, nil
}

func (s *IdentityStore) Create(_ context.Context, profile domain.AccountProfile, password string) (*domain.Account, error) {
	ve := identity.ValidateProfile(profile.Username, profile.Email)
	hash, err := identity.HashPassword(password)
	if err != nil {
		fields := domain.FieldErrors(err)
		if fields == nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		ve.Fields = append(ve.Fields, fields...)
	}
	if ve.HasErrors() {
		return nil, ve
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.uniqueLocked("", profile.Username, profile.Email); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &record{account: domain.Account{
		ID:             uuid.NewString(),
		Username:       profile.Username,
		Email:          profile.Email,
		EmailConfirmed: profile.EmailConfirmed,
		PasswordHash:   hash,
		SecurityStamp:  identity.NewSecurityStamp(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}}
	s.records[rec.account.ID] = rec
	s.order = append(s.order, rec.account.ID)

	acc := rec.account
	return &acc, nil
}

func (s *IdentityStore) Update(_ context.Context, account *domain.Account) (*domain.Account, error) {
	if ve := identity.ValidateProfile(account.Username, account.Email); ve.HasErrors() {
		return nil, ve
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[account.ID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if err := s.uniqueLocked(account.ID, account.Username, account.Email); err != nil {
		return nil, err
	}

	rec.account.Username = account.Username
	rec.account.Email = account.Email
	rec.account.EmailConfirmed = account.EmailConfirmed
	rec.account.UpdatedAt = time.Now().UTC()

	acc := rec.account
	return &acc, nil
}

func (s *IdentityStore) Delete(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(s.records, account.ID)
	for i, id := range s.order {
		if id == account.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *IdentityStore) GeneratePasswordResetToken(_ context.Context, account *domain.Account) (string, error) {
	s.mu.RLock()
	rec, ok := s.records[account.ID]
	var current domain.Account
	if ok {
		current = rec.account
	}
	s.mu.RUnlock()

	if !ok {
		return "", domain.ErrAccountNotFound
	}
	return s.tokens.Generate(&current)
}

func (s *IdentityStore) ResetPassword(_ context.Context, account *domain.Account, token, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if err := s.tokens.Verify(&rec.account, token); err != nil {
		return domain.NewValidationError(err, domain.FieldError{Message: "invalid token"})
	}
	hash, err := identity.HashPassword(newPassword)
	if err != nil {
		return err
	}
	rec.account.PasswordHash = hash
	rec.account.SecurityStamp = identity.NewSecurityStamp()
	rec.account.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *IdentityStore) CheckPassword(_ context.Context, account *domain.Account, password string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[account.ID]
	if !ok {
		return false, domain.ErrAccountNotFound
	}
	return identity.ComparePassword(rec.account.PasswordHash, password), nil
}

// ── ClaimStore ───────────────────────────────────────────────────────────────

func (s *IdentityStore) GetClaims(_ context.Context, account *domain.Account) ([]domain.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[account.ID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return append([]domain.Claim(nil), rec.claims...), nil
}

func (s *IdentityStore) SetClaim(_ context.Context, account *domain.Account, claimType, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	rec.claims = domain.ReplaceClaim(rec.claims, claimType, value)
	return nil
}

// ── RoleAssigner ─────────────────────────────────────────────────────────────

func (s *IdentityStore) Assign(_ context.Context, account *domain.Account, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	for _, held := range rec.roles {
		if held == role {
			return nil
		}
		if held.ConflictsWith(role) {
			return domain.NewValidationError(domain.ErrRoleConflict, domain.FieldError{
				Message: "account already belongs to role " + string(held),
			})
		}
	}
	rec.roles = append(rec.roles, role)
	return nil
}

func (s *IdentityStore) Remove(_ context.Context, account *domain.Account, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	kept := rec.roles[:0]
	for _, held := range rec.roles {
		if held != role {
			kept = append(kept, held)
		}
	}
	rec.roles = kept
	return nil
}

func (s *IdentityStore) ListMembers(_ context.Context, role domain.Role) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Account
	for _, id := range s.order {
		rec := s.records[id]
		for _, held := range rec.roles {
			if held == role {
				acc := rec.account
				out = append(out, &acc)
				break
			}
		}
	}
	return out, nil
}

func (s *IdentityStore) RolesOf(_ context.Context, account *domain.Account) ([]domain.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[account.ID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return append([]domain.Role(nil), rec.roles...), nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *IdentityStore) byEmailLocked(email string) *record {
	key := domain.NormalizeEmail(email)
	for _, rec := range s.records {
		if domain.NormalizeEmail(rec.account.Email) == key {
			return rec
		}
	}
	return nil
}

func (s *IdentityStore) uniqueLocked(selfID, username, email string) error {
	emailKey := domain.NormalizeEmail(email)
	userKey := domain.NormalizeUsername(username)
	for id, rec := range s.records {
		if id == selfID {
			continue
		}
		if domain.NormalizeEmail(rec.account.Email) == emailKey {
			return domain.NewValidationError(domain.ErrEmailTaken, domain.FieldError{
				Field: "email", Message: "email '" + email + "' is already taken",
			})
		}
		if domain.NormalizeUsername(rec.account.Username) == userKey {
			return domain.NewValidationError(domain.ErrUsernameTaken, domain.FieldError{
				Field: "username", Message: "username '" + username + "' is already taken",
			})
		}
	}
	return nil
}

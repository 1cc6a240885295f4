package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
)

// SeedAccount describes an account provisioned at startup.
type SeedAccount struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// IdentitySeeder provisions the administrator and any initial accounts.
// Seeding is idempotent: existing accounts are left untouched apart from
// missing roles and claims, which are filled in.
type IdentitySeeder struct {
	registry ports.AccountRegistry
	claims   ports.ClaimStore
	roles    ports.RoleAssigner
	log      zerolog.Logger
}

func NewIdentitySeeder(registry ports.AccountRegistry, claims ports.ClaimStore, roles ports.RoleAssigner, log zerolog.Logger) *IdentitySeeder {
	return &IdentitySeeder{registry: registry, claims: claims, roles: roles, log: log}
}

// Seed ensures every account in seeds exists, holds its role and is active.
// Entries without an email are skipped.
func (s *IdentitySeeder) Seed(ctx context.Context, seeds ...SeedAccount) error {
	for _, sd := range seeds {
		if sd.Email == "" {
			continue
		}
		if err := s.ensure(ctx, sd); err != nil {
			return fmt.Errorf("seed %s: %w", sd.Email, err)
		}
	}
	return nil
}

func (s *IdentitySeeder) ensure(ctx context.Context, sd SeedAccount) error {
	account, err := s.registry.FindByEmail(ctx, sd.Email)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		account, err = s.registry.Create(ctx, domain.AccountProfile{
			Username:       sd.Username,
			Email:          sd.Email,
			EmailConfirmed: true,
		}, sd.Password)
		if err != nil {
			return err
		}
		s.log.Info().Str("email", sd.Email).Str("role", string(sd.Role)).Msg("seeded account")
	case err != nil:
		return err
	}

	claims, err := s.claims.GetClaims(ctx, account)
	if err != nil {
		return err
	}
	if len(domain.ClaimValues(claims, domain.ClaimEmailAddress)) == 0 {
		if err := s.claims.SetClaim(ctx, account, domain.ClaimEmailAddress, account.Email); err != nil {
			return err
		}
	}
	if len(domain.ClaimValues(claims, domain.ClaimIsActive)) == 0 {
		if err := s.claims.SetClaim(ctx, account, domain.ClaimIsActive, domain.FormatBool(true)); err != nil {
			return err
		}
	}
	return s.roles.Assign(ctx, account, sd.Role)
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
)

// AuthService implements sign-in on top of the identity store capabilities.
type AuthService struct {
	registry  ports.AccountRegistry
	claims    ports.ClaimStore
	roles     ports.RoleAssigner
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(registry ports.AccountRegistry, claims ports.ClaimStore, roles ports.RoleAssigner, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{registry: registry, claims: claims, roles: roles, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Login checks the password and the IsActive claim. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *ports.Principal, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.registry.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	ok, err := s.registry.CheckPassword(ctx, account, password)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, domain.ErrInvalidCredentials
	}

	claims, err := s.claims.GetClaims(ctx, account)
	if err != nil {
		return "", nil, err
	}
	if !domain.IsActive(claims) {
		return "", nil, domain.ErrAccountInactive
	}

	return s.Refresh(ctx, account)
}

// Refresh issues a fresh token for account with its current username and roles.
func (s *AuthService) Refresh(ctx context.Context, account *domain.Account) (string, *ports.Principal, error) {
	roles, err := s.roles.RolesOf(ctx, account)
	if err != nil {
		return "", nil, err
	}

	p := &ports.Principal{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Roles:     roles,
	}
	token, err := s.generateToken(p)
	if err != nil {
		return "", nil, err
	}
	return token, p, nil
}

func (s *AuthService) generateToken(p *ports.Principal) (string, error) {
	roles := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		roles = append(roles, string(r))
	}
	claims := jwt.MapClaims{
		"sub":      p.AccountID,
		"username": p.Username,
		"email":    p.Email,
		"roles":    roles,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub identity store (registry + claims + roles)
// ---------------------------------------------------------------------------

type stubIdentity struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account // keyed by lower-case email
	order    []string
	claims   map[string][]domain.Claim
	roles    map[string][]domain.Role
	nextID   int

	createErr   error
	setClaimErr map[string]error // claim type → error
	assignErr   error
	deleteErr   error
	resetErr    error
	findErr     error

	updates int
	resets  int
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{
		accounts:    make(map[string]*domain.Account),
		claims:      make(map[string][]domain.Claim),
		roles:       make(map[string][]domain.Role),
		setClaimErr: make(map[string]error),
	}
}

func (s *stubIdentity) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *stubIdentity) Create(_ context.Context, p domain.AccountProfile, password string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	if err := stubPasswordPolicy(password); err != nil {
		return nil, err
	}
	key := strings.ToLower(p.Email)
	if _, ok := s.accounts[key]; ok {
		return nil, domain.NewValidationError(domain.ErrEmailTaken, domain.FieldError{Field: "email", Message: "email already in use"})
	}
	s.nextID++
	a := &domain.Account{
		ID:             fmt.Sprintf("acc-%d", s.nextID),
		Username:       p.Username,
		Email:          p.Email,
		EmailConfirmed: p.EmailConfirmed,
		PasswordHash:   "hash:" + password,
		SecurityStamp:  "stamp-1",
	}
	s.accounts[key] = a
	s.order = append(s.order, key)
	clone := *a
	return &clone, nil
}

func (s *stubIdentity) Update(_ context.Context, a *domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[strings.ToLower(a.Email)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if a.Username == "" {
		return nil, domain.NewValidationError(nil, domain.FieldError{Field: "username", Message: "username is required"})
	}
	s.updates++
	cur.Username = a.Username
	clone := *cur
	return &clone, nil
}

func (s *stubIdentity) Delete(_ context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	key := strings.ToLower(a.Email)
	if _, ok := s.accounts[key]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(s.accounts, key)
	delete(s.claims, key)
	delete(s.roles, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *stubIdentity) GeneratePasswordResetToken(_ context.Context, a *domain.Account) (string, error) {
	return "token-for-" + a.Email, nil
}

func (s *stubIdentity) ResetPassword(_ context.Context, a *domain.Account, token, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetErr != nil {
		return s.resetErr
	}
	if token != "token-for-"+a.Email {
		return domain.ErrInvalidResetToken
	}
	if err := stubPasswordPolicy(newPassword); err != nil {
		return err
	}
	cur, ok := s.accounts[strings.ToLower(a.Email)]
	if !ok {
		return domain.ErrAccountNotFound
	}
	s.resets++
	cur.PasswordHash = "hash:" + newPassword
	return nil
}

func (s *stubIdentity) CheckPassword(_ context.Context, a *domain.Account, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[strings.ToLower(a.Email)]
	if !ok {
		return false, domain.ErrAccountNotFound
	}
	return cur.PasswordHash == "hash:"+password, nil
}

func (s *stubIdentity) GetClaims(_ context.Context, a *domain.Account) ([]domain.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Claim(nil), s.claims[strings.ToLower(a.Email)]...), nil
}

func (s *stubIdentity) SetClaim(_ context.Context, a *domain.Account, claimType, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setClaimErr[claimType]; err != nil {
		return err
	}
	key := strings.ToLower(a.Email)
	s.claims[key] = domain.ReplaceClaim(s.claims[key], claimType, value)
	return nil
}

func (s *stubIdentity) Assign(_ context.Context, a *domain.Account, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assignErr != nil {
		return s.assignErr
	}
	key := strings.ToLower(a.Email)
	for _, held := range s.roles[key] {
		if held == role {
			return nil
		}
		if held.ConflictsWith(role) {
			return domain.NewValidationError(domain.ErrRoleConflict, domain.FieldError{Message: "account already belongs to another class"})
		}
	}
	s.roles[key] = append(s.roles[key], role)
	return nil
}

func (s *stubIdentity) Remove(_ context.Context, a *domain.Account, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(a.Email)
	kept := s.roles[key][:0]
	for _, held := range s.roles[key] {
		if held != role {
			kept = append(kept, held)
		}
	}
	s.roles[key] = kept
	return nil
}

func (s *stubIdentity) ListMembers(_ context.Context, role domain.Role) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Account
	for _, key := range s.order {
		for _, held := range s.roles[key] {
			if held == role {
				clone := *s.accounts[key]
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (s *stubIdentity) RolesOf(_ context.Context, a *domain.Account) ([]domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Role(nil), s.roles[strings.ToLower(a.Email)]...), nil
}

// claimValues is a test helper reading claims without a context.
func (s *stubIdentity) claimValues(email, claimType string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ClaimValues(s.claims[strings.ToLower(email)], claimType)
}

func (s *stubIdentity) rolesOf(email string) []domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Role(nil), s.roles[strings.ToLower(email)]...)
}

func stubPasswordPolicy(password string) error {
	if len(password) < 6 || strings.ToLower(password) == password {
		return domain.NewValidationError(nil, domain.FieldError{Field: "password", Message: "password does not meet the policy"})
	}
	return nil
}

// ---------------------------------------------------------------------------
// Recording notifier
// ---------------------------------------------------------------------------

type sentEmail struct {
	To, Subject, Body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

func (n *recordingNotifier) emails() []sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEmail(nil), n.sent...)
}

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/infrastructure/identity"
)

func newTestStore() *IdentityStore {
	return NewIdentityStore(identity.NewResetTokens("secret", 0))
}

func mustCreate(t *testing.T, s *IdentityStore, username, email string) *domain.Account {
	t.Helper()
	acct, err := s.Create(context.Background(), domain.AccountProfile{Username: username, Email: email, EmailConfirmed: true}, "P@ssw0rd")
	if err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	return acct
}

func TestIdentityStore_CreateAndFind(t *testing.T) {
	s := newTestStore()
	created := mustCreate(t, s, "eng1", "Eng1@X.com")

	if created.ID == "" || created.PasswordHash == "" || created.SecurityStamp == "" {
		t.Fatalf("expected generated fields, got %+v", created)
	}
	if created.PasswordHash == "P@ssw0rd" {
		t.Fatal("password must be hashed")
	}

	found, err := s.FindByEmail(context.Background(), "  eng1@x.COM ")
	if err != nil {
		t.Fatalf("case-insensitive lookup failed: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("found a different account")
	}

	if _, err := s.FindByEmail(context.Background(), "ghost@x.com"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestIdentityStore_CreateRejectsDuplicates(t *testing.T) {
	s := newTestStore()
	mustCreate(t, s, "eng1", "eng1@x.com")

	_, err := s.Create(context.Background(), domain.AccountProfile{Username: "other", Email: "ENG1@x.com"}, "P@ssw0rd")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if f := domain.FieldErrors(err); len(f) != 1 || f[0].Field != "email" {
		t.Fatalf("expected email field error, got %v", f)
	}

	_, err = s.Create(context.Background(), domain.AccountProfile{Username: "ENG1", Email: "new@x.com"}, "P@ssw0rd")
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestIdentityStore_CreateCollectsFieldErrors(t *testing.T) {
	s := newTestStore()

	_, err := s.Create(context.Background(), domain.AccountProfile{}, "abc")
	fields := domain.FieldErrors(err)
	seen := map[string]bool{}
	for _, f := range fields {
		seen[f.Field] = true
	}
	if !seen["username"] || !seen["email"] || !seen["password"] {
		t.Fatalf("expected username, email and password errors, got %v", fields)
	}
}

func TestIdentityStore_ResetPassword(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	acct := mustCreate(t, s, "eng1", "eng1@x.com")

	token, err := s.GeneratePasswordResetToken(ctx, acct)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	// Policy failures leave the old password in place.
	if err := s.ResetPassword(ctx, acct, token, "weak"); domain.FieldErrors(err) == nil {
		t.Fatalf("expected policy field errors, got %v", err)
	}
	if ok, _ := s.CheckPassword(ctx, acct, "P@ssw0rd"); !ok {
		t.Fatal("old password should still work")
	}

	if err := s.ResetPassword(ctx, acct, token, "N3w!Passw0rd"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if ok, _ := s.CheckPassword(ctx, acct, "N3w!Passw0rd"); !ok {
		t.Fatal("new password should work")
	}

	// The stamp rotated, so the token is spent.
	if err := s.ResetPassword(ctx, acct, token, "An0ther!pass"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken for a reused token, got %v", err)
	}
}

func TestIdentityStore_UpdateAndDelete(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	acct := mustCreate(t, s, "eng1", "eng1@x.com")
	mustCreate(t, s, "eng2", "eng2@x.com")

	acct.Username = "eng2"
	if _, err := s.Update(ctx, acct); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	acct.Username = "engineer-one"
	updated, err := s.Update(ctx, acct)
	if err != nil || updated.Username != "engineer-one" {
		t.Fatalf("update: %+v, %v", updated, err)
	}

	if err := s.Delete(ctx, acct); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, acct); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("second delete: expected ErrAccountNotFound, got %v", err)
	}
}

func TestIdentityStore_SetClaimReplaces(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	acct := mustCreate(t, s, "eng1", "eng1@x.com")

	_ = s.SetClaim(ctx, acct, domain.ClaimEmailAddress, "eng1@x.com")
	for i := 0; i < 2; i++ {
		if err := s.SetClaim(ctx, acct, domain.ClaimIsActive, "False"); err != nil {
			t.Fatalf("set claim: %v", err)
		}
	}

	claims, err := s.GetClaims(ctx, acct)
	if err != nil {
		t.Fatalf("get claims: %v", err)
	}
	if got := domain.ClaimValues(claims, domain.ClaimIsActive); len(got) != 1 || got[0] != "False" {
		t.Fatalf("expected exactly one IsActive=False claim, got %v", got)
	}
	if got := domain.ClaimValues(claims, domain.ClaimEmailAddress); len(got) != 1 {
		t.Fatalf("other claim types must be kept, got %v", claims)
	}
}

func TestIdentityStore_RoleExclusivity(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	acct := mustCreate(t, s, "eng1", "eng1@x.com")

	if err := s.Assign(ctx, acct, domain.RoleEngineer); err != nil {
		t.Fatalf("assign engineer: %v", err)
	}
	if err := s.Assign(ctx, acct, domain.RoleEngineer); err != nil {
		t.Fatalf("re-assigning a held role must be a no-op, got %v", err)
	}

	err := s.Assign(ctx, acct, domain.RoleUser)
	if !errors.Is(err, domain.ErrRoleConflict) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrRoleConflict, got %v", err)
	}

	roles, _ := s.RolesOf(ctx, acct)
	if len(roles) != 1 || roles[0] != domain.RoleEngineer {
		t.Fatalf("membership must be unchanged, got %v", roles)
	}
	users, _ := s.ListMembers(ctx, domain.RoleUser)
	if len(users) != 0 {
		t.Fatalf("User role must stay empty, got %d members", len(users))
	}

	// Admin is not an account class and combines with either.
	if err := s.Assign(ctx, acct, domain.RoleAdmin); err != nil {
		t.Fatalf("assign admin: %v", err)
	}
	if err := s.Remove(ctx, acct, domain.RoleEngineer); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Assign(ctx, acct, domain.RoleUser); err != nil {
		t.Fatalf("assign user after removing engineer: %v", err)
	}
}

func TestIdentityStore_ListMembersInInsertionOrder(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		acct := mustCreate(t, s, name, name+"@x.com")
		if err := s.Assign(ctx, acct, domain.RoleEngineer); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}

	members, err := s.ListMembers(ctx, domain.RoleEngineer)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"charlie", "alpha", "bravo"}
	for i, m := range members {
		if m.Username != want[i] {
			t.Fatalf("position %d: want %s, got %s", i, want[i], m.Username)
		}
	}
}

func TestIdentityStore_AssignInvalidRole(t *testing.T) {
	s := newTestStore()
	acct := mustCreate(t, s, "eng1", "eng1@x.com")

	if err := s.Assign(context.Background(), acct, domain.Role("Guest")); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

package identity

import (
	"errors"
	"testing"

	"github.com/asc-solution/accounts/internal/core/domain"
)

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name       string
		password   string
		wantErrors int
	}{
		{"valid", "P@ssw0rd", 0},
		{"too short", "P@s0r", 1},
		{"no symbol", "Passw0rd", 1},
		{"no digit", "P@ssword", 1},
		{"no lower", "P@SSW0RD", 1},
		{"no upper", "p@ssw0rd", 1},
		{"empty", "", 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if tc.wantErrors == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			fields := domain.FieldErrors(err)
			if len(fields) != tc.wantErrors {
				t.Fatalf("want %d field errors, got %v", tc.wantErrors, fields)
			}
			for _, f := range fields {
				if f.Field != "password" {
					t.Fatalf("unexpected field %q", f.Field)
				}
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("P@ssw0rd")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !ComparePassword(hash, "P@ssw0rd") {
		t.Fatal("expected the hash to match")
	}
	if ComparePassword(hash, "p@ssw0rd") {
		t.Fatal("expected a mismatch for a different password")
	}

	if _, err := HashPassword("weak"); domain.FieldErrors(err) == nil {
		t.Fatalf("expected policy errors, got %v", err)
	}
}

func TestValidateProfile(t *testing.T) {
	if ve := ValidateProfile("eng1", "eng1@x.com"); ve.HasErrors() {
		t.Fatalf("unexpected errors: %v", ve)
	}
	ve := ValidateProfile("  ", "")
	if len(ve.Fields) != 2 {
		t.Fatalf("expected username and email errors, got %v", ve.Fields)
	}
}

func TestResetTokens(t *testing.T) {
	tokens := NewResetTokens("secret", 0)
	acct := &domain.Account{ID: "acc-1", SecurityStamp: "stamp-1"}

	token, err := tokens.Generate(acct)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := tokens.Verify(acct, token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	rotated := &domain.Account{ID: "acc-1", SecurityStamp: "stamp-2"}
	other := &domain.Account{ID: "acc-2", SecurityStamp: "stamp-1"}
	for name, a := range map[string]*domain.Account{"rotated stamp": rotated, "other account": other} {
		if err := tokens.Verify(a, token); !errors.Is(err, domain.ErrInvalidResetToken) {
			t.Errorf("%s: expected ErrInvalidResetToken, got %v", name, err)
		}
	}

	if err := NewResetTokens("other-secret", 0).Verify(acct, token); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Errorf("wrong secret: expected ErrInvalidResetToken, got %v", err)
	}
	if err := tokens.Verify(acct, "garbage"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Errorf("garbage: expected ErrInvalidResetToken, got %v", err)
	}
}

// Package identity holds the credential primitives shared by the identity
// store adapters: password policy, hashing and reset tokens.
package identity

import (
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/asc-solution/accounts/internal/core/domain"
)

const MinPasswordLength = 6

// ValidatePassword applies the credential policy. It returns nil or a
// *domain.ValidationError with one entry per violated rule, all on "password".
func ValidatePassword(password string) error {
	var hasDigit, hasLower, hasUpper, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			hasSymbol = true
		}
	}

	ve := domain.NewValidationError(nil)
	if len(password) < MinPasswordLength {
		ve.Add("password", "passwords must be at least 6 characters")
	}
	if !hasSymbol {
		ve.Add("password", "passwords must have at least one non alphanumeric character")
	}
	if !hasDigit {
		ve.Add("password", "passwords must have at least one digit ('0'-'9')")
	}
	if !hasLower {
		ve.Add("password", "passwords must have at least one lowercase ('a'-'z')")
	}
	if !hasUpper {
		ve.Add("password", "passwords must have at least one uppercase ('A'-'Z')")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// HashPassword validates password and returns its bcrypt hash.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches hash.
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewSecurityStamp returns a fresh stamp; rotating it invalidates reset tokens.
func NewSecurityStamp() string {
	return uuid.NewString()
}

// ValidateProfile checks the fields the store requires on every write.
func ValidateProfile(username, email string) *domain.ValidationError {
	ve := domain.NewValidationError(nil)
	if domain.NormalizeUsername(username) == "" {
		ve.Add("username", "username is required")
	}
	if domain.NormalizeEmail(email) == "" {
		ve.Add("email", "email is required")
	}
	return ve
}

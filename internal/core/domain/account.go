package domain

import (
	"strings"
	"time"
)

// Role is one of the closed set of membership categories an account can hold.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleEngineer Role = "Engineer"
	RoleUser     Role = "User"
)

// exclusiveRoles are the account classes; an account holds at most one of them.
var exclusiveRoles = []Role{RoleEngineer, RoleUser}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEngineer, RoleUser:
		return true
	}
	return false
}

// ConflictsWith reports whether holding r forbids also holding other.
func (r Role) ConflictsWith(other Role) bool {
	if r == other {
		return false
	}
	return r.isClass() && other.isClass()
}

// ExclusiveWith returns the roles an account must not hold to be assigned r.
func (r Role) ExclusiveWith() []Role {
	var out []Role
	for _, c := range exclusiveRoles {
		if r.ConflictsWith(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r Role) isClass() bool {
	for _, c := range exclusiveRoles {
		if r == c {
			return true
		}
	}
	return false
}

// Account is the credential/profile record owned by the identity store.
type Account struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	EmailConfirmed bool      `json:"email_confirmed"`
	PasswordHash   string    `json:"-"`
	SecurityStamp  string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountProfile is what a caller supplies when creating an account.
type AccountProfile struct {
	Username       string
	Email          string
	EmailConfirmed bool
}

// NormalizeEmail is the key used for case-insensitive email lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername is the key used for username uniqueness.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// AccountState is the lifecycle state observable through claims and roles.
type AccountState string

const (
	StateActive      AccountState = "active"
	StateInactive    AccountState = "inactive"
	StateNonExistent AccountState = "non_existent"
)

package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/asc-solution/accounts/internal/core/domain"
)

const (
	resetPurpose    = "reset_password"
	defaultResetTTL = 15 * time.Minute
)

// ResetTokens mints and checks password-reset tokens. A token is bound to the
// account's security stamp, so it stops verifying once the password changes.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewResetTokens(secret string, ttl time.Duration) *ResetTokens {
	if ttl <= 0 {
		ttl = defaultResetTTL
	}
	return &ResetTokens{secret: []byte(secret), ttl: ttl}
}

func (r *ResetTokens) Generate(account *domain.Account) (string, error) {
	claims := jwt.MapClaims{
		"sub":     account.ID,
		"stamp":   account.SecurityStamp,
		"purpose": resetPurpose,
		"exp":     time.Now().Add(r.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// Verify returns domain.ErrInvalidResetToken unless token was issued for
// account's current security stamp and has not expired.
func (r *ResetTokens) Verify(account *domain.Account, token string) error {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return r.secret, nil
	})
	if err != nil || !tkn.Valid {
		return domain.ErrInvalidResetToken
	}
	if claims["purpose"] != resetPurpose || claims["sub"] != account.ID || claims["stamp"] != account.SecurityStamp {
		return domain.ErrInvalidResetToken
	}
	return nil
}

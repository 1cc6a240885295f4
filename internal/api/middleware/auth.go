package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
)

const (
	// PrincipalKey is the echo context key holding the authenticated ports.Principal.
	PrincipalKey = "principal"
	// AccessTokenCookie carries the sign-in token for browser clients.
	AccessTokenCookie = "access_token"
)

// Auth validates the JWT from the Authorization header or the access token
// cookie and injects the caller as a ports.Principal.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			p := ports.Principal{
				AccountID: stringClaim(claims, "sub"),
				Username:  stringClaim(claims, "username"),
				Email:     stringClaim(claims, "email"),
				Roles:     roleClaims(claims),
			}
			if p.Email == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing account identity")
			}

			c.Set(PrincipalKey, p)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := c.Cookie(AccessTokenCookie)
		if err != nil || cookie.Value == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// roleClaims reads the "roles" array; JSON decoding yields []interface{}.
func roleClaims(claims jwt.MapClaims) []domain.Role {
	raw, _ := claims["roles"].([]interface{})
	roles := make([]domain.Role, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok && domain.Role(s).Valid() {
			roles = append(roles, domain.Role(s))
		}
	}
	return roles
}

// PrincipalFrom returns the principal injected by Auth.
func PrincipalFrom(c echo.Context) (ports.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(ports.Principal)
	return p, ok
}

package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	SessionIDKey  = "session_id"
	SessionCookie = "asc_session"
)

// SessionConfig controls the session cookie.
type SessionConfig struct {
	// MaxAge bounds the cookie lifetime; it should match the store TTL.
	MaxAge time.Duration
	Secure bool
}

// Session makes sure every request carries a session ID, issuing a new cookie
// when the client has none or sent a malformed one.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				if _, perr := uuid.Parse(cookie.Value); perr == nil {
					id = cookie.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			// Sliding expiry, refreshed on every request.
			c.SetCookie(&http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cfg.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(SessionIDKey, id)
			return next(c)
		}
	}
}

// SessionIDFrom returns the session ID injected by Session.
func SessionIDFrom(c echo.Context) string {
	id, _ := c.Get(SessionIDKey).(string)
	return id
}

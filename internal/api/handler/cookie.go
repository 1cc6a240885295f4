package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/asc-solution/accounts/internal/api/middleware"
)

// CookieOptions controls the access-token cookie issued on sign-in.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

func setAccessCookie(c echo.Context, opts CookieOptions, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAccessCookie(c echo.Context, opts CookieOptions) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asc-solution/accounts/internal/api/middleware"
	"github.com/asc-solution/accounts/internal/core/ports"
)

// ctxPrincipal extracts the caller injected by the Auth middleware. An empty
// email means the token carried no usable identity.
func ctxPrincipal(c echo.Context) (ports.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.Email == "" {
		return ports.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}

// ctxSession returns the session ID injected by the Session middleware.
func ctxSession(c echo.Context) (string, error) {
	id := middleware.SessionIDFrom(c)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing session")
	}
	return id, nil
}

// csrfToken returns the anti-forgery token set by echo's CSRF middleware, if any.
func csrfToken(c echo.Context) string {
	tok, _ := c.Get("csrf").(string)
	return tok
}

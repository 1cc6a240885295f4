package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// RBAC lets the request through when the principal holds any of allowedRoles.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			for _, r := range allowedRoles {
				if p.HasRole(r) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}

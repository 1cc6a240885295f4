package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asc-solution/accounts/internal/core/ports"
)

type NavigationHandler struct {
	nav ports.NavigationCacheOperations
}

func NewNavigationHandler(nav ports.NavigationCacheOperations) *NavigationHandler {
	return &NavigationHandler{nav: nav}
}

// Menu returns the navigation menu filtered to the caller's roles.
//
// @Summary      Navigation menu
// @Tags         navigation
// @Produce      json
// @Success      200  {object}  domain.NavigationMenu
// @Failure      401  {object}  map[string]string
// @Router       /navigation [get]
func (h *NavigationHandler) Menu(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	menu, err := h.nav.GetOrBuild(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, menu.ForRoles(p.Roles))
}

// Invalidate drops the cached menu; the next request rebuilds it.
//
// @Summary      Invalidate navigation cache
// @Tags         navigation
// @Success      204
// @Router       /navigation/invalidate [post]
func (h *NavigationHandler) Invalidate(c echo.Context) error {
	h.nav.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

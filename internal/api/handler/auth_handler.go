package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieOptions
}

func NewAuthHandler(authService ports.AuthService, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type userResponse struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Roles    []domain.Role `json:"roles"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	User  *userResponse `json:"user,omitempty"`
}

func toUserResponse(p *ports.Principal) *userResponse {
	if p == nil {
		return nil
	}
	return &userResponse{ID: p.AccountID, Username: p.Username, Email: p.Email, Roles: p.Roles}
}

// Login authenticates an account and returns a JWT token. The token is also
// set as an HttpOnly cookie for browser clients.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	token, principal, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		case errors.Is(err, domain.ErrAccountInactive):
			return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
		}
		return err
	}

	setAccessCookie(c, h.cookie, token)
	return c.JSON(http.StatusOK, authResponse{Token: token, User: toUserResponse(principal)})
}

// Logout clears the access token cookie.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	clearAccessCookie(c, h.cookie)
	return c.NoContent(http.StatusNoContent)
}

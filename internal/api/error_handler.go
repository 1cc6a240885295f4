package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, CSRF, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var partial *domain.PartialFailureError
	if errors.As(err, &partial) {
		log.Warn().Err(err).Str("path", c.Path()).Msg("partially applied workflow")
		return http.StatusUnprocessableEntity, errorResponse{
			Error:  "account saved but " + partial.Step + " failed",
			Fields: domain.FieldErrors(err),
		}
	}
	if fields := domain.FieldErrors(err); len(fields) > 0 {
		return http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, errorResponse{Error: "account not found"}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrAccountInactive):
		return http.StatusForbidden, errorResponse{Error: "account is inactive"}
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, errorResponse{Error: "invalid role"}
	case errors.Is(err, domain.ErrStore):
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("identity store failure")
		return http.StatusServiceUnavailable, errorResponse{Error: "service temporarily unavailable, try again"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

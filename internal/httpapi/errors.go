package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mailportal/internal/apperr"
	"mailportal/internal/store"
)

// jsonError writes the standard error body: a small JSON object with a
// human-readable message and nothing else.
func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// mapError translates taxonomy errors into HTTP responses. Anything
// unrecognized is an internal error; the detail is logged, not leaked.
func (s *Server) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return jsonError(c, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrForbidden):
		return jsonError(c, http.StatusForbidden, "access denied")
	case errors.Is(err, apperr.ErrValidation):
		return jsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		return jsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrMissing):
		return jsonError(c, http.StatusNotFound, "file not found on disk")
	default:
		s.Logger.Error("request failed", "path", c.Request().URL.Path, "err", err)
		return jsonError(c, http.StatusInternalServerError, "internal server error")
	}
}

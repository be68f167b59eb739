package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"mailportal/internal/auth"
	"mailportal/internal/db"
)

const ctxUserKey = "portal_user"

// requireAuth validates the bearer token and loads the account it names.
// Missing/invalid tokens and deactivated accounts get 401.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		tok, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tok == "" {
			return jsonError(c, http.StatusUnauthorized, "not authenticated")
		}
		claims, err := auth.ParseToken(tok, s.JWTSecret)
		if err != nil {
			return jsonError(c, http.StatusUnauthorized, "not authenticated")
		}
		u, found, err := s.DB.GetUserByID(c.Request().Context(), claims.UserID)
		if err != nil {
			return s.mapError(c, err)
		}
		if !found || !u.Active {
			return jsonError(c, http.StatusUnauthorized, "not authenticated")
		}
		c.Set(ctxUserKey, u)
		return next(c)
	}
}

// currentUser returns the account loaded by requireAuth.
func currentUser(c echo.Context) *db.User {
	u, _ := c.Get(ctxUserKey).(*db.User)
	return u
}

// requestLog logs one line per request with the status-scaled level.
func (s *Server) requestLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []any{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"bytes", c.Response().Size,
				"remote_ip", c.RealIP(),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			s.Logger.Log(c.Request().Context(), levelForStatus(status), "http request", attrs...)
			return nil
		}
	}
}

func levelForStatus(code int) slog.Level {
	if code >= 500 {
		return slog.LevelError
	}
	if code >= 400 {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

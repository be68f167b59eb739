package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mailportal/internal/auth"
	"mailportal/internal/db"
	"mailportal/internal/validate"
)

// handleRegister creates an account and issues a bearer token.
func (s *Server) handleRegister(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := validate.Email(req.Email); err != nil {
		return s.mapError(c, err)
	}
	if len(req.Password) < 6 {
		return jsonError(c, http.StatusBadRequest, "password must be at least 6 characters")
	}
	switch req.Role {
	case "", db.RoleClient, db.RoleStaff, db.RoleAdmin:
	default:
		return jsonError(c, http.StatusBadRequest, "invalid role")
	}

	hash, err := auth.HashPassword(req.Password, auth.DefaultArgon2Params())
	if err != nil {
		return s.mapError(c, err)
	}
	u, err := s.DB.CreateUser(c.Request().Context(), req.Email, req.Name, hash, req.Role)
	if err != nil {
		return s.mapError(c, err)
	}

	tok, err := auth.GenerateToken(u.ID, u.Email, u.Role, s.JWTSecret, s.TokenTTL)
	if err != nil {
		return s.mapError(c, err)
	}
	s.Logger.Info("user registered", "email", u.Email, "role", u.Role)
	return c.JSON(http.StatusCreated, echo.Map{"user": u, "token": tok})
}

// handleLogin verifies credentials and issues a bearer token.
// Unknown email, wrong password, and deactivated accounts are
// indistinguishable to the caller.
func (s *Server) handleLogin(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid json")
	}
	if req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "missing credentials")
	}

	u, found, err := s.DB.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return s.mapError(c, err)
	}
	if !found || !u.Active {
		auth.DummyVerify(req.Password)
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}
	ok, err := auth.VerifyPassword(req.Password, u.PasswordHash)
	if err != nil || !ok {
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}

	tok, err := auth.GenerateToken(u.ID, u.Email, u.Role, s.JWTSecret, s.TokenTTL)
	if err != nil {
		return s.mapError(c, err)
	}
	s.Logger.Info("user logged in", "email", u.Email)
	return c.JSON(http.StatusOK, echo.Map{"user": u, "token": tok})
}

// handleMe returns the authenticated account.
func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user": currentUser(c)})
}

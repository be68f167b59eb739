package httpapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"mailportal/internal/apperr"
	"mailportal/internal/auth"
	"mailportal/internal/db"
	"mailportal/internal/policy"
	"mailportal/internal/validate"
)

func (s *Server) handleListSftpCredentials(c echo.Context) error {
	u := currentUser(c)
	ownerFilter := ""
	if !policy.IsStaff(u.Role) {
		ownerFilter = u.ID
	}
	creds, err := s.DB.ListSftpCredentials(c.Request().Context(), ownerFilter)
	if err != nil {
		return s.mapError(c, err)
	}
	if creds == nil {
		creds = []db.SftpCredential{}
	}
	return c.JSON(http.StatusOK, creds)
}

func (s *Server) handleCreateSftpCredential(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := validate.Username(req.Username); err != nil {
		return s.mapError(c, err)
	}
	if len(req.Password) < 8 {
		return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password, auth.DefaultArgon2Params())
	if err != nil {
		return s.mapError(c, err)
	}
	u := currentUser(c)
	cred, err := s.DB.CreateSftpCredential(c.Request().Context(), u.ID, req.Username, hash)
	if err != nil {
		return s.mapError(c, err)
	}
	s.Logger.Info("sftp credential created", "username", cred.Username, "user", u.Email)
	return c.JSON(http.StatusCreated, cred)
}

// loadAuthorizedCredential applies the 404-before-403 ordering.
func (s *Server) loadAuthorizedCredential(c echo.Context, id string) (*db.SftpCredential, error) {
	cred, found, err := s.DB.GetSftpCredential(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("credential %s: %w", id, apperr.ErrNotFound)
	}
	u := currentUser(c)
	if err := policy.Authorize(u.ID, u.Role, cred.UserID); err != nil {
		return nil, err
	}
	return cred, nil
}

func (s *Server) handleUpdateSftpCredential(c echo.Context) error {
	cred, err := s.loadAuthorizedCredential(c, c.Param("id"))
	if err != nil {
		return s.mapError(c, err)
	}

	var req struct {
		Password *string `json:"password"`
		Active   *bool   `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid json")
	}

	var hash *string
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
		}
		h, err := auth.HashPassword(*req.Password, auth.DefaultArgon2Params())
		if err != nil {
			return s.mapError(c, err)
		}
		hash = &h
	}
	ctx := c.Request().Context()
	if err := s.DB.UpdateSftpCredential(ctx, cred.ID, hash, req.Active); err != nil {
		return s.mapError(c, err)
	}
	cred, _, err = s.DB.GetSftpCredential(ctx, cred.ID)
	if err != nil {
		return s.mapError(c, err)
	}
	s.Logger.Info("sftp credential updated", "credential", cred.ID)
	return c.JSON(http.StatusOK, cred)
}

func (s *Server) handleDeleteSftpCredential(c echo.Context) error {
	cred, err := s.loadAuthorizedCredential(c, c.Param("id"))
	if err != nil {
		return s.mapError(c, err)
	}
	if err := s.DB.DeleteSftpCredential(c.Request().Context(), cred.ID); err != nil {
		return s.mapError(c, err)
	}
	s.Logger.Info("sftp credential deleted", "credential", cred.ID, "username", cred.Username)
	return c.JSON(http.StatusOK, echo.Map{"message": "credential deleted"})
}

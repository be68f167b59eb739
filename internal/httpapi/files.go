package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"mailportal/internal/apperr"
	"mailportal/internal/db"
	"mailportal/internal/policy"
	"mailportal/internal/store"
	"mailportal/internal/validate"
	"mailportal/internal/workflow"
)

// handleUploadFile ingests one multipart upload into a campaign's ledger.
// Validation runs before any byte hits disk.
func (s *Server) handleUploadFile(c echo.Context) error {
	jobID := c.FormValue("jobId")
	fileType := c.FormValue("fileType")
	if jobID == "" {
		return jsonError(c, http.StatusBadRequest, "jobId is required")
	}
	job, err := s.loadAuthorizedJob(c, jobID)
	if err != nil {
		return s.mapError(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "file is required")
	}
	mimeType := fh.Header.Get("Content-Type")
	if err := validate.UploadFile(fh.Filename, mimeType); err != nil {
		return s.mapError(c, err)
	}
	if s.MaxUploadBytes > 0 && fh.Size > s.MaxUploadBytes {
		return jsonError(c, http.StatusBadRequest,
			fmt.Sprintf("file exceeds the %d byte limit", s.MaxUploadBytes))
	}

	src, err := fh.Open()
	if err != nil {
		return s.mapError(c, err)
	}
	defer src.Close()

	storedName := store.NewStoredName(fh.Filename)
	path, size, err := s.Store.Save(storedName, src)
	if err != nil {
		return s.mapError(c, err)
	}

	u := currentUser(c)
	f := &db.File{
		JobID:        job.ID,
		Filename:     storedName,
		OriginalName: fh.Filename,
		FileType:     fileType,
		FilePath:     path,
		FileSize:     size,
		MimeType:     mimeType,
		UploadedVia:  db.ViaWeb,
	}
	ctx := c.Request().Context()
	if err := s.DB.CreateFile(ctx, f); err != nil {
		if rerr := s.Store.Remove(path); rerr != nil {
			s.Logger.Warn("orphaned upload cleanup failed", "path", path, "err", rerr)
		}
		return s.mapError(c, err)
	}

	advanced, err := s.DB.AdvanceJobIfAssetsComplete(ctx, job.ID, workflow.AssetThreshold)
	if err != nil {
		s.Logger.Error("asset-complete check failed", "job", job.ID, "err", err)
	} else if advanced {
		job.Status = workflow.StatusAssetsUploaded
		s.Logger.Info("campaign assets complete", "job", job.ID)
	}

	s.Logger.Info("file uploaded", "job", job.ID, "file", f.ID, "type", f.FileType,
		"size", f.FileSize, "by", u.Email)
	s.notifyUpload(c, job, f, u)
	return c.JSON(http.StatusCreated, f)
}

// notifyUpload routes the upload to the matching notification, if any.
func (s *Server) notifyUpload(c echo.Context, job *db.Job, f *db.File, uploader *db.User) {
	switch {
	case f.FileType == "MAIL_LIST":
		s.Notify.MailListUploaded(job, f, uploader)
	case strings.HasPrefix(f.FileType, "PROOF"):
		clientEmail := ""
		if owner, found, err := s.DB.GetUserByID(c.Request().Context(), job.UserID); err == nil && found {
			clientEmail = owner.Email
		}
		s.Notify.ProofsUploaded(job, 1, uploader, clientEmail)
	}
}

// loadAuthorizedFile applies the 404-before-403 ordering to a ledger row.
func (s *Server) loadAuthorizedFile(c echo.Context, id string) (*db.File, error) {
	f, ownerID, found, err := s.DB.GetFile(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("file %s: %w", id, apperr.ErrNotFound)
	}
	u := currentUser(c)
	if err := policy.Authorize(u.ID, u.Role, ownerID); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Server) handleDownloadFile(c echo.Context) error {
	f, err := s.loadAuthorizedFile(c, c.Param("id"))
	if err != nil {
		return s.mapError(c, err)
	}
	src, err := s.Store.Open(f.FilePath)
	if err != nil {
		return s.mapError(c, err)
	}
	defer src.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, f.OriginalName))
	ct := f.MimeType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, ct, src)
}

func (s *Server) handleDeleteFile(c echo.Context) error {
	f, err := s.loadAuthorizedFile(c, c.Param("id"))
	if err != nil {
		return s.mapError(c, err)
	}
	// Bytes first, row second; bytes already gone is a warning, not a failure.
	if err := s.Store.Remove(f.FilePath); err != nil {
		if !errors.Is(err, store.ErrMissing) {
			return s.mapError(c, err)
		}
		s.Logger.Warn("stored bytes already missing", "file", f.ID, "path", f.FilePath)
	}
	if err := s.DB.DeleteFile(c.Request().Context(), f.ID); err != nil {
		return s.mapError(c, err)
	}
	s.Logger.Info("file deleted", "file", f.ID, "job", f.JobID)
	return c.JSON(http.StatusOK, echo.Map{"message": "file deleted"})
}

func (s *Server) handleListJobFiles(c echo.Context) error {
	job, err := s.loadAuthorizedJob(c, c.Param("jobId"))
	if err != nil {
		return s.mapError(c, err)
	}
	files, err := s.DB.ListFilesForJob(c.Request().Context(), job.ID)
	if err != nil {
		return s.mapError(c, err)
	}
	if files == nil {
		files = []db.File{}
	}
	return c.JSON(http.StatusOK, files)
}

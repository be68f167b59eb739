package httpapi

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"mailportal/internal/apperr"
	"mailportal/internal/db"
	"mailportal/internal/policy"
	"mailportal/internal/validate"
	"mailportal/internal/workflow"
)

// taxRate applied when campaign totals are recomputed.
const taxRate = 0.09

func (s *Server) handleListJobs(c echo.Context) error {
	u := currentUser(c)
	ownerFilter := ""
	if !policy.IsStaff(u.Role) {
		ownerFilter = u.ID
	}
	jobs, err := s.DB.ListJobs(c.Request().Context(), ownerFilter)
	if err != nil {
		return s.mapError(c, err)
	}
	if jobs == nil {
		jobs = []db.Job{}
	}
	return c.JSON(http.StatusOK, jobs)
}

func (s *Server) handleCreateJob(c echo.Context) error {
	var req struct {
		Month        string `json:"month"`
		Year         int    `json:"year"`
		CampaignName string `json:"campaignName"`
	}
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := validate.CampaignMonth(req.Month); err != nil {
		return s.mapError(c, err)
	}
	if err := validate.CampaignYear(req.Year); err != nil {
		return s.mapError(c, err)
	}
	if req.CampaignName == "" {
		return jsonError(c, http.StatusBadRequest, "campaign name is required")
	}

	u := currentUser(c)
	job, err := s.DB.CreateJob(c.Request().Context(), u.ID, req.Month, req.Year, req.CampaignName, workflow.StatusDraft)
	if err != nil {
		return s.mapError(c, err)
	}
	s.Logger.Info("campaign created", "job", job.ID, "name", job.CampaignName, "user", u.Email)
	s.Notify.CampaignCreated(job, u)
	return c.JSON(http.StatusCreated, job)
}

// loadAuthorizedJob fetches a job and enforces the 404-before-403 ordering.
func (s *Server) loadAuthorizedJob(c echo.Context, id string) (*db.Job, error) {
	job, found, err := s.DB.GetJob(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("job %s: %w", id, apperr.ErrNotFound)
	}
	u := currentUser(c)
	if err := policy.Authorize(u.ID, u.Role, job.UserID); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Server) handleGetJob(c echo.Context) error {
	job, err := s.loadAuthorizedJob(c, c.Param("id"))
	if err != nil {
		return s.mapError(c, err)
	}
	ctx := c.Request().Context()

	owner, found, err := s.DB.GetUserByID(ctx, job.UserID)
	if err != nil {
		return s.mapError(c, err)
	}
	if found {
		job.User = &db.UserSummary{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	}
	files, err := s.DB.ListFilesForJob(ctx, job.ID)
	if err != nil {
		return s.mapError(c, err)
	}
	events, err := s.DB.ListProofEventsForJob(ctx, job.ID)
	if err != nil {
		return s.mapError(c, err)
	}
	job.FileCount = len(files)
	if files == nil {
		files = []db.File{}
	}
	if events == nil {
		events = []db.ProofEvent{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"job":         job,
		"files":       files,
		"proofEvents": events,
	})
}

func (s *Server) handleUpdateJob(c echo.Context) error {
	job, err := s.loadAuthorizedJob(c, c.Param("id"))
	if err != nil {
		return s.mapError(c, err)
	}

	var req struct {
		Month        *string  `json:"month"`
		Year         *int     `json:"year"`
		CampaignName *string  `json:"campaignName"`
		Status       *string  `json:"status"`
		MailCount    *int64   `json:"mailCount"`
		RatePerPiece *float64 `json:"ratePerPiece"`
		InvoiceURL   *string  `json:"invoiceUrl"`
		MailedAt     *int64   `json:"mailedAt"`
	}
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid json")
	}

	u := currentUser(c)
	if req.Status != nil && *req.Status != job.Status {
		if !policy.IsStaff(u.Role) {
			return jsonError(c, http.StatusForbidden, "only staff can change campaign status")
		}
		if err := workflow.ValidateTransition(job.Status, *req.Status); err != nil {
			return s.mapError(c, err)
		}
		job.Status = *req.Status
	}
	if req.Month != nil {
		if err := validate.CampaignMonth(*req.Month); err != nil {
			return s.mapError(c, err)
		}
		job.Month = *req.Month
	}
	if req.Year != nil {
		if err := validate.CampaignYear(*req.Year); err != nil {
			return s.mapError(c, err)
		}
		job.Year = *req.Year
	}
	if req.CampaignName != nil {
		if *req.CampaignName == "" {
			return jsonError(c, http.StatusBadRequest, "campaign name cannot be empty")
		}
		job.CampaignName = *req.CampaignName
	}
	if req.MailCount != nil {
		job.MailCount = req.MailCount
	}
	if req.RatePerPiece != nil {
		job.RatePerPiece = req.RatePerPiece
	}
	if req.InvoiceURL != nil {
		job.InvoiceURL = req.InvoiceURL
	}
	if req.MailedAt != nil {
		job.MailedAt = req.MailedAt
	}

	if job.MailCount != nil && job.RatePerPiece != nil {
		total := round2(float64(*job.MailCount) * *job.RatePerPiece)
		tax := round2(total * taxRate)
		job.TotalCost = &total
		job.TaxAmount = &tax
	}

	if err := s.DB.UpdateJob(c.Request().Context(), job); err != nil {
		return s.mapError(c, err)
	}
	s.Logger.Info("campaign updated", "job", job.ID, "status", job.Status, "by", u.Email)
	return c.JSON(http.StatusOK, job)
}

func (s *Server) handleDeleteJob(c echo.Context) error {
	job, err := s.loadAuthorizedJob(c, c.Param("id"))
	if err != nil {
		return s.mapError(c, err)
	}
	ctx := c.Request().Context()

	// Ledger rows cascade with the job; stored bytes are removed best-effort.
	files, err := s.DB.ListFilesForJob(ctx, job.ID)
	if err != nil {
		return s.mapError(c, err)
	}
	if err := s.DB.DeleteJob(ctx, job.ID); err != nil {
		return s.mapError(c, err)
	}
	for _, f := range files {
		if err := s.Store.Remove(f.FilePath); err != nil {
			s.Logger.Warn("removing stored bytes failed", "job", job.ID, "file", f.ID, "err", err)
		}
	}
	s.Logger.Info("campaign deleted", "job", job.ID, "files", len(files))
	return c.JSON(http.StatusOK, echo.Map{"message": "campaign deleted"})
}

func (s *Server) handleAddProofEvent(c echo.Context) error {
	job, err := s.loadAuthorizedJob(c, c.Param("id"))
	if err != nil {
		return s.mapError(c, err)
	}

	var req struct {
		Action string `json:"action"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid json")
	}

	effect, err := workflow.EffectOfProofAction(job.Status, req.Action)
	if err != nil {
		return s.mapError(c, err)
	}
	ev, err := s.DB.RecordProofEvent(c.Request().Context(), job.ID, req.Action, req.Notes, effect.NewStatus, effect.StampApproved)
	if err != nil {
		return s.mapError(c, err)
	}

	u := currentUser(c)
	s.Logger.Info("proof event recorded", "job", job.ID, "action", ev.Action, "by", u.Email)
	if effect.StampApproved {
		s.Notify.ProofsApproved(job, u, time.Unix(ev.CreatedAt, 0))
	}
	return c.JSON(http.StatusCreated, ev)
}

func (s *Server) handleListProofEvents(c echo.Context) error {
	job, err := s.loadAuthorizedJob(c, c.Param("id"))
	if err != nil {
		return s.mapError(c, err)
	}
	events, err := s.DB.ListProofEventsForJob(c.Request().Context(), job.ID)
	if err != nil {
		return s.mapError(c, err)
	}
	if events == nil {
		events = []db.ProofEvent{}
	}
	return c.JSON(http.StatusOK, events)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

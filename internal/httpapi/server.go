// Package httpapi serves the portal's JSON REST API.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"mailportal/internal/db"
	"mailportal/internal/notify"
	"mailportal/internal/store"
)

// Server wires the API handlers to their dependencies.
type Server struct {
	DB             *db.DB
	Store          *store.Store
	Notify         *notify.Service
	Logger         *slog.Logger
	JWTSecret      []byte
	TokenTTL       time.Duration
	CORSOrigins    []string
	MaxUploadBytes int64
}

// Router builds the echo instance with all routes and middleware.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	e.Use(s.requestLog())

	e.GET("/health", s.handleHealth)

	// Brute-force guard on the password endpoint only.
	loginLimiter := newRateLimiter(1, 10, s.Logger)

	api := e.Group("/api")
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin, loginLimiter.Middleware())
	api.GET("/auth/me", s.handleMe, s.requireAuth)

	jobs := api.Group("/jobs", s.requireAuth)
	jobs.GET("", s.handleListJobs)
	jobs.POST("", s.handleCreateJob)
	jobs.GET("/:id", s.handleGetJob)
	jobs.PATCH("/:id", s.handleUpdateJob)
	jobs.DELETE("/:id", s.handleDeleteJob)
	jobs.POST("/:id/proof-events", s.handleAddProofEvent)
	jobs.GET("/:id/proof-events", s.handleListProofEvents)

	files := api.Group("/files", s.requireAuth)
	files.POST("/upload", s.handleUploadFile)
	files.GET("/job/:jobId", s.handleListJobFiles)
	files.GET("/:id", s.handleDownloadFile)
	files.DELETE("/:id", s.handleDeleteFile)

	sftp := api.Group("/sftp", s.requireAuth)
	sftp.GET("/credentials", s.handleListSftpCredentials)
	sftp.POST("/credentials", s.handleCreateSftpCredential)
	sftp.PATCH("/credentials/:id", s.handleUpdateSftpCredential)
	sftp.DELETE("/credentials/:id", s.handleDeleteSftpCredential)

	return e
}

// handleHealth reports process and database health.
func (s *Server) handleHealth(c echo.Context) error {
	status := "ok"
	dbStatus := "connected"
	if err := s.DB.Ping(c.Request().Context()); err != nil {
		status = "degraded"
		dbStatus = err.Error()
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Package http provides the API server: router assembly, middleware and the
// operational endpoints. Business handlers live next to their domains and
// are mounted here.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	filesHTTP "github.com/guardianlk/guardian/internal/files/http"
	"github.com/guardianlk/guardian/internal/metrics"
	personalHTTP "github.com/guardianlk/guardian/internal/personal/http"
)

// RouterConfig carries everything SetupRouter needs to assemble the API.
type RouterConfig struct {
	Logger                 *slog.Logger
	MeterProvider          metric.MeterProvider
	MetricsNamespace       string
	CORSEnabled            bool
	CORSAllowOrigins       string
	PersonalDetailsHandler *personalHTTP.PersonalDetailsHandler
	FileHandler            *filesHTTP.FileHandler
	DownloadRatePerSecond  float64
	DownloadRateBurst      int
}

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates the API server around an assembled router.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger, router *gin.Engine) *Server {
	s := &Server{db: db, logger: logger}

	if router != nil {
		router.GET("/health", s.healthHandler)
		router.GET("/ready", s.readinessHandler)
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// SetupRouter assembles the gin engine: request ids, recovery, request
// logging with redacted paths, CORS and metrics middleware, then the
// personal-details and file routes under /api/v1. The public download
// endpoint sits outside the authenticated group and is rate limited per IP.
func SetupRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(cfg.Logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, cfg.Logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if cfg.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MeterProvider, cfg.MetricsNamespace))
	}

	v1 := router.Group("/api/v1")

	if h := cfg.PersonalDetailsHandler; h != nil {
		v1.POST("/personal-details", h.CreateHandler)
		v1.POST("/reports/:reportId/witnesses", h.CreateReportWitnessHandler)
		v1.GET("/reports/:reportId/witnesses", h.ListReportWitnessesHandler)
		v1.DELETE("/reports/:reportId/witnesses/:witnessId", h.DeleteReportWitnessHandler)
		v1.POST("/lost-articles/:lostArticleId/personal-details", h.CreateLostArticleDetailsHandler)
		v1.GET("/lost-articles/:lostArticleId/personal-details", h.ListLostArticleDetailsHandler)
		v1.DELETE("/lost-articles/:lostArticleId/personal-details/:detailsId", h.DeleteLostArticleDetailsHandler)
	}

	if h := cfg.FileHandler; h != nil {
		v1.POST("/files/upload", h.UploadHandler)
		v1.POST("/files/:id/sign", h.SignHandler)

		public := v1.Group("/public")
		public.Use(RateLimitMiddleware(cfg.DownloadRatePerSecond, cfg.DownloadRateBurst))
		public.GET("/files/download", h.DownloadHandler)
	}

	return router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness including the database component.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

// Package server exposes the study service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/repaso/internal/config"
	"github.com/abhisek/repaso/internal/logger"
	"github.com/abhisek/repaso/internal/metrics"
	"github.com/abhisek/repaso/internal/study"
)

// Server is the HTTP API.
type Server struct {
	cfg     config.HTTPConfig
	svc     *study.Service
	metrics *metrics.Metrics
	log     *logger.Logger
	engine  *gin.Engine
}

// New builds the router. m may be nil.
func New(cfg config.HTTPConfig, svc *study.Service, m *metrics.Metrics, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{cfg: cfg, svc: svc, metrics: m, log: log.With("component", "http")}
	s.engine = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.requestLogger(), s.observe())
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/health", s.health)

	protected := api.Group("")
	protected.Use(s.authenticate())
	protected.POST("/materials/upload", s.uploadMaterial)
	protected.GET("/materials", s.listMaterials)
	protected.GET("/materials/:id", s.getMaterial)
	protected.DELETE("/materials/:id", s.deleteMaterial)
	protected.POST("/materials/:id/questions", s.generateQuestions)
	protected.GET("/questions", s.listQuestions)
	protected.POST("/validate-answer", s.validateAnswer)
	protected.POST("/reviews", s.recordReview)
	protected.GET("/reviews/due", s.dueReviews)
	protected.GET("/stats", s.stats)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not_found", errors.New("route not found"))
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

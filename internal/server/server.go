// Package server exposes the submission and status HTTP surface over gin.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribeq/internal/logger"
)

// Server is the API HTTP server.
type Server struct {
	cfg     Config
	engine  *gin.Engine
	http    *http.Server
	service JobService
	health  HealthChecker
	log     *logger.Logger
}

// New creates the server with routes and middleware installed.
func New(cfg Config, service JobService, health HealthChecker, log *logger.Logger) *Server {
	cfg.ApplyDefaults()
	gin.SetMode(cfg.Mode)

	engine := gin.New()
	engine.MaxMultipartMemory = 32 << 20
	engine.Use(RequestID(), RequestLogging(log), Recovery(log))

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		service: service,
		health:  health,
		log:     log.WithComponent("server"),
	}

	engine.POST("/transcribe", s.handleSubmit)
	engine.GET("/status/:job_id", s.handleStatus)
	engine.GET("/health", s.handleHealth)

	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the underlying handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving. It blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.log.Info("listening", logger.Fields("addr", s.cfg.Addr()))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Package server exposes the engine over HTTP: gin router, JSON
// envelopes, and the route set the study clients talk to.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sohta/kotoba/internal/engine"
	"github.com/sohta/kotoba/internal/logger"
)

// Server wraps the gin router and the listener lifecycle.
type Server struct {
	eng    *engine.Engine
	log    *logger.Logger
	router *gin.Engine
	http   *http.Server
}

// New builds the router. Mode "prod" or "production" selects gin release
// mode; anything else keeps the debug defaults.
func New(eng *engine.Engine, log *logger.Logger, mode string) *Server {
	if mode == "prod" || mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{eng: eng, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	r.GET("/healthz", s.healthz)

	v1 := r.Group("/v1")
	{
		v1.POST("/interactions", s.submitInteraction)
		v1.GET("/profiles/:userId", s.getProfile)

		v1.POST("/content/requests", s.requestContent)
		v1.GET("/contents/:id", s.getContent)

		v1.POST("/reviews", s.submitReview)
		v1.GET("/reviews/due", s.listDueReviews)

		v1.POST("/placements", s.startPlacement)
		v1.GET("/placements/:id/next", s.placementNextProbe)
		v1.POST("/placements/:id/answers", s.submitPlacementAnswer)
	}

	s.router = r
	return s
}

// Router returns the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("http server listening", "addr", addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// requestLogger logs one line per request; server errors log at error
// level, client errors at warn.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

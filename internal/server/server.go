package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmribera/textaudit/internal/model"
)

// Server wraps the HTTP API around an analyzer.
type Server struct {
	engine *gin.Engine
	port   int
}

// New builds the router with the full middleware chain and API routes.
func New(analyzer DocumentAnalyzer, cfg model.ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(RequestID())
	router.Use(Recovery())
	router.Use(RequestLogger())
	router.Use(CORS())

	handler := NewHandler(analyzer, cfg.MaxUploadBytes)

	router.GET("/health", handler.Health)

	api := router.Group("/api/v1")
	{
		api.POST("/validate", handler.Validate)
	}

	return &Server{engine: router, port: cfg.Port}
}

// Engine exposes the router, used by tests.
func (s *Server) Engine() http.Handler {
	return s.engine
}

// Run starts the server and blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.engine,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute, // analysis of large ranges is slow
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", s.port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("start server: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server exited gracefully")
	return nil
}

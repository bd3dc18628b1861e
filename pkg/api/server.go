// Package api chim REST API
//
// @title           chim REST API
// @version         1.0.0
// @description     Converts chunked binary containers to XML and back, and archives them.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ssargent/chim/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires every route of s into a chi router
func NewRouter(s *Server) http.Handler {
	metrics := s.metrics

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		// Health check
		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Stateless container operations
		r.Post("/convert", metrics.InstrumentHandler("POST", "/api/v1/convert", s.handleConvert))
		r.Post("/inspect", metrics.InstrumentHandler("POST", "/api/v1/inspect", s.handleInspect))

		// Document archive
		r.Post("/documents", metrics.InstrumentHandler("POST", "/api/v1/documents", s.handleCreateDocument))
		r.Get("/documents", metrics.InstrumentHandler("GET", "/api/v1/documents", s.handleListDocuments))
		r.Get("/documents/{id}", metrics.InstrumentHandler("GET", "/api/v1/documents/{id}", s.handleGetDocument))
		r.Get("/documents/{id}/metadata", metrics.InstrumentHandler("GET", "/api/v1/documents/{id}/metadata", s.handleGetDocumentMetadata))
		r.Delete("/documents/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/documents/{id}", s.handleDeleteDocument))
	})

	return r
}

// StartServer serves the API until ctx is cancelled, then shuts down gracefully
func StartServer(ctx context.Context, archive IArchive, config ServerConfig, logger *log.Logger) error {
	if logger == nil {
		logger = logging.Discard()
	}

	metrics := NewMetrics()
	server := NewServer(archive, config, metrics, logger)
	server.refreshDocumentCount()

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Bind, strconv.Itoa(config.Port)),
		Handler:           NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting chim REST API server", "addr", httpServer.Addr)
		logger.Info("metrics available", "url", "http://"+httpServer.Addr+"/metrics")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

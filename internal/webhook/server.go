package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mattjoyce/portcullis/internal/event"
	"github.com/mattjoyce/portcullis/internal/githubapp"
	"github.com/mattjoyce/portcullis/internal/pipeline"
	"github.com/mattjoyce/portcullis/internal/signature"
)

// GitHub delivery headers.
const (
	headerSignature256 = "X-Hub-Signature-256"
	headerSignature    = "X-Hub-Signature"
	headerEvent        = "X-GitHub-Event"
	headerDelivery     = "X-GitHub-Delivery"
)

// Server represents the webhook HTTP server.
type Server struct {
	config    Config
	processor EventProcessor
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new webhook server instance.
func New(config Config, processor EventProcessor, logger *slog.Logger) *Server {
	if config.MaxBodySize == 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	return &Server{
		config:    config,
		processor: processor,
		logger:    logger,
	}
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen, "path", s.config.Path)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Post(s.config.Path, s.handleEvent)

	return r
}

// loggingMiddleware logs HTTP requests (excludes payload bodies).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleEvent handles an incoming webhook POST.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Read the literal body bytes; the signature is computed over exactly
	// these, so nothing downstream may re-encode them.
	limitedReader := io.LimitReader(r.Body, s.config.MaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	sig := r.Header.Get(headerSignature256)
	if sig == "" {
		sig = r.Header.Get(headerSignature)
	}

	deliveryID := r.Header.Get(headerDelivery)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	err = s.processor.Process(ctx, pipeline.Request{
		Body:       body,
		EventType:  r.Header.Get(headerEvent),
		Signature:  sig,
		DeliveryID: deliveryID,
	})
	if err != nil {
		s.respondPipelineError(w, deliveryID, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// respondPipelineError maps the pipeline error taxonomy onto HTTP statuses.
// Messages stay generic: no digests, no secrets, no remote error bodies.
func (s *Server) respondPipelineError(w http.ResponseWriter, deliveryID string, err error) {
	var herr *event.HandlerError

	switch {
	case errors.Is(err, signature.ErrVerificationFailed):
		s.respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, event.ErrMalformedPayload):
		s.respondError(w, http.StatusBadRequest, "bad request")
	case errors.Is(err, githubapp.ErrAuthentication), errors.Is(err, githubapp.ErrTransient):
		s.logger.Error("token exchange failed", "delivery_id", deliveryID, "error", err)
		s.respondError(w, http.StatusBadGateway, "upstream authentication failed")
	case errors.As(err, &herr):
		s.logger.Error("event handler failed", "delivery_id", deliveryID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "handler failed")
	default:
		s.logger.Error("pipeline failed", "delivery_id", deliveryID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ppiankov/factlock/internal/logx"
	"github.com/ppiankov/factlock/internal/model"
	"github.com/ppiankov/factlock/internal/payload"
	"github.com/ppiankov/factlock/internal/pipeline"
)

const (
	httpServerReadHeaderTimeout = 5 * time.Second

	// maxRequestBytes bounds one verification request body
	maxRequestBytes = 1 << 20
)

// Server exposes the fact lock over HTTP
type Server struct {
	listenAddress string
	pipeline      *pipeline.Pipeline
	metrics       *Metrics // nil disables /metrics
	logger        *slog.Logger
	version       string
}

// NewServer creates a verification server.
// The pipeline should report to metrics through pipeline.WithObserver.
func NewServer(listenAddress string, p *pipeline.Pipeline, metrics *Metrics, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Server{
		listenAddress: listenAddress,
		pipeline:      p,
		metrics:       metrics,
		logger:        logger,
		version:       version,
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/verify", s.handleVerify)
	})

	return r
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.listenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: httpServerReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		if err := httpServer.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("httpServer.Shutdown", logx.Error(err))
		}
	}()

	s.logger.Info("verification server started", slog.String("address", s.listenAddress))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer.ListenAndServe: %w", err)
	}

	s.logger.Info("verification server stopped")

	return nil
}

// verifyResponse is the outcome plus the identity of the report it came from
type verifyResponse struct {
	model.Outcome
	ID     string `json:"id,omitempty"`
	Cached bool   `json:"cached,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		s.reject(r.Context(), w, http.StatusRequestEntityTooLarge, err)
		return
	}

	c, err := payload.ParseCase(body)
	if err != nil {
		s.reject(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	report, err := s.pipeline.Check(r.Context(), c)
	if err != nil {
		s.reject(r.Context(), w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(r.Context(), s.logger, w, http.StatusOK, verifyResponse{
		Outcome: model.OutcomeFromVerdict(report.Verdict),
		ID:      report.ID,
		Cached:  report.Cached,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), s.logger, w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// reject reports an ERROR outcome; it is never conflated with HALT
func (s *Server) reject(ctx context.Context, w http.ResponseWriter, status int, err error) {
	if s.metrics != nil {
		s.metrics.ObserveError()
	}
	s.logger.Warn("verify request rejected",
		slog.Int("status", status),
		slog.String("request_id", middleware.GetReqID(ctx)),
		logx.Error(err))

	writeJSON(ctx, s.logger, w, status, model.OutcomeFromError(err))
}

func writeJSON(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.ErrorContext(ctx, "json.Encode", logx.Error(err))
	}
}

// Package server exposes inspections over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webInspector/internal/geo"
	"webInspector/internal/output"
	"webInspector/internal/ratelimit"
)

// maxRequestBody bounds POST bodies; they only carry a URL
const maxRequestBody = 8 * 1024

// Inspector runs one inspection
type Inspector interface {
	Inspect(ctx context.Context, rawURL string) output.Report
}

// SelfLocator reports where the inspector itself runs
type SelfLocator interface {
	Self(ctx context.Context) (*geo.ProbeLocation, error)
}

// Config wires the server's collaborators
type Config struct {
	Inspector Inspector
	Gate      *ratelimit.Gate // nil disables rate limiting
	Self      SelfLocator     // nil disables /api/v1/probe-info
	Logger    *zap.Logger
}

// Server is the HTTP API
type Server struct {
	cfg    Config
	mux    *http.ServeMux
	logger *zap.Logger
	now    func() time.Time
}

// NewServer creates the API handler
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		logger: logger,
		now:    time.Now,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// RequestID -> Logging -> Handler
	handler := RequestID(s.withLogging(s.mux))
	handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/inspect", s.handleInspect)
	s.mux.HandleFunc("/api/v1/probe-info", s.handleProbeInfo)
	s.mux.HandleFunc("/healthz", s.handleHealth)
}

type inspectRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	var rawURL string
	switch r.Method {
	case http.MethodGet:
		rawURL = r.URL.Query().Get("url")
	case http.MethodPost:
		var req inspectRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
		if err := dec.Decode(&req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		rawURL = req.URL
	default:
		s.methodNotAllowed(w, r)
		return
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("url is required"))
		return
	}

	if s.cfg.Gate != nil {
		key := ratelimit.ClientKey(r)
		if ok, retryAfter := s.cfg.Gate.Admit(key); !ok {
			s.requestLogger(r).Warn("rate_limit_exceeded",
				zap.String("client_ip", key),
				zap.Duration("retry_after", retryAfter),
			)
			report := output.ErrorReport(uuid.NewString(), rawURL, s.now().UTC().Format(time.RFC3339),
				ratelimit.RejectionMessage(retryAfter))
			w.Header().Set("Retry-After", strconv.Itoa(ratelimit.WaitSeconds(retryAfter)))
			writeJSON(w, http.StatusTooManyRequests, report)
			return
		}
	}

	report := s.cfg.Inspector.Inspect(r.Context(), rawURL)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleProbeInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Self == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("probe info not available"))
		return
	}

	loc, err := s.cfg.Self.Self(r.Context())
	if err != nil {
		s.requestLogger(r).Error("probe_info_failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to fetch probe info",
			"details": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		s.requestLogger(r).Error("internal_server_error", zap.Error(err), zap.Int("status", status))
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// an inspection takes up to the TLS and HTTP deadlines plus lookups
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", zap.String("addr", addr))
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down API server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			if closeErr := httpServer.Close(); closeErr != nil {
				return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
			}
			return fmt.Errorf("failed to gracefully shutdown server: %w", err)
		}
		return nil
	}
}

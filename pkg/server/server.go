package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/usecase/interview"
	"github.com/voxmock/voxmock/pkg/utils/logging"
)

// Server is the HTTP front of the interview pipeline
type Server struct {
	uc     *interview.UseCase
	server *http.Server
}

// New creates a Server listening on addr
func New(addr string, uc *interview.UseCase) *Server {
	s := &Server{uc: uc}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/interviews", s.handleCreateInterview)
	mux.HandleFunc("GET /api/interviews/{id}", s.handleGetInterview)
	mux.HandleFunc("POST /api/interviews/{id}/answers", s.handleSubmitAnswer)
	mux.HandleFunc("GET /api/interviews/{id}/report", s.handleGetReport)
	mux.HandleFunc("GET /api/transcripts/{id}/evaluation", s.handleGetEvaluation)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Run serves until the listener fails or Stop is called
func (s *Server) Run(ctx context.Context) error {
	logging.From(ctx).Info("http server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Handler exposes the routing table for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.From(ctx).Error("failed to encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrReportNotReady):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateAnswer):
		status = http.StatusConflict
	case errors.Is(err, model.ErrInvalidStatus):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logging.From(ctx).Error("request failed", "error", err)
	}
	writeJSON(ctx, w, status, map[string]string{"error": err.Error()})
}

// Package api declares HTTP contracts and route registration helpers for the
// read-only standings API.
package api

import (
	"context"
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/draftboard/internal/app"
	"github.com/okian/draftboard/internal/domain/types"
	"github.com/okian/draftboard/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StandingsDependencies
	EntryDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by standings queries.
type Entry = types.Entry

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	standingsHandler *StandingsHandler
	entryHandler     *EntryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		standingsHandler: NewStandingsHandler(deps),
		entryHandler:     NewEntryHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleLatest, "standings"))
	mux.HandleFunc("/standings/history", MetricsMiddleware(s.standingsHandler.HandleHistory, "history"))
	mux.HandleFunc("/entries/", MetricsMiddleware(s.entryHandler.HandleGetEntry, "entry"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service errors to HTTP statuses. Internal failures
// are logged and answered without the underlying message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidLimit), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

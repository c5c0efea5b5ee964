package api

import (
	"context"
	"net/http"
)

// StandingsDependencies defines the interface for standings reads.
type StandingsDependencies interface {
	Standings(ctx context.Context, n int) ([]Entry, error)
	History(ctx context.Context, n int) ([]Entry, error)
}

// StandingsHandler handles standings requests.
type StandingsHandler struct {
	deps StandingsDependencies
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

// HandleLatest handles GET /standings?limit=N: the most recent gameweek,
// best ranked first.
func (h *StandingsHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.deps.Standings)
}

// HandleHistory handles GET /standings/history?limit=N: rows across
// gameweeks, newest first.
func (h *StandingsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.deps.History)
}

func (h *StandingsHandler) serve(w http.ResponseWriter, r *http.Request, read func(context.Context, int) ([]Entry, error)) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	entries, err := read(r.Context(), n)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

package api

import (
	"context"
	"net/http"
)

// EntryDependencies defines the interface for single-entry reads.
type EntryDependencies interface {
	Entry(ctx context.Context, entryID int64) ([]Entry, error)
}

// EntryHandler handles per-entry requests.
type EntryHandler struct {
	deps EntryDependencies
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(deps EntryDependencies) *EntryHandler {
	return &EntryHandler{deps: deps}
}

// HandleGetEntry handles GET /entries/{id} requests.
func (h *EntryHandler) HandleGetEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := parseEntryID(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rows, err := h.deps.Entry(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

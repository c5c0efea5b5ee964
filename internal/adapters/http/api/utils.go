package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// defaultLimit applies when a request carries no limit parameter.
const defaultLimit = 20

// parseLimit reads ?limit=N. Range checks against the configured maximum are
// left to the service so the API and CLI share them.
func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit %q is not a number", ErrBadRequest, raw)
	}
	return n, nil
}

// parseEntryID extracts the trailing id of /entries/{id}.
func parseEntryID(path string) (int64, error) {
	raw := strings.TrimPrefix(path, "/entries/")
	if raw == "" || strings.Contains(raw, "/") {
		return 0, ErrBadEntryID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadEntryID
	}
	return id, nil
}

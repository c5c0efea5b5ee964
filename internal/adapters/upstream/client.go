// Package upstream is a client for the public draft league API. It yields raw
// standings snapshots with roster metadata and the gameweek deadline
// boundaries used to build the window catalog.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/draftboard/internal/domain/model"
	"github.com/okian/draftboard/pkg/logger"
	"github.com/okian/draftboard/pkg/metrics"
)

const (
	defaultBaseURL  = "https://draft.premierleague.com/api"
	defaultTimeout  = 30 * time.Second
	defaultBackoff  = time.Second
	maxResponseSize = 8 << 20

	endpointDetails   = "details"
	endpointBootstrap = "bootstrap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClientConfig configures a Client.
type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	LeagueID   int
	Timeout    time.Duration
	MaxRetries int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
	// Now stamps observations; defaults to time.Now.
	Now func() time.Time
}

// Client fetches league data over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	leagueID   int
	maxRetries int
	backoff    time.Duration
	now        func() time.Time
}

// Details is one capture of the league: roster metadata plus a snapshot per
// entry, all stamped with the same observation time.
type Details struct {
	ObservedAt time.Time
	Entries    []model.Entry
	Snapshots  []model.Snapshot
}

// NewClient builds a Client, filling unset fields with defaults.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.LeagueID <= 0 {
		return nil, ErrNoLeague
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		leagueID:   cfg.LeagueID,
		maxRetries: max(cfg.MaxRetries, 0),
		backoff:    backoff,
		now:        now,
	}, nil
}

// LeagueDetails fetches the current standings. Every row is stamped with the
// capture time in UTC truncated to the second.
func (c *Client) LeagueDetails(ctx context.Context) (Details, error) {
	var env detailsEnvelope
	if err := c.getJSON(ctx, endpointDetails, fmt.Sprintf("/league/%d/details", c.leagueID), &env); err != nil {
		return Details{}, err
	}

	observed := c.now().UTC().Truncate(time.Second)
	out := Details{
		ObservedAt: observed,
		Entries:    make([]model.Entry, 0, len(env.LeagueEntries)),
		Snapshots:  make([]model.Snapshot, 0, len(env.Standings)),
	}
	for _, e := range env.LeagueEntries {
		if e.ID <= 0 {
			continue
		}
		out.Entries = append(out.Entries, model.Entry{
			ID:          e.ID,
			EntryName:   strings.TrimSpace(e.EntryName),
			PlayerName:  strings.TrimSpace(e.PlayerFirstName + " " + e.PlayerLastName),
			ShortName:   strings.TrimSpace(e.ShortName),
			WaiverOrder: e.WaiverPick,
		})
	}
	for _, s := range env.Standings {
		if s.LeagueEntry <= 0 {
			return Details{}, fmt.Errorf("%w: standings row without league_entry", ErrDecode)
		}
		out.Snapshots = append(out.Snapshots, model.Snapshot{
			EntryID:      s.LeagueEntry,
			ObservedAt:   observed,
			Rank:         s.Rank,
			RankSort:     s.RankSort,
			Total:        s.Total,
			PeriodTotal:  s.EventTotal,
			PreviousRank: s.LastRank,
		})
	}
	return out, nil
}

// Boundaries returns one boundary per gameweek, opening at its deadline,
// ordered by gameweek number.
func (c *Client) Boundaries(ctx context.Context) ([]model.Boundary, error) {
	var env bootstrapEnvelope
	if err := c.getJSON(ctx, endpointBootstrap, "/bootstrap-static", &env); err != nil {
		return nil, err
	}

	out := make([]model.Boundary, 0, len(env.Events.Data))
	for _, ev := range env.Events.Data {
		start, err := time.Parse(time.RFC3339, ev.DeadlineTime)
		if err != nil {
			return nil, fmt.Errorf("%w: gameweek %d deadline %q: %w", ErrDecode, ev.ID, ev.DeadlineTime, err)
		}
		out = append(out, model.Boundary{Seq: ev.ID, Label: model.GameweekLabel(ev.ID), Start: start.UTC()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, target any) error {
	start := time.Now()
	raw, err := c.execute(ctx, c.baseURL+path)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", time.Since(start))
		return fmt.Errorf("%w: GET %s: %w", ErrUpstream, path, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		metrics.RecordUpstreamRequest(endpoint, "decode_error", time.Since(start))
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	metrics.RecordUpstreamRequest(endpoint, "ok", time.Since(start))
	return nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.once(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !isTransient(err) || attempt == c.maxRetries {
			break
		}

		logger.Get().Warn(ctx, "upstream request failed, retrying",
			logger.String("url", fullURL),
			logger.Int("attempt", attempt+1),
			logger.Error(err))

		timer := time.NewTimer(time.Duration(attempt+1) * c.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: send request: %w", errTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %w", errTransient, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	if isRetryableStatus(resp.StatusCode) {
		return nil, fmt.Errorf("%w: status=%d body=%s", errTransient, resp.StatusCode, abbreviate(raw))
	}
	return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, abbreviate(raw))
}

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviate(raw []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

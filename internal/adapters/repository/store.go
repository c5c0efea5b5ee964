// Package repository persists raw standings snapshots, league entries and
// enriched rows in an embedded SQL database (DuckDB or SQLite).
package repository

import (
	"time"

	"github.com/okian/draftboard/internal/domain/model"
)

// Table and view names.
const (
	TableRawStandings      = "draft_standings"
	TableEntries           = "league_entries"
	TableEnrichedStandings = "enriched_standings"
	TableMergeRuns         = "merge_runs"
	TableSchemaMeta        = "schema_meta"
	ViewLatestStandings    = "enriched_standings_latest"
)

// Standing is an enriched row joined with the entry's roster metadata.
type Standing struct {
	Row   model.EnrichedRow
	Entry model.Entry
}

// MergeRun is the audit record written together with an enriched append.
type MergeRun struct {
	ID              string
	StartedAt       time.Time
	WatermarkBefore time.Time // zero when the enriched table was empty
	WatermarkAfter  time.Time
	Read            int
	Appended        int
	Unresolved      int
	Superseded      int
}

// Stats summarizes store contents for the read API. EnrichedRows counts
// every row physically appended to enriched_standings across all runs, so an
// (entry, window) pair refreshed by a later run is counted once per run.
// LatestRows counts the deduplicated view, one row per (entry, window).
type Stats struct {
	RawSnapshots   int
	EnrichedRows   int // physical appends
	LatestRows     int // rows in enriched_standings_latest
	Entries        int
	Watermark      time.Time // zero when nothing has been merged
	LatestWindow   string
	LatestSequence int
	LastRun        *MergeRun
}

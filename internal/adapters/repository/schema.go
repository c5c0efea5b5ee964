package repository

// schemaVersion is bumped whenever a table shape below changes.
const schemaVersion = 1

// Timestamps are stored as INTEGER unix seconds (UTC) in every dialect.
var baseSchema = []string{
	`CREATE TABLE IF NOT EXISTS draft_standings (
	entry_id BIGINT NOT NULL,
	observed_at BIGINT NOT NULL,
	rank INTEGER NOT NULL,
	rank_sort INTEGER NOT NULL,
	total INTEGER NOT NULL,
	event_total INTEGER NOT NULL,
	last_rank INTEGER,
	PRIMARY KEY (entry_id, observed_at)
)`,
	`CREATE TABLE IF NOT EXISTS league_entries (
	entry_id BIGINT PRIMARY KEY,
	entry_name TEXT NOT NULL,
	player_name TEXT NOT NULL,
	short_name TEXT NOT NULL,
	waiver_order INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS enriched_standings (
	entry_id BIGINT NOT NULL,
	observed_at BIGINT NOT NULL,
	rank INTEGER NOT NULL,
	rank_sort INTEGER NOT NULL,
	total INTEGER NOT NULL,
	event_total INTEGER NOT NULL,
	last_rank INTEGER,
	rank_change TEXT NOT NULL,
	best_gw BOOLEAN NOT NULL,
	window_seq INTEGER NOT NULL,
	window_label TEXT NOT NULL,
	run_id TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS merge_runs (
	run_id TEXT PRIMARY KEY,
	started_at BIGINT NOT NULL,
	watermark_before BIGINT,
	watermark_after BIGINT NOT NULL,
	rows_read INTEGER NOT NULL,
	rows_appended INTEGER NOT NULL,
	rows_unresolved INTEGER NOT NULL,
	rows_superseded INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_draft_standings_observed ON draft_standings(observed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_enriched_standings_entry_window ON enriched_standings(entry_id, window_seq)`,
	// One row per (entry, window) across merge runs: later runs only ever
	// append strictly newer observations, so the newest one wins.
	`CREATE VIEW IF NOT EXISTS enriched_standings_latest AS
SELECT entry_id, observed_at, rank, rank_sort, total, event_total, last_rank,
	rank_change, best_gw, window_seq, window_label, run_id
FROM (
	SELECT e.*, ROW_NUMBER() OVER (
		PARTITION BY e.entry_id, e.window_seq
		ORDER BY e.observed_at DESC
	) AS rn
	FROM enriched_standings e
) ranked
WHERE rn = 1`,
}

// expectedColumns is the column list every table must have, in order.
var expectedColumns = map[string][]string{
	TableRawStandings: {"entry_id", "observed_at", "rank", "rank_sort", "total", "event_total", "last_rank"},
	TableEntries:      {"entry_id", "entry_name", "player_name", "short_name", "waiver_order"},
	TableEnrichedStandings: {
		"entry_id", "observed_at", "rank", "rank_sort", "total", "event_total", "last_rank",
		"rank_change", "best_gw", "window_seq", "window_label", "run_id",
	},
	TableMergeRuns: {
		"run_id", "started_at", "watermark_before", "watermark_after",
		"rows_read", "rows_appended", "rows_unresolved", "rows_superseded",
	},
	TableSchemaMeta: {"version"},
}

// standingColumns is the select list shared by the read queries.
const standingColumns = `s.entry_id, s.observed_at, s.rank, s.rank_sort, s.total, s.event_total, s.last_rank,
	s.rank_change, s.best_gw, s.window_seq, s.window_label,
	COALESCE(e.entry_name, ''), COALESCE(e.player_name, ''), COALESCE(e.short_name, ''), COALESCE(e.waiver_order, 0)`

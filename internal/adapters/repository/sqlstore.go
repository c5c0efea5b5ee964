package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/okian/draftboard/internal/domain/model"
	"github.com/okian/draftboard/pkg/metrics"
)

// SQLStore is an explicit session over one database. Open it per command
// and Close it on every exit path.
type SQLStore struct {
	driver   string
	path     string
	readOnly bool
	dialect  dialect

	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// Open connects to the database, applies the schema and rejects stores whose
// tables or recorded schema version differ from what this build expects.
// A store opened WithReadOnly skips the schema step and must already exist.
func Open(ctx context.Context, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{driver: DriverDuckDB}
	for _, opt := range opts {
		opt(s)
	}

	d, err := dialectFor(s.driver)
	if err != nil {
		return nil, err
	}
	s.dialect = d

	dsn := d.dsn(s.path)
	if s.readOnly {
		if s.path == "" || s.path == ":memory:" {
			return nil, fmt.Errorf("%w: in-memory database cannot be opened read-only", ErrReadOnly)
		}
		dsn = d.readOnlyDSN(s.path)
	}
	db, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	// Single writer. In-memory databases also live and die with their only connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	s.db = db

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.checkSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Driver returns the dialect name in use.
func (s *SQLStore) Driver() string { return s.driver }

// Close releases the database. It is safe to call more than once.
func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLStore) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.db, nil
}

func (s *SQLStore) writeConn() (*sql.DB, error) {
	if s.readOnly {
		return nil, ErrReadOnly
	}
	return s.conn()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	stmts := make([]string, 0, len(s.dialect.setup)+len(baseSchema)+len(s.dialect.schema))
	stmts = append(stmts, s.dialect.setup...)
	if !s.readOnly {
		stmts = append(stmts, baseSchema...)
		stmts = append(stmts, s.dialect.schema...)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// checkSchema records the schema version on a fresh store and otherwise
// verifies both the version and the column layout of every table.
func (s *SQLStore) checkSchema(ctx context.Context) error {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_meta LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows) && s.readOnly:
		return fmt.Errorf("%w: schema version not recorded", ErrSchemaDrift)
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_meta (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("%w: read schema version: %w", ErrSchemaDrift, err)
	case version != schemaVersion:
		return fmt.Errorf("%w: store has version %d, expected %d", ErrSchemaDrift, version, schemaVersion)
	}

	for table, want := range expectedColumns {
		got, err := s.columns(ctx, table)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSchemaDrift, table, err)
		}
		if !slices.Equal(got, want) {
			return fmt.Errorf("%w: %s has columns [%s], expected [%s]",
				ErrSchemaDrift, table, strings.Join(got, ", "), strings.Join(want, ", "))
		}
	}
	return nil
}

func (s *SQLStore) columns(ctx context.Context, table string) ([]string, error) {
	// table comes from expectedColumns, never from input.
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+table+" LIMIT 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for i := range cols {
		cols[i] = strings.ToLower(cols[i])
	}
	return cols, rows.Err()
}

// TableExists reports whether a table with the given name exists.
func (s *SQLStore) TableExists(ctx context.Context, name string) (bool, error) {
	db, err := s.conn()
	if err != nil {
		return false, err
	}
	var n int
	if err := db.QueryRowContext(ctx, s.dialect.tableExists, name).Scan(&n); err != nil {
		return false, fmt.Errorf("table exists %s: %w", name, err)
	}
	return n > 0, nil
}

// Watermark returns the newest observation time among all rows physically
// appended to the enriched table, including rows the latest view hides.
// ok is false when the table is empty.
func (s *SQLStore) Watermark(ctx context.Context) (ts time.Time, ok bool, err error) {
	defer observe("watermark", time.Now())
	db, err := s.conn()
	if err != nil {
		return time.Time{}, false, err
	}
	var latest sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(observed_at) FROM enriched_standings`).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("read watermark: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return fromUnix(latest.Int64), true, nil
}

// AppendSnapshots stores raw snapshots. A snapshot whose (entry, timestamp)
// already exists is ignored. It returns the number of rows inserted.
func (s *SQLStore) AppendSnapshots(ctx context.Context, snaps []model.Snapshot) (int, error) {
	defer observe("append_snapshots", time.Now())
	db, err := s.writeConn()
	if err != nil {
		return 0, err
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO draft_standings
	(entry_id, observed_at, rank, rank_sort, total, event_total, last_rank)
	VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, sn := range snaps {
		res, err := stmt.ExecContext(ctx, sn.EntryID, toUnix(sn.ObservedAt), sn.Rank, sn.RankSort,
			sn.Total, sn.PeriodTotal, nullableInt(sn.PreviousRank))
		if err != nil {
			return 0, fmt.Errorf("insert snapshot entry=%d: %w", sn.EntryID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshots: %w", err)
	}
	return inserted, nil
}

// UpsertEntries stores roster metadata, replacing earlier names.
func (s *SQLStore) UpsertEntries(ctx context.Context, entries []model.Entry) error {
	defer observe("upsert_entries", time.Now())
	db, err := s.writeConn()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO league_entries
	(entry_id, entry_name, player_name, short_name, waiver_order)
	VALUES (?, ?, ?, ?, ?)`, e.ID, e.EntryName, e.PlayerName, e.ShortName, e.WaiverOrder)
		if err != nil {
			return fmt.Errorf("upsert entry=%d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// SnapshotsAfter returns raw snapshots strictly newer than watermark, oldest
// first. When ok is false every snapshot is returned.
func (s *SQLStore) SnapshotsAfter(ctx context.Context, watermark time.Time, ok bool) ([]model.Snapshot, error) {
	defer observe("snapshots_after", time.Now())
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	after := int64(math.MinInt64)
	if ok {
		after = toUnix(watermark)
	}

	rows, err := db.QueryContext(ctx, `SELECT entry_id, observed_at, rank, rank_sort, total, event_total, last_rank
FROM draft_standings
WHERE observed_at > ?
ORDER BY observed_at, entry_id`, after)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var (
			sn       model.Snapshot
			observed int64
			last     sql.NullInt64
		)
		if err := rows.Scan(&sn.EntryID, &observed, &sn.Rank, &sn.RankSort, &sn.Total, &sn.PeriodTotal, &last); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		sn.ObservedAt = fromUnix(observed)
		sn.PreviousRank = intPtr(last)
		out = append(out, sn)
	}
	return out, rows.Err()
}

// AppendEnriched writes rows and the run's audit record in one transaction.
// Either everything is stored or nothing is.
func (s *SQLStore) AppendEnriched(ctx context.Context, run MergeRun, rows []model.EnrichedRow) error {
	defer observe("append_enriched", time.Now())
	db, err := s.writeConn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO enriched_standings
	(entry_id, observed_at, rank, rank_sort, total, event_total, last_rank,
	 rank_change, best_gw, window_seq, window_label, run_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare enriched insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if !r.Resolved() {
			return fmt.Errorf("append enriched entry=%d at %s: row has no window", r.EntryID, r.ObservedAt.Format(time.RFC3339))
		}
		_, err := stmt.ExecContext(ctx, r.EntryID, toUnix(r.ObservedAt), r.Rank, r.RankSort, r.Total, r.PeriodTotal,
			nullableInt(r.PreviousRank), string(r.RankChange), r.BestPeriod, r.WindowSeq, r.WindowLabel, run.ID)
		if err != nil {
			return fmt.Errorf("insert enriched entry=%d: %w", r.EntryID, err)
		}
	}

	var before any
	if !run.WatermarkBefore.IsZero() {
		before = toUnix(run.WatermarkBefore)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO merge_runs
	(run_id, started_at, watermark_before, watermark_after, rows_read, rows_appended, rows_unresolved, rows_superseded)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, toUnix(run.StartedAt), before, toUnix(run.WatermarkAfter),
		run.Read, run.Appended, run.Unresolved, run.Superseded)
	if err != nil {
		return fmt.Errorf("insert merge run %s: %w", run.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enriched batch: %w", err)
	}
	return nil
}

// LatestWindow returns the standings of the most recent window, best first.
func (s *SQLStore) LatestWindow(ctx context.Context, limit int) ([]Standing, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	defer observe("latest_window", time.Now())
	return s.queryStandings(ctx, `SELECT `+standingColumns+`
FROM enriched_standings_latest s
LEFT JOIN league_entries e ON e.entry_id = s.entry_id
WHERE s.window_seq = (SELECT MAX(window_seq) FROM enriched_standings_latest)
ORDER BY s.rank_sort, s.entry_id
LIMIT ?`, limit)
}

// History returns the newest rows across all windows, newest first and best
// ranked first within one observation.
func (s *SQLStore) History(ctx context.Context, limit int) ([]Standing, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	defer observe("history", time.Now())
	return s.queryStandings(ctx, `SELECT `+standingColumns+`
FROM enriched_standings_latest s
LEFT JOIN league_entries e ON e.entry_id = s.entry_id
ORDER BY s.observed_at DESC, s.rank, s.entry_id
LIMIT ?`, limit)
}

// EntryHistory returns one row per window for a single entry, oldest window
// first. Returns ErrNotFound when the entry has no enriched rows.
func (s *SQLStore) EntryHistory(ctx context.Context, entryID int64) ([]Standing, error) {
	defer observe("entry_history", time.Now())
	out, err := s.queryStandings(ctx, `SELECT `+standingColumns+`
FROM enriched_standings_latest s
LEFT JOIN league_entries e ON e.entry_id = s.entry_id
WHERE s.entry_id = ?
ORDER BY s.window_seq`, entryID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, entryID)
	}
	return out, nil
}

func (s *SQLStore) queryStandings(ctx context.Context, query string, args ...any) ([]Standing, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var (
			st       Standing
			observed int64
			last     sql.NullInt64
			change   string
		)
		r := &st.Row
		if err := rows.Scan(&r.EntryID, &observed, &r.Rank, &r.RankSort, &r.Total, &r.PeriodTotal, &last,
			&change, &r.BestPeriod, &r.WindowSeq, &r.WindowLabel,
			&st.Entry.EntryName, &st.Entry.PlayerName, &st.Entry.ShortName, &st.Entry.WaiverOrder); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		r.ObservedAt = fromUnix(observed)
		r.PreviousRank = intPtr(last)
		r.RankChange = model.RankChange(change)
		st.Entry.ID = r.EntryID
		out = append(out, st)
	}
	return out, rows.Err()
}

// Entries returns all known league entries keyed by id.
func (s *SQLStore) Entries(ctx context.Context) (map[int64]model.Entry, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT entry_id, entry_name, player_name, short_name, waiver_order FROM league_entries`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]model.Entry)
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.EntryName, &e.PlayerName, &e.ShortName, &e.WaiverOrder); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out[e.ID] = e
	}
	return out, rows.Err()
}

// LastRun returns the most recent merge-run audit record, if any.
func (s *SQLStore) LastRun(ctx context.Context) (*MergeRun, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var (
		run            MergeRun
		started, after int64
		before         sql.NullInt64
	)
	err = db.QueryRowContext(ctx, `SELECT run_id, started_at, watermark_before, watermark_after,
	rows_read, rows_appended, rows_unresolved, rows_superseded
FROM merge_runs
ORDER BY watermark_after DESC, started_at DESC
LIMIT 1`).Scan(&run.ID, &started, &before, &after, &run.Read, &run.Appended, &run.Unresolved, &run.Superseded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last merge run: %w", err)
	}
	run.StartedAt = fromUnix(started)
	run.WatermarkAfter = fromUnix(after)
	if before.Valid {
		run.WatermarkBefore = fromUnix(before.Int64)
	}
	return &run, nil
}

// Stats summarizes the store. Its EnrichedRows counts physical appends, not
// the rows visible through enriched_standings_latest; see LatestRows.
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	defer observe("stats", time.Now())
	db, err := s.conn()
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM draft_standings`, &st.RawSnapshots},
		{`SELECT COUNT(*) FROM enriched_standings`, &st.EnrichedRows},
		{`SELECT COUNT(*) FROM enriched_standings_latest`, &st.LatestRows},
		{`SELECT COUNT(*) FROM league_entries`, &st.Entries},
	}
	for _, c := range counts {
		if err := db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("stats: %w", err)
		}
	}

	var (
		seq   sql.NullInt64
		label sql.NullString
	)
	err = db.QueryRowContext(ctx, `SELECT window_seq, window_label FROM enriched_standings
ORDER BY window_seq DESC LIMIT 1`).Scan(&seq, &label)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}, fmt.Errorf("stats latest window: %w", err)
	}
	st.LatestSequence = int(seq.Int64)
	st.LatestWindow = label.String

	if wm, ok, err := s.Watermark(ctx); err != nil {
		return Stats{}, err
	} else if ok {
		st.Watermark = wm
	}

	if st.LastRun, err = s.LastRun(ctx); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreQuery(op, time.Since(start))
}

func toUnix(t time.Time) int64 { return t.UTC().Unix() }

func fromUnix(n int64) time.Time { return time.Unix(n, 0).UTC() }

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

package repository

import (
	"fmt"
)

// Supported drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite3"
)

// Drivers lists every driver Open accepts.
func Drivers() []string { return []string{DriverDuckDB, DriverSQLite} }

// SupportedDriver reports whether Open accepts driver.
func SupportedDriver(driver string) bool {
	_, err := dialectFor(driver)
	return err == nil
}

// dialect captures the few places where DuckDB and SQLite differ.
type dialect struct {
	name string
	// dsn maps the configured path to a driver data source name.
	dsn func(path string) string
	// readOnlyDSN is dsn for a file opened without write access.
	readOnlyDSN func(path string) string
	// setup runs once per connection before the schema is applied.
	setup []string
	// schema runs after baseSchema.
	schema []string
	// tableExists takes one argument: the table name.
	tableExists string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverDuckDB:
		return duckdbDialect, nil
	case DriverSQLite:
		return sqliteDialect, nil
	default:
		return dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// DuckDB has no triggers. Its append-only guarantee is that SQLStore never
// issues UPDATE or DELETE against the standings tables.
var duckdbDialect = dialect{
	name: DriverDuckDB,
	dsn: func(path string) string {
		if path == ":memory:" {
			return ""
		}
		return path
	},
	readOnlyDSN: func(path string) string {
		return path + "?access_mode=read_only"
	},
	tableExists: `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`,
}

var sqliteDialect = dialect{
	name: DriverSQLite,
	dsn: func(path string) string {
		if path == "" {
			return ":memory:"
		}
		return path
	},
	readOnlyDSN: func(path string) string {
		return "file:" + path + "?mode=ro"
	},
	setup: []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
	},
	schema: []string{
		`CREATE TRIGGER IF NOT EXISTS trg_draft_standings_no_update
BEFORE UPDATE ON draft_standings
BEGIN
	SELECT RAISE(ABORT, 'draft_standings is append-only: UPDATE forbidden');
END`,
		`CREATE TRIGGER IF NOT EXISTS trg_draft_standings_no_delete
BEFORE DELETE ON draft_standings
BEGIN
	SELECT RAISE(ABORT, 'draft_standings is append-only: DELETE forbidden');
END`,
		`CREATE TRIGGER IF NOT EXISTS trg_enriched_standings_no_update
BEFORE UPDATE ON enriched_standings
BEGIN
	SELECT RAISE(ABORT, 'enriched_standings is append-only: UPDATE forbidden');
END`,
		`CREATE TRIGGER IF NOT EXISTS trg_enriched_standings_no_delete
BEFORE DELETE ON enriched_standings
BEGIN
	SELECT RAISE(ABORT, 'enriched_standings is append-only: DELETE forbidden');
END`,
	},
	tableExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
}

package repository

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithDriver selects the database driver: "duckdb" (default) or "sqlite3".
func WithDriver(driver string) Option {
	return func(s *SQLStore) {
		if driver != "" {
			s.driver = driver
		}
	}
}

// WithPath sets the database file. Empty or ":memory:" opens an in-memory database.
func WithPath(path string) Option {
	return func(s *SQLStore) {
		s.path = path
	}
}

// WithReadOnly opens an existing database file without applying the schema.
// Writes fail with ErrReadOnly.
func WithReadOnly() Option {
	return func(s *SQLStore) {
		s.readOnly = true
	}
}

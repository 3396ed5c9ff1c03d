package core

import "database/sql"

// AdapterConfig holds connection settings for a database adapter.
// Not every field applies to every adapter: DuckDB only uses Path,
// Postgres ignores it.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
}

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

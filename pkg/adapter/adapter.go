// Package adapter provides the database adapter contract for finsight's
// extraction pipeline, plus a registry of concrete implementations.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves in init(). Import one with a blank identifier to make it
// available:
//
//	import _ "github.com/finstack-labs/finsight/pkg/adapters/postgres"
package adapter

import (
	"context"

	"github.com/finstack-labs/finsight/pkg/core"
)

// Type aliases so adapter implementations and callers can use the
// shorter names without importing pkg/core directly.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadCSV loads data from a CSV file into a table, creating the
	// table with an inferred schema if it doesn't exist.
	LoadCSV(ctx context.Context, tableName string, filePath string) error
}

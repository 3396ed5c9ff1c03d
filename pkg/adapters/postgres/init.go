// Package postgres provides a PostgreSQL adapter for finsight.
//
// This file registers the adapter with the adapter registry. Import
// this package with a blank identifier to register the adapter:
//
//	import _ "github.com/finstack-labs/finsight/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/finstack-labs/finsight/pkg/adapter"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

// Package duckdb provides a DuckDB database adapter for the Thesaurus
// extraction engine. DuckDB serves local analytical copies of study data.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb" // registers the duckdb database/sql driver

	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapter"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/dialect"
)

// Dialect is the DuckDB dialect configuration.
var Dialect = &dialect.Dialect{
	Name:          "duckdb",
	DefaultSchema: "main",
	Placeholder:   dialect.PlaceholderQuestion,
	QuoteChar:     `"`,
	SupportsILike: true,
	NumericGuard: func(expr string) string {
		return `regexp_matches(` + expr + `, '^-?[0-9]+(\.[0-9]+)?$')`
	},
}

func init() {
	dialect.Register(Dialect)
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter {
		return New(logger)
	})
}

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Connect opens the DuckDB database at cfg.Path (empty for in-memory).
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	a.Logger.Debug("connecting to duckdb", slog.String("path", cfg.Path))

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// IntrospectSchema returns metadata for every table in the given schema.
func (a *Adapter) IntrospectSchema(ctx context.Context, schema string) ([]adapter.TableMetadata, error) {
	return a.IntrospectSchemaCommon(ctx, schema, Dialect)
}

// Dialect returns the DuckDB dialect configuration.
func (a *Adapter) Dialect() *dialect.Dialect {
	return Dialect
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)

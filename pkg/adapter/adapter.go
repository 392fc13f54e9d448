// Package adapter provides database adapter interfaces and implementations
// for the Thesaurus extraction engine.
//
// This package contains the public contract that all database adapters must
// implement. Concrete adapter implementations are in pkg/adapters/
// subdirectories.
package adapter

import (
	"context"
	"database/sql"

	"github.com/AndriiKulakovskyi/thesaurus/pkg/dialect"
)

// Config holds configuration for connecting to a database.
type Config struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
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
	Schema  string
	Name    string
	Columns []Column
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting to databases, executing read-only
// queries, and introspecting the live schema.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// IntrospectSchema returns metadata for every table in the given schema.
	// A schema with no tables is not an error; it returns an empty slice.
	IntrospectSchema(ctx context.Context, schema string) ([]TableMetadata, error)

	// Dialect returns the SQL dialect configuration for this adapter.
	// This is used to quote identifiers, format placeholders, and access
	// dialect-specific predicate builders.
	Dialect() *dialect.Dialect
}

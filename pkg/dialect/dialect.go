// Package dialect provides SQL dialect configuration for query generation.
//
// This package contains the public contract for dialect definitions used by
// the extraction engine and database adapters. Concrete dialects are
// registered from pkg/adapters/*/ packages.
package dialect

import (
	"strconv"
	"strings"
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name string

	// DefaultSchema is the default schema name ("main" for DuckDB and
	// SQLite, "public" for Postgres).
	DefaultSchema string

	// Placeholder defines how query parameters are formatted.
	Placeholder PlaceholderStyle

	// QuoteChar is the identifier quote character.
	QuoteChar string

	// SupportsILike reports whether the dialect has a native ILIKE operator.
	// Dialects without it fall back to LOWER(...) LIKE LOWER(...).
	SupportsILike bool

	// NumericGuard returns a predicate that is true when the given column
	// expression holds a numeric-parseable value. Used to exclude sentinel
	// strings ("Ne sais pas" and friends) from numeric comparisons on text
	// columns instead of failing the whole query on a cast error.
	NumericGuard func(expr string) string
}

// QuoteIdent quotes an identifier for this dialect.
func (d *Dialect) QuoteIdent(name string) string {
	q := d.QuoteChar
	if q == "" {
		q = `"`
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// FormatPlaceholder returns the placeholder for the given 1-based position.
func (d *Dialect) FormatPlaceholder(position int) string {
	if d.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(position)
	}
	return "?"
}

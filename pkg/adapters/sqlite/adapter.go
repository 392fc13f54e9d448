// Package sqlite provides a pure-Go SQLite database adapter for the
// Thesaurus extraction engine, used for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // registers the sqlite database/sql driver

	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapter"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/dialect"
)

// Dialect is the SQLite dialect configuration.
//
// SQLite has no regexp operator by default, so the numeric guard is a GLOB
// approximation: digits and at most a decimal point, no leading minus. Good
// enough to keep sentinel strings out of numeric comparisons.
var Dialect = &dialect.Dialect{
	Name:          "sqlite",
	DefaultSchema: "main",
	Placeholder:   dialect.PlaceholderQuestion,
	QuoteChar:     `"`,
	SupportsILike: false,
	NumericGuard: func(expr string) string {
		return "(" + expr + " GLOB '[0-9]*' AND " + expr + " NOT GLOB '*[^0-9.]*')"
	},
}

func init() {
	dialect.Register(Dialect)
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter {
		return New(logger)
	})
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Connect opens the SQLite database at cfg.Path (":memory:" for in-memory).
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// IntrospectSchema returns metadata for every table in the database.
// SQLite has a single namespace, so the schema argument is ignored.
func (a *Adapter) IntrospectSchema(ctx context.Context, schema string) ([]adapter.TableMetadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	tables := make([]adapter.TableMetadata, 0, len(names))
	for _, name := range names {
		meta, err := a.tableColumns(ctx, schema, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, meta)
	}
	return tables, nil
}

// tableColumns reads column metadata via PRAGMA table_info.
func (a *Adapter) tableColumns(ctx context.Context, schema, table string) (adapter.TableMetadata, error) {
	meta := adapter.TableMetadata{Schema: schema, Name: table}

	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, Dialect.QuoteIdent(table)))
	if err != nil {
		return meta, fmt.Errorf("failed to read columns for %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			cid        int
			col        adapter.Column
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultVal, &pk); err != nil {
			return meta, fmt.Errorf("failed to scan column for %s: %w", table, err)
		}
		col.Nullable = notNull == 0
		col.Position = cid + 1
		meta.Columns = append(meta.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return meta, fmt.Errorf("error iterating columns for %s: %w", table, err)
	}
	return meta, nil
}

// Dialect returns the SQLite dialect configuration.
func (a *Adapter) Dialect() *dialect.Dialect {
	return Dialect
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)

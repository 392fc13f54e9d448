package postgres

import (
	"log/slog"

	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapter"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/dialect"
)

// Dialect is the PostgreSQL dialect configuration.
var Dialect = &dialect.Dialect{
	Name:          "postgres",
	DefaultSchema: "public",
	Placeholder:   dialect.PlaceholderDollar,
	QuoteChar:     `"`,
	SupportsILike: true,
	NumericGuard: func(expr string) string {
		return expr + ` ~ '^-?[0-9]+(\.[0-9]+)?$'`
	},
}

func init() {
	dialect.Register(Dialect)
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter {
		return New(logger)
	})
}

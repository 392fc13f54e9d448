package extract

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/AndriiKulakovskyi/thesaurus/internal/schema"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/dialect"
)

// SelectedColumn is one resolved variable in the SELECT list: the physical
// column, aliased under the logical name the researcher asked for.
type SelectedColumn struct {
	Logical  string
	Physical string
}

// DroppedFilter records a filter that could not be honored, with the reason,
// for diagnostics.
type DroppedFilter struct {
	Variable string
	Operator Operator
	Reason   string
}

// TableQuery is one executable per-table SELECT, together with everything
// that could not be honored: requested variables that did not resolve
// (rendered as null in the output) and filters that were dropped.
type TableQuery struct {
	Table          string // physical table name
	SQL            string
	Args           []any
	Columns        []SelectedColumn
	DroppedColumns []string
	DroppedFilters []DroppedFilter
}

// Builder composes per-table SELECT statements from variable selections.
type Builder struct {
	resolver *Resolver
	coercer  *Coercer
	dialect  *dialect.Dialect
	logger   *slog.Logger
}

// NewBuilder creates a per-table query builder.
func NewBuilder(resolver *Resolver, d *dialect.Dialect, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		resolver: resolver,
		coercer:  NewCoercer(d),
		dialect:  d,
		logger:   logger,
	}
}

// Build composes the SELECT for one physical table. limit caps the row count
// for this table; the merger applies the global limit again across tables.
func (b *Builder) Build(schemaName string, table schema.Table, sel Selection, limit int) TableQuery {
	tq := TableQuery{Table: table.Name}
	available := table.ColumnNames()

	// SELECT list: resolved physical columns aliased under logical names.
	var selectList []string
	for _, variable := range sel.Variables {
		physical, ok := b.resolver.Resolve(variable, available)
		if !ok {
			b.logger.Warn("column not resolved, returning null values",
				"table", table.Name, "variable", variable)
			tq.DroppedColumns = append(tq.DroppedColumns, variable)
			continue
		}
		tq.Columns = append(tq.Columns, SelectedColumn{Logical: variable, Physical: physical})
		selectList = append(selectList,
			fmt.Sprintf("%s AS %s", b.dialect.QuoteIdent(physical), b.dialect.QuoteIdent(variable)))
	}

	// Never fall back to SELECT *: with zero resolved variables the table
	// still contributes its (filtered) row count, as all-null records.
	if len(selectList) == 0 {
		selectList = []string{"1"}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selectList, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.qualifiedTable(schemaName, table.Name))

	where, args := b.buildWhere(table, sel, &tq)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
		tq.Args = args
	}

	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	}

	tq.SQL = sb.String()
	return tq
}

// buildWhere resolves and coerces each filter, collecting predicates in
// variable order. Filters that miss resolution or fail coercion are dropped
// with a warning, never rejected as a hard error.
func (b *Builder) buildWhere(table schema.Table, sel Selection, tq *TableQuery) ([]string, []any) {
	if len(sel.Filters) == 0 {
		return nil, nil
	}

	variables := make([]string, 0, len(sel.Filters))
	for v := range sel.Filters {
		variables = append(variables, v)
	}
	sort.Strings(variables)

	var (
		clauses []string
		args    []any
		next    = 1
	)
	for _, variable := range variables {
		physical, ok := b.resolver.Resolve(variable, table.ColumnNames())
		if !ok {
			b.logger.Warn("filter column not resolved, filter ignored",
				"table", table.Name, "variable", variable)
			for _, f := range sel.Filters[variable] {
				tq.DroppedFilters = append(tq.DroppedFilters, DroppedFilter{
					Variable: variable, Operator: f.Operator, Reason: "column not resolved",
				})
			}
			continue
		}
		col, _ := table.Column(physical)

		for _, f := range sel.Filters[variable] {
			pred, n, err := b.coercer.Coerce(col, f, next)
			if err != nil {
				b.logger.Warn("filter dropped",
					"table", table.Name, "variable", variable,
					"operator", string(f.Operator), "error", err)
				tq.DroppedFilters = append(tq.DroppedFilters, DroppedFilter{
					Variable: variable, Operator: f.Operator, Reason: err.Error(),
				})
				continue
			}
			next = n
			clauses = append(clauses, pred.SQL)
			args = append(args, pred.Args...)
		}
	}
	return clauses, args
}

func (b *Builder) qualifiedTable(schemaName, table string) string {
	if schemaName == "" {
		return b.dialect.QuoteIdent(table)
	}
	return b.dialect.QuoteIdent(schemaName) + "." + b.dialect.QuoteIdent(table)
}

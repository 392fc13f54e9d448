package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AndriiKulakovskyi/thesaurus/internal/schema"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapter"
)

// Options holds engine tunables.
type Options struct {
	// FuzzyThreshold is the minimum similarity for fuzzy column matching
	// (0 selects DefaultFuzzyThreshold).
	FuzzyThreshold float64
	// TableTimeout bounds each per-table query (0 disables).
	TableTimeout time.Duration
	// Workers bounds concurrent per-table queries (0 or less means 1).
	Workers int
	// DefaultLimit applies when a query carries no limit (0 means unlimited).
	DefaultLimit int
	// SchemaPattern maps a study name to its physical schema name, e.g.
	// "_prod_thesaurus_%s". An empty pattern uses the study name directly.
	SchemaPattern string
}

// Engine resolves extraction queries against the physical study database.
// Per-table failures degrade that table's contribution; they never fail the
// whole request.
type Engine struct {
	db      adapter.Adapter
	schemas *schema.Cache
	builder *Builder
	opts    Options
	logger  *slog.Logger
}

// New creates an engine over a connected adapter.
func New(db adapter.Adapter, schemas *schema.Cache, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	resolver := NewResolver(opts.FuzzyThreshold, logger)
	return &Engine{
		db:      db,
		schemas: schemas,
		builder: NewBuilder(resolver, db.Dialect(), logger),
		opts:    opts,
		logger:  logger,
	}
}

// SchemaName maps a study name to its physical schema name.
func (e *Engine) SchemaName(study string) string {
	if e.opts.SchemaPattern == "" {
		return study
	}
	if strings.Contains(e.opts.SchemaPattern, "%s") {
		return fmt.Sprintf(e.opts.SchemaPattern, study)
	}
	return e.opts.SchemaPattern
}

// Extract runs a normalized extraction query and returns the merged result.
// The only fatal condition is the physical schema being unreachable; missing
// tables, unresolved columns, dropped filters and per-table execution errors
// all degrade to a partial (possibly empty) result.
func (e *Engine) Extract(ctx context.Context, q Query) (*Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = e.opts.DefaultLimit
	}

	schemaName := e.SchemaName(q.StudyName)
	phys, err := e.schemas.Get(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to load physical schema for study %s: %w", q.StudyName, err)
	}

	// Fan the selections out, bounded by Workers. Outcomes land at their
	// selection index so the merge preserves input order regardless of
	// completion order. Workers never return errors: per-table failures are
	// recorded in the outcome, not propagated.
	outcomes := make([]tableOutcome, len(q.Selections))
	var eg errgroup.Group
	eg.SetLimit(e.opts.Workers)

	for i, sel := range q.Selections {
		eg.Go(func() error {
			outcomes[i] = e.extractTable(ctx, phys, schemaName, sel, limit)
			return nil
		})
	}
	_ = eg.Wait()

	for _, o := range outcomes {
		switch o.status {
		case outcomeSkipped:
			e.logger.Warn("selection skipped", "study", q.StudyName, "table", o.table, "reason", o.reason)
		case outcomeFailed:
			e.logger.Error("table extraction failed, contribution empty",
				"study", q.StudyName, "table", o.table, "error", o.err)
		}
	}

	result := Merge(collectPartials(outcomes), limit)
	result.StudyName = q.StudyName
	result.Columns = resultColumns(q.Selections)

	e.logger.Info("extraction completed",
		"study", q.StudyName, "selections", len(q.Selections), "rows", result.Count())
	return result, nil
}

// extractTable runs one selection to a tagged outcome.
func (e *Engine) extractTable(ctx context.Context, phys *schema.PhysicalSchema, schemaName string, sel Selection, limit int) tableOutcome {
	table, ok := phys.Table(sel.TableName)
	if !ok {
		return tableOutcome{status: outcomeSkipped, table: sel.TableName, reason: "table not found in physical schema"}
	}

	tq := e.builder.Build(schemaName, table, sel, limit)

	if e.opts.TableTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.TableTimeout)
		defer cancel()
	}

	e.logger.Debug("executing table query", "table", table.Name, "sql", tq.SQL)

	rows, err := e.db.Query(ctx, tq.SQL, tq.Args...)
	if err != nil {
		return tableOutcome{status: outcomeFailed, table: table.Name, err: err}
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRows(rows, tq)
	if err != nil {
		return tableOutcome{status: outcomeFailed, table: table.Name, err: err}
	}
	return tableOutcome{status: outcomeOK, table: table.Name, rows: records}
}

// scanRows materializes query results as Rows keyed by logical variable
// name. Dropped columns appear as explicit nulls in every row; they never
// remove the row. Each row is tagged with the physical table name.
func scanRows(rows *adapter.Rows, tq TableQuery) ([]Row, error) {
	var out []Row
	for rows.Next() {
		values := make([]any, max(len(tq.Columns), 1))
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", tq.Table, err)
		}

		data := make(map[string]any, len(tq.Columns)+len(tq.DroppedColumns))
		for i, col := range tq.Columns {
			data[col.Logical] = normalizeValue(values[i])
		}
		for _, dropped := range tq.DroppedColumns {
			data[dropped] = nil
		}
		out = append(out, Row{TableName: tq.Table, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", tq.Table, err)
	}
	return out, nil
}

// normalizeValue converts driver []byte text into string for serialization.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// resultColumns lists requested logical variable names across selections in
// first-appearance order.
func resultColumns(selections []Selection) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, sel := range selections {
		for _, v := range sel.Variables {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

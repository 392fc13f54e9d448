package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndriiKulakovskyi/thesaurus/internal/schema"
	"github.com/AndriiKulakovskyi/thesaurus/internal/testutil"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapters/postgres"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	return NewBuilder(NewResolver(0, logger), postgres.Dialect, logger)
}

func demographicsTable() schema.Table {
	return schema.Table{
		Name: "demographics",
		Columns: []schema.Column{
			{Name: "usubjid", Type: "text"},
			{Name: "age_years", Type: "integer"},
			{Name: "sex", Type: "text"},
			{Name: "score", Type: "character varying"},
		},
	}
}

func TestBuildAliasesResolvedColumns(t *testing.T) {
	b := newTestBuilder(t)

	tq := b.Build("_prod_thesaurus_demo", demographicsTable(), Selection{
		TableName: "demographics",
		Variables: []string{"usubjid", "age"},
	}, 1000)

	assert.Equal(t,
		`SELECT "usubjid" AS "usubjid", "age_years" AS "age" FROM "_prod_thesaurus_demo"."demographics" LIMIT 1000`,
		tq.SQL)
	assert.Empty(t, tq.Args)
	assert.Equal(t, []SelectedColumn{
		{Logical: "usubjid", Physical: "usubjid"},
		{Logical: "age", Physical: "age_years"},
	}, tq.Columns)
	assert.Empty(t, tq.DroppedColumns)
}

func TestBuildUnresolvedVariableDropped(t *testing.T) {
	b := newTestBuilder(t)

	tq := b.Build("s", demographicsTable(), Selection{
		TableName: "demographics",
		Variables: []string{"usubjid", "nonexistent_thing"},
	}, 0)

	assert.Equal(t, `SELECT "usubjid" AS "usubjid" FROM "s"."demographics"`, tq.SQL)
	assert.Equal(t, []string{"nonexistent_thing"}, tq.DroppedColumns)
}

func TestBuildProbeWhenNothingResolves(t *testing.T) {
	b := newTestBuilder(t)

	tq := b.Build("s", demographicsTable(), Selection{
		TableName: "demographics",
		Variables: []string{"zzz_one", "zzz_two"},
		Filters: Filters{
			"sex": {{Operator: OpEq, Operands: []string{"F"}}},
		},
	}, 10)

	// No SELECT * fallback: unresolved variables still yield one row per
	// matching record, carried as nulls.
	assert.Equal(t, `SELECT 1 FROM "s"."demographics" WHERE "sex" = $1 LIMIT 10`, tq.SQL)
	assert.Equal(t, []any{"F"}, tq.Args)
	assert.Equal(t, []string{"zzz_one", "zzz_two"}, tq.DroppedColumns)
}

func TestBuildWhereDeterministicOrder(t *testing.T) {
	b := newTestBuilder(t)

	sel := Selection{
		TableName: "demographics",
		Variables: []string{"usubjid"},
		Filters: Filters{
			"sex": {{Operator: OpEq, Operands: []string{"F"}}},
			"age": {{Operator: OpGte, Operands: []string{"18"}}, {Operator: OpLt, Operands: []string{"65"}}},
		},
	}

	tq := b.Build("s", demographicsTable(), sel, 100)
	// Filter variables are emitted in sorted order with sequential
	// placeholders, so the same request always produces the same SQL.
	assert.Equal(t,
		`SELECT "usubjid" AS "usubjid" FROM "s"."demographics" WHERE "age_years" >= $1 AND "age_years" < $2 AND "sex" = $3 LIMIT 100`,
		tq.SQL)
	assert.Equal(t, []any{int64(18), int64(65), "F"}, tq.Args)

	again := b.Build("s", demographicsTable(), sel, 100)
	assert.Equal(t, tq.SQL, again.SQL)
}

func TestBuildFilterOnUnresolvedColumnIgnored(t *testing.T) {
	b := newTestBuilder(t)

	tq := b.Build("s", demographicsTable(), Selection{
		TableName: "demographics",
		Variables: []string{"usubjid"},
		Filters: Filters{
			"qqqqq": {{Operator: OpEq, Operands: []string{"x"}}},
		},
	}, 0)

	assert.NotContains(t, tq.SQL, "WHERE")
	require.Len(t, tq.DroppedFilters, 1)
	assert.Equal(t, "qqqqq", tq.DroppedFilters[0].Variable)
	assert.Equal(t, "column not resolved", tq.DroppedFilters[0].Reason)
}

func TestBuildUnsupportedFilterDropped(t *testing.T) {
	b := newTestBuilder(t)

	tq := b.Build("s", demographicsTable(), Selection{
		TableName: "demographics",
		Variables: []string{"usubjid"},
		Filters: Filters{
			"sex": {
				{Operator: "between", Operands: []string{"a", "b"}},
				{Operator: OpEq, Operands: []string{"F"}},
			},
		},
	}, 0)

	// The bad expression drops; the good one on the same variable stays.
	assert.Equal(t, `SELECT "usubjid" AS "usubjid" FROM "s"."demographics" WHERE "sex" = $1`, tq.SQL)
	require.Len(t, tq.DroppedFilters, 1)
	assert.Equal(t, Operator("between"), tq.DroppedFilters[0].Operator)
}

func TestBuildGuardedCastOnTextColumn(t *testing.T) {
	b := newTestBuilder(t)

	tq := b.Build("s", demographicsTable(), Selection{
		TableName: "demographics",
		Variables: []string{"score"},
		Filters: Filters{
			"score": {{Operator: OpGt, Operands: []string{"10"}}},
		},
	}, 0)

	assert.Equal(t,
		`SELECT "score" AS "score" FROM "s"."demographics" WHERE ("score" ~ '^-?[0-9]+(\.[0-9]+)?$' AND CAST("score" AS NUMERIC) > $1)`,
		tq.SQL)
	assert.Equal(t, []any{int64(10)}, tq.Args)
}

func TestBuildNoSchemaQualifier(t *testing.T) {
	b := newTestBuilder(t)

	tq := b.Build("", demographicsTable(), Selection{
		TableName: "demographics",
		Variables: []string{"usubjid"},
	}, 0)

	assert.Equal(t, `SELECT "usubjid" AS "usubjid" FROM "demographics"`, tq.SQL)
}

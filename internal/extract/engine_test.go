package extract

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndriiKulakovskyi/thesaurus/internal/schema"
	"github.com/AndriiKulakovskyi/thesaurus/internal/testutil"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapter"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapters/postgres"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/dialect"
)

// mockAdapter serves canned schema metadata and routes queries through
// sqlmock.
type mockAdapter struct {
	*adapter.BaseSQLAdapter
	metadata []adapter.TableMetadata
	introErr error
}

func (m *mockAdapter) Connect(ctx context.Context, cfg adapter.Config) error { return nil }

func (m *mockAdapter) IntrospectSchema(ctx context.Context, schemaName string) ([]adapter.TableMetadata, error) {
	if m.introErr != nil {
		return nil, m.introErr
	}
	return m.metadata, nil
}

func (m *mockAdapter) Dialect() *dialect.Dialect { return postgres.Dialect }

func newMockEngine(t *testing.T, metadata []adapter.TableMetadata, opts Options) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := testutil.NewTestLogger(t)
	ad := &mockAdapter{
		BaseSQLAdapter: &adapter.BaseSQLAdapter{DB: db, Logger: logger},
		metadata:       metadata,
	}
	cache := schema.NewCache(ad, time.Minute, logger)
	return New(ad, cache, opts, logger), mock
}

func demographicsMetadata() []adapter.TableMetadata {
	return []adapter.TableMetadata{
		{
			Schema: "_prod_thesaurus_demo",
			Name:   "demographics",
			Columns: []adapter.Column{
				{Name: "usubjid", Type: "text", Position: 1},
				{Name: "age_years", Type: "integer", Position: 2},
			},
		},
		{
			Schema: "_prod_thesaurus_demo",
			Name:   "scores",
			Columns: []adapter.Column{
				{Name: "usubjid", Type: "text", Position: 1},
				{Name: "total", Type: "integer", Position: 2},
			},
		},
	}
}

func TestExtractSingleTable(t *testing.T) {
	e, mock := newMockEngine(t, demographicsMetadata(), Options{
		SchemaPattern: "_prod_thesaurus_%s",
		DefaultLimit:  1000,
	})

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT "usubjid" AS "usubjid", "age_years" AS "age" FROM "_prod_thesaurus_demo"."demographics" LIMIT 1000`,
	)).WillReturnRows(sqlmock.NewRows([]string{"usubjid", "age"}).
		AddRow("S001", 42).
		AddRow("S002", 35))

	res, err := e.Extract(context.Background(), Query{
		StudyName: "demo",
		Selections: []Selection{
			{TableName: "demographics", Variables: []string{"usubjid", "age"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "demo", res.StudyName)
	assert.Equal(t, []string{"usubjid", "age"}, res.Columns)
	require.Equal(t, 2, res.Count())
	assert.Equal(t, "demographics", res.Rows[0].TableName)
	assert.Equal(t, "S001", res.Rows[0].Data["usubjid"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractMissingTableSkipped(t *testing.T) {
	e, mock := newMockEngine(t, demographicsMetadata(), Options{
		SchemaPattern: "_prod_thesaurus_%s",
	})

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "_prod_thesaurus_demo"."demographics"`)).
		WillReturnRows(sqlmock.NewRows([]string{"usubjid"}).AddRow("S001"))

	res, err := e.Extract(context.Background(), Query{
		StudyName: "demo",
		Selections: []Selection{
			{TableName: "no_such_table", Variables: []string{"usubjid"}},
			{TableName: "demographics", Variables: []string{"usubjid"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count())
	assert.Equal(t, "demographics", res.Rows[0].TableName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractTableFailureAbsorbed(t *testing.T) {
	e, mock := newMockEngine(t, demographicsMetadata(), Options{
		SchemaPattern: "_prod_thesaurus_%s",
		Workers:       1,
	})

	mock.ExpectQuery(regexp.QuoteMeta(`"demographics"`)).
		WillReturnError(errors.New("relation gone"))
	mock.ExpectQuery(regexp.QuoteMeta(`"scores"`)).
		WillReturnRows(sqlmock.NewRows([]string{"usubjid", "total"}).AddRow("S001", 17))

	res, err := e.Extract(context.Background(), Query{
		StudyName: "demo",
		Selections: []Selection{
			{TableName: "demographics", Variables: []string{"usubjid"}},
			{TableName: "scores", Variables: []string{"usubjid", "total"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count())
	assert.Equal(t, "scores", res.Rows[0].TableName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractAllNullRowsForUnresolvedVariables(t *testing.T) {
	e, mock := newMockEngine(t, demographicsMetadata(), Options{
		SchemaPattern: "_prod_thesaurus_%s",
	})

	// Nothing resolves, so the engine probes with SELECT 1 and carries the
	// requested variables as nulls on every returned row.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM "_prod_thesaurus_demo"."demographics"`)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1).AddRow(1))

	res, err := e.Extract(context.Background(), Query{
		StudyName: "demo",
		Selections: []Selection{
			{TableName: "demographics", Variables: []string{"zzz_unknown"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Count())
	for _, row := range res.Rows {
		v, present := row.Data["zzz_unknown"]
		assert.True(t, present)
		assert.Nil(t, v)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractSchemaLoadFailureIsFatal(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := testutil.NewTestLogger(t)
	ad := &mockAdapter{
		BaseSQLAdapter: &adapter.BaseSQLAdapter{DB: db, Logger: logger},
		introErr:       errors.New("schema unreachable"),
	}
	cache := schema.NewCache(ad, time.Minute, logger)
	e := New(ad, cache, Options{}, logger)

	_, err = e.Extract(context.Background(), Query{
		StudyName:  "demo",
		Selections: []Selection{{TableName: "demographics"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "physical schema")
}

func TestExtractByteValuesNormalized(t *testing.T) {
	e, mock := newMockEngine(t, demographicsMetadata(), Options{
		SchemaPattern: "_prod_thesaurus_%s",
	})

	mock.ExpectQuery(regexp.QuoteMeta(`"demographics"`)).
		WillReturnRows(sqlmock.NewRows([]string{"usubjid"}).AddRow([]byte("S001")))

	res, err := e.Extract(context.Background(), Query{
		StudyName: "demo",
		Selections: []Selection{
			{TableName: "demographics", Variables: []string{"usubjid"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count())
	assert.Equal(t, "S001", res.Rows[0].Data["usubjid"])
}

func TestExtractGlobalLimitAcrossTables(t *testing.T) {
	e, mock := newMockEngine(t, demographicsMetadata(), Options{
		SchemaPattern: "_prod_thesaurus_%s",
		Workers:       1,
	})

	demoRows := sqlmock.NewRows([]string{"usubjid"})
	for _, id := range []string{"S001", "S002", "S003"} {
		demoRows.AddRow(id)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`"demographics"`)).WillReturnRows(demoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`"scores"`)).
		WillReturnRows(sqlmock.NewRows([]string{"usubjid"}).AddRow("S001").AddRow("S002"))

	res, err := e.Extract(context.Background(), Query{
		StudyName: "demo",
		Limit:     4,
		Selections: []Selection{
			{TableName: "demographics", Variables: []string{"usubjid"}},
			{TableName: "scores", Variables: []string{"usubjid"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 4, res.Count())
	assert.Equal(t, "demographics", res.Rows[2].TableName)
	assert.Equal(t, "scores", res.Rows[3].TableName)
}

func TestSchemaName(t *testing.T) {
	e := &Engine{opts: Options{SchemaPattern: "_prod_thesaurus_%s"}}
	assert.Equal(t, "_prod_thesaurus_demo", e.SchemaName("demo"))

	e = &Engine{opts: Options{}}
	assert.Equal(t, "demo", e.SchemaName("demo"))

	e = &Engine{opts: Options{SchemaPattern: "fixed_schema"}}
	assert.Equal(t, "fixed_schema", e.SchemaName("demo"))
}

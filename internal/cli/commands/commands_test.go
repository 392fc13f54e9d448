package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndriiKulakovskyi/thesaurus/internal/extract"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3", "2026-08-31", "abc1234")
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "thesaurus v1.2.3")
	assert.Contains(t, out.String(), "abc1234")
}

func TestSetupCommand(t *testing.T) {
	dir := t.TempDir()

	cmd := NewSetupCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())

	for _, path := range []string{
		filepath.Join(dir, "thesaurus.yaml"),
		filepath.Join(dir, "catalog", "studies.yaml"),
		filepath.Join(dir, "catalog", "example_study", "demographics.yml"),
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}

	// A second run leaves existing files alone.
	out.Reset()
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "exists, skipping")
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{
		"age:gt:30",
		"sex:eq:F",
		"site:in:A,B,C",
		"visit:like:%V0%",
	})
	require.NoError(t, err)

	assert.Equal(t, "30", filters["age"]["gt"])
	assert.Equal(t, "F", filters["sex"]["eq"])
	assert.Equal(t, []any{"A", "B", "C"}, filters["site"]["in"])
	assert.Equal(t, "%V0%", filters["visit"]["like"])

	_, err = parseFilters([]string{"malformed"})
	assert.Error(t, err)
}

func TestBuildRequestFromFlags(t *testing.T) {
	cmd := NewExtractCommand(nil)
	require.NoError(t, cmd.Flags().Set("study", "cohort_a"))
	require.NoError(t, cmd.Flags().Set("tables", "demographics,scores"))
	require.NoError(t, cmd.Flags().Set("variables", "usubjid,age"))
	require.NoError(t, cmd.Flags().Set("filter", "age:gte:18"))
	require.NoError(t, cmd.Flags().Set("limit", "50"))

	req, err := buildRequest(cmd)
	require.NoError(t, err)
	assert.Equal(t, "cohort_a", req.StudyName)
	assert.Equal(t, []string{"demographics", "scores"}, req.TableNames)
	assert.Equal(t, []string{"usubjid", "age"}, req.VariableNames)
	assert.Equal(t, 50, req.Limit)
	assert.Equal(t, "18", req.Filters["age"]["gte"])
}

func TestBuildRequestRequiresStudy(t *testing.T) {
	cmd := NewExtractCommand(nil)
	_, err := buildRequest(cmd)
	assert.Error(t, err)
}

func TestBuildRequestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"study_name": "cohort_a",
		"tables_with_variables": [
			{"table_name": "demographics", "variable_names": ["usubjid"]}
		]
	}`), 0o644))

	cmd := NewExtractCommand(nil)
	require.NoError(t, cmd.Flags().Set("request", path))

	req, err := buildRequest(cmd)
	require.NoError(t, err)
	assert.Equal(t, "cohort_a", req.StudyName)
	require.Len(t, req.TablesWithVariables, 1)
}

func TestRenderResultCSV(t *testing.T) {
	result := &extract.Result{
		StudyName: "cohort_a",
		Columns:   []string{"usubjid", "age"},
		Rows: []extract.Row{
			{TableName: "demographics", Data: map[string]any{"usubjid": "S001", "age": 42}},
			{TableName: "scores", Data: map[string]any{"usubjid": "S002", "age": nil}},
		},
	}

	var out bytes.Buffer
	require.NoError(t, renderResultCSV(&out, result))
	assert.Equal(t, "table_name,usubjid,age\ndemographics,S001,42\nscores,S002,\n", out.String())
}

func TestRenderResultTableEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderResultTable(&out, &extract.Result{}))
	assert.Contains(t, out.String(), "(0 rows)")
}

func TestRenderResultJSON(t *testing.T) {
	result := &extract.Result{
		StudyName: "cohort_a",
		Columns:   []string{"usubjid"},
		Rows: []extract.Row{
			{TableName: "demographics", Data: map[string]any{"usubjid": "S001"}},
		},
	}

	var out bytes.Buffer
	require.NoError(t, renderResult(&out, result, "json"))
	assert.Contains(t, out.String(), `"study_name": "cohort_a"`)
}

package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/AndriiKulakovskyi/thesaurus/internal/extract"
)

// NewExtractCommand creates the extract command.
func NewExtractCommand(getConfig ConfigGetter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run an extraction query from the command line",
		Long: `Run an extraction query against the study database and print the merged
result. Filters use variable:operator:value syntax and may repeat.`,
		Example: `  # Pull two variables from one table
  thesaurus extract --study cohort_a --tables demographics --variables usubjid,age

  # Filter and cap the result
  thesaurus extract --study cohort_a --tables demographics,scores \
    --variables usubjid,age --filter age:gt:30 --filter sex:eq:F --limit 100

  # Read a full request from a file and emit CSV
  thesaurus extract --request query.json --format csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, getConfig)
		},
	}

	cmd.Flags().String("study", "", "Study name")
	cmd.Flags().StringSlice("tables", nil, "Tables to extract from")
	cmd.Flags().StringSlice("variables", nil, "Logical variables to extract")
	cmd.Flags().StringArray("filter", nil, "Filter as variable:operator:value (repeatable)")
	cmd.Flags().Int("limit", 0, "Global row limit (0 uses the configured default)")
	cmd.Flags().String("request", "", "Path to a JSON request file (overrides the other flags)")
	cmd.Flags().String("format", "table", "Output format (table|json|csv)")
	return cmd
}

func runExtract(cmd *cobra.Command, getConfig ConfigGetter) error {
	req, err := buildRequest(cmd)
	if err != nil {
		return err
	}

	q, err := req.Normalize()
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, getConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, ok := cmdCtx.Catalog.Catalog().Study(q.StudyName); !ok {
		return fmt.Errorf("study %q is not in the catalog", q.StudyName)
	}

	result, err := cmdCtx.Engine.Extract(cmd.Context(), q)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return renderResult(cmd.OutOrStdout(), result, format)
}

// buildRequest assembles the wire request from flags, or reads it from
// --request.
func buildRequest(cmd *cobra.Command) (extract.Request, error) {
	if path, _ := cmd.Flags().GetString("request"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return extract.Request{}, fmt.Errorf("failed to read request file: %w", err)
		}
		var req extract.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return extract.Request{}, fmt.Errorf("invalid request file: %w", err)
		}
		return req, nil
	}

	study, _ := cmd.Flags().GetString("study")
	if study == "" {
		return extract.Request{}, fmt.Errorf("--study is required (or use --request)")
	}
	tables, _ := cmd.Flags().GetStringSlice("tables")
	variables, _ := cmd.Flags().GetStringSlice("variables")
	limit, _ := cmd.Flags().GetInt("limit")

	filterSpecs, _ := cmd.Flags().GetStringArray("filter")
	filters, err := parseFilters(filterSpecs)
	if err != nil {
		return extract.Request{}, err
	}

	return extract.Request{
		StudyName:     study,
		TableNames:    tables,
		VariableNames: variables,
		Filters:       filters,
		Limit:         limit,
	}, nil
}

// parseFilters converts variable:operator:value specs into the wire filter
// map. The value may contain further colons.
func parseFilters(specs []string) (map[string]map[string]any, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[string]map[string]any)
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid filter %q, expected variable:operator:value", spec)
		}
		variable, operator, value := parts[0], parts[1], parts[2]
		if out[variable] == nil {
			out[variable] = make(map[string]any)
		}
		if operator == "in" {
			items := strings.Split(value, ",")
			list := make([]any, len(items))
			for i, item := range items {
				list[i] = item
			}
			out[variable][operator] = list
			continue
		}
		out[variable][operator] = value
	}
	return out, nil
}

func renderResult(w io.Writer, result *extract.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "csv":
		return renderResultCSV(w, result)
	default:
		return renderResultTable(w, result)
	}
}

func renderResultTable(w io.Writer, result *extract.Result) error {
	if result.Count() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	cols := append([]string{"table_name"}, result.Columns...)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range result.Rows {
		r := make(table.Row, len(cols))
		r[0] = row.TableName
		for i, col := range result.Columns {
			r[i+1] = formatValue(row.Data[col])
		}
		t.AppendRow(r)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", result.Count())
	return nil
}

func renderResultCSV(w io.Writer, result *extract.Result) error {
	cw := csv.NewWriter(w)

	header := append([]string{"table_name"}, result.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, row := range result.Rows {
		record[0] = row.TableName
		for i, col := range result.Columns {
			record[i+1] = formatValue(row.Data[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

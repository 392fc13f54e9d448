package api

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/AndriiKulakovskyi/thesaurus/internal/extract"
)

// writeCSV streams the merged result as CSV. The header is table_name
// followed by the requested logical variables; values missing from a row
// (variables another table did not carry) render empty.
func writeCSV(w http.ResponseWriter, result *extract.Result) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", result.StudyName+"_extract.csv"))

	cw := csv.NewWriter(w)

	header := append([]string{"table_name"}, result.Columns...)
	_ = cw.Write(header)

	record := make([]string, len(header))
	for _, row := range result.Rows {
		record[0] = row.TableName
		for i, col := range result.Columns {
			record[i+1] = formatCSVValue(row.Data[col])
		}
		_ = cw.Write(record)
	}
	cw.Flush()
}

func formatCSVValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

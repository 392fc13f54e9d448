package extract

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrNoTables is returned when a request names no tables in either shape.
var ErrNoTables = errors.New("either table_names or tables_with_variables must be provided")

// TableRequest is the advanced wire form: one table with its own variables
// and filters.
type TableRequest struct {
	TableName     string                    `json:"table_name"`
	VariableNames []string                  `json:"variable_names"`
	Filters       map[string]map[string]any `json:"filters,omitempty"`
}

// Request is the wire form of an extraction query. Two shapes are accepted:
// a simple form (table_names plus shared variable_names and filters) and an
// advanced form (tables_with_variables, each entry carrying its own variable
// list and filters). Both normalize to the same Query before reaching the
// engine; when both are present the advanced form wins.
type Request struct {
	StudyName string `json:"study_name"`

	// Simple form
	TableNames    []string                  `json:"table_names,omitempty"`
	VariableNames []string                  `json:"variable_names,omitempty"`
	Filters       map[string]map[string]any `json:"filters,omitempty"`

	// Advanced form
	TablesWithVariables []TableRequest `json:"tables_with_variables,omitempty"`

	Limit int `json:"limit,omitempty"`
}

// Normalize converts the wire request into the internal Query model.
func (r Request) Normalize() (Query, error) {
	q := Query{StudyName: r.StudyName, Limit: r.Limit}

	switch {
	case len(r.TablesWithVariables) > 0:
		for _, t := range r.TablesWithVariables {
			q.Selections = append(q.Selections, Selection{
				TableName: t.TableName,
				Variables: t.VariableNames,
				Filters:   normalizeFilters(t.Filters),
			})
		}
	case len(r.TableNames) > 0:
		shared := normalizeFilters(r.Filters)
		for _, name := range r.TableNames {
			q.Selections = append(q.Selections, Selection{
				TableName: name,
				Variables: r.VariableNames,
				Filters:   shared,
			})
		}
	default:
		return Query{}, ErrNoTables
	}

	return q, nil
}

// normalizeFilters converts the wire filter map (variable -> operator ->
// value) into Filters over string operands. Operators are emitted in sorted
// order so the resulting SQL is deterministic.
func normalizeFilters(wire map[string]map[string]any) Filters {
	if len(wire) == 0 {
		return nil
	}
	out := make(Filters, len(wire))
	for variable, ops := range wire {
		names := make([]string, 0, len(ops))
		for op := range ops {
			names = append(names, op)
		}
		sort.Strings(names)

		exprs := make([]FilterExpression, 0, len(names))
		for _, op := range names {
			exprs = append(exprs, FilterExpression{
				Operator: Operator(op),
				Operands: operandStrings(ops[op]),
			})
		}
		out[variable] = exprs
	}
	return out
}

// operandStrings flattens a wire operand value into string operands.
func operandStrings(v any) []string {
	if list, ok := v.([]any); ok {
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, operandString(item))
		}
		return out
	}
	return []string{operandString(v)}
}

func operandString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		// JSON numbers decode as float64; render 30.0 as "30"
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

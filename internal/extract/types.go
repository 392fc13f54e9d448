// Package extract implements the extraction query resolution engine: it
// turns a researcher's logical variable selection into executable SQL
// against the physical study database, absorbing per-table failures along
// the way.
//
// Logical names come from the human-authored study descriptors and may not
// match the physical column names exactly; see Resolver for the matching
// cascade.
package extract

// Operator is a filter comparison operator. The set is closed: anything else
// is dropped as unsupported.
type Operator string

const (
	OpEq    Operator = "eq"
	OpGt    Operator = "gt"
	OpLt    Operator = "lt"
	OpGte   Operator = "gte"
	OpLte   Operator = "lte"
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
	OpIn    Operator = "in"
	OpNot   Operator = "not"
	OpIs    Operator = "is"
)

// FilterExpression is one operator applied to untyped string operands, as
// received from the client. Coercion into a typed SQL predicate happens
// exactly once, at the boundary between logical filter and physical SQL.
type FilterExpression struct {
	Operator Operator
	Operands []string
}

// Filters maps a logical variable name to the filter expressions applied to
// it. Multiple expressions on one variable are AND-ed.
type Filters map[string][]FilterExpression

// Selection requests a set of logical variables, with optional filters, from
// one table.
type Selection struct {
	TableName string
	Variables []string
	Filters   Filters
}

// Query is a normalized extraction request: the study, the per-table
// selections in the order the researcher listed them, and an optional global
// row limit across the merged result.
type Query struct {
	StudyName  string
	Selections []Selection
	Limit      int // 0 means no limit
}

// Row is one output record: resolved logical variable name to scalar value,
// tagged with the physical table that produced it.
type Row struct {
	TableName string         `json:"table_name"`
	Data      map[string]any `json:"data"`
}

// Result is the ordered, merged output of an extraction. An empty Result is
// a valid terminal state ("no data found"), not an error.
type Result struct {
	StudyName string   `json:"study_name"`
	Columns   []string `json:"columns"` // logical variable names in first-appearance order
	Rows      []Row    `json:"rows"`
}

// Count returns the number of merged rows.
func (r *Result) Count() int {
	return len(r.Rows)
}

package extract

// outcomeStatus tags the result of one per-table attempt.
type outcomeStatus int

const (
	outcomeOK outcomeStatus = iota
	outcomeSkipped
	outcomeFailed
)

// tableOutcome is the tagged result of one per-table attempt. Collecting
// outcomes before merging keeps the skip/fail policy a pure data
// transformation, testable without a database.
type tableOutcome struct {
	status outcomeStatus
	table  string
	rows   []Row
	reason string
	err    error
}

// collectPartials extracts the row lists of successful outcomes, preserving
// input order. Skipped and failed tables contribute nothing.
func collectPartials(outcomes []tableOutcome) [][]Row {
	partials := make([][]Row, 0, len(outcomes))
	for _, o := range outcomes {
		if o.status == outcomeOK {
			partials = append(partials, o.rows)
		}
	}
	return partials
}

// Merge concatenates per-table partial results in input order and applies
// the global row limit across the merged sequence. It is the single point
// where the final result shape is fixed.
func Merge(partials [][]Row, limit int) *Result {
	total := 0
	for _, p := range partials {
		total += len(p)
	}

	rows := make([]Row, 0, total)
	for _, p := range partials {
		rows = append(rows, p...)
		if limit > 0 && len(rows) >= limit {
			rows = rows[:limit]
			break
		}
	}
	return &Result{Rows: rows}
}

package extract

import (
	"log/slog"
	"strings"
)

// DefaultFuzzyThreshold is the minimum normalized similarity a fuzzy
// candidate must reach to be accepted. Tunable via configuration; validated
// against the descriptor corpus rather than derived from first principles.
const DefaultFuzzyThreshold = 0.8

// NameMatcher is a single column-name resolution strategy. Implementations
// are pure: the same inputs always produce the same output.
type NameMatcher interface {
	// Name identifies the strategy in logs.
	Name() string
	// Match returns the physical column matched for the logical name, if any.
	Match(logical string, physical []string) (string, bool)
}

// Resolver maps logical variable names to physical column names using an
// ordered chain of matching strategies, highest confidence first. The first
// strategy that matches wins; if none does, the name is a miss, not an
// error.
type Resolver struct {
	matchers []NameMatcher
	logger   *slog.Logger
}

// NewResolver creates a resolver with the standard strategy chain: exact,
// case-insensitive, affix, fuzzy. A threshold of zero or less selects
// DefaultFuzzyThreshold.
func NewResolver(threshold float64, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &Resolver{
		matchers: []NameMatcher{
			exactMatcher{},
			foldMatcher{},
			affixMatcher{},
			fuzzyMatcher{threshold: threshold},
		},
		logger: logger,
	}
}

// Resolve maps a logical variable name to exactly one physical column name,
// or reports a miss. An empty physical set always misses.
func (r *Resolver) Resolve(logical string, physical []string) (string, bool) {
	if len(physical) == 0 {
		return "", false
	}
	for _, m := range r.matchers {
		if name, ok := m.Match(logical, physical); ok {
			if name != logical {
				r.logger.Debug("resolved column",
					"logical", logical, "physical", name, "strategy", m.Name())
			}
			return name, true
		}
	}
	return "", false
}

// exactMatcher matches on case-sensitive equality.
type exactMatcher struct{}

func (exactMatcher) Name() string { return "exact" }

func (exactMatcher) Match(logical string, physical []string) (string, bool) {
	for _, p := range physical {
		if p == logical {
			return p, true
		}
	}
	return "", false
}

// foldMatcher matches on equality ignoring case.
type foldMatcher struct{}

func (foldMatcher) Name() string { return "case-insensitive" }

func (foldMatcher) Match(logical string, physical []string) (string, bool) {
	for _, p := range physical {
		if strings.EqualFold(p, logical) {
			return p, true
		}
	}
	return "", false
}

// affixMatcher matches when the physical name ends with _<logical>, or the
// logical name is a prefix or suffix of the physical name. This handles the
// common descriptor pattern where a shared identifier like "usubjid" appears
// physically as "usubjid_soin_suivi_hosp_arret_travail".
type affixMatcher struct{}

func (affixMatcher) Name() string { return "affix" }

func (affixMatcher) Match(logical string, physical []string) (string, bool) {
	l := strings.ToLower(logical)
	for _, p := range physical {
		pl := strings.ToLower(p)
		if strings.HasSuffix(pl, "_"+l) || strings.HasPrefix(pl, l) || strings.HasSuffix(pl, l) {
			return p, true
		}
	}
	return "", false
}

// fuzzyMatcher accepts the best-scoring candidate by normalized Levenshtein
// similarity, if it clears the threshold. Ties are broken by shortest
// physical name, then lexicographically, so resolution is deterministic.
type fuzzyMatcher struct {
	threshold float64
}

func (fuzzyMatcher) Name() string { return "fuzzy" }

func (m fuzzyMatcher) Match(logical string, physical []string) (string, bool) {
	var (
		best      string
		bestScore float64
	)
	for _, p := range physical {
		score := similarity(logical, p)
		switch {
		case score < m.threshold || score < bestScore:
			continue
		case score > bestScore:
			best, bestScore = p, score
		case len(p) < len(best) || (len(p) == len(best) && p < best):
			best = p
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// similarity is the normalized edit-distance similarity between two names,
// case-insensitive, on a 0-1 scale.
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	// Create distance matrix
	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}

package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/AndriiKulakovskyi/thesaurus/internal/schema"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/dialect"
)

// ErrUnsupported reports a filter that cannot be safely expressed in SQL for
// the target column. Callers drop the filter with a warning; it is never a
// hard error.
var ErrUnsupported = errors.New("unsupported filter")

// Predicate is one SQL condition with its bind arguments.
type Predicate struct {
	SQL  string
	Args []any
}

// numericOperand matches operands that look like numbers, including the
// numeric strings clinical exports store in text columns.
var numericOperand = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// isTextualType reports whether a physical column type is textual. Matches
// the varchar/char/text family across the supported dialects.
func isTextualType(colType string) bool {
	t := strings.ToLower(colType)
	return strings.Contains(t, "char") || strings.Contains(t, "text") || strings.Contains(t, "string")
}

// Coercer translates logical filter expressions into SQL predicates for one
// dialect. It assumes the target column has already been resolved; filters
// on unresolved columns are dropped upstream and never reach coercion.
type Coercer struct {
	dialect *dialect.Dialect
}

// NewCoercer creates a coercer for the given dialect.
func NewCoercer(d *dialect.Dialect) *Coercer {
	return &Coercer{dialect: d}
}

// Coerce builds the predicate for one filter expression against a resolved
// physical column. next is the 1-based position of the first placeholder the
// predicate may use; the returned position accounts for the placeholders
// consumed.
func (c *Coercer) Coerce(col schema.Column, f FilterExpression, next int) (Predicate, int, error) {
	quoted := c.dialect.QuoteIdent(col.Name)

	switch f.Operator {
	case OpEq:
		operand, err := singleOperand(f)
		if err != nil {
			return Predicate{}, next, err
		}
		return Predicate{
			SQL:  fmt.Sprintf("%s = %s", quoted, c.dialect.FormatPlaceholder(next)),
			Args: []any{bindValue(col, operand)},
		}, next + 1, nil

	case OpGt, OpLt, OpGte, OpLte:
		return c.coerceOrdered(col, quoted, f, next)

	case OpLike:
		operand, err := singleOperand(f)
		if err != nil {
			return Predicate{}, next, err
		}
		return Predicate{
			SQL:  fmt.Sprintf("%s LIKE %s", quoted, c.dialect.FormatPlaceholder(next)),
			Args: []any{operand},
		}, next + 1, nil

	case OpILike:
		operand, err := singleOperand(f)
		if err != nil {
			return Predicate{}, next, err
		}
		ph := c.dialect.FormatPlaceholder(next)
		if c.dialect.SupportsILike {
			return Predicate{SQL: fmt.Sprintf("%s ILIKE %s", quoted, ph), Args: []any{operand}}, next + 1, nil
		}
		return Predicate{
			SQL:  fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", quoted, ph),
			Args: []any{operand},
		}, next + 1, nil

	case OpIn:
		if len(f.Operands) == 0 {
			return Predicate{}, next, fmt.Errorf("%w: in requires at least one operand", ErrUnsupported)
		}
		placeholders := make([]string, len(f.Operands))
		args := make([]any, len(f.Operands))
		for i, operand := range f.Operands {
			placeholders[i] = c.dialect.FormatPlaceholder(next + i)
			args[i] = bindValue(col, operand)
		}
		return Predicate{
			SQL:  fmt.Sprintf("%s IN (%s)", quoted, strings.Join(placeholders, ", ")),
			Args: args,
		}, next + len(f.Operands), nil

	case OpNot:
		operand, err := singleOperand(f)
		if err != nil {
			return Predicate{}, next, err
		}
		if strings.EqualFold(operand, "null") {
			return Predicate{SQL: quoted + " IS NOT NULL"}, next, nil
		}
		return Predicate{
			SQL:  fmt.Sprintf("%s != %s", quoted, c.dialect.FormatPlaceholder(next)),
			Args: []any{bindValue(col, operand)},
		}, next + 1, nil

	case OpIs:
		operand, err := singleOperand(f)
		if err != nil {
			return Predicate{}, next, err
		}
		switch strings.ToLower(operand) {
		case "null":
			return Predicate{SQL: quoted + " IS NULL"}, next, nil
		case "true":
			return Predicate{SQL: quoted + " IS TRUE"}, next, nil
		case "false":
			return Predicate{SQL: quoted + " IS FALSE"}, next, nil
		default:
			return Predicate{}, next, fmt.Errorf("%w: is accepts null, true or false, got %q", ErrUnsupported, operand)
		}

	default:
		return Predicate{}, next, fmt.Errorf("%w: unknown operator %q", ErrUnsupported, f.Operator)
	}
}

// coerceOrdered handles gt/lt/gte/lte. When the column is textual but the
// operand is numeric, the column expression is cast to NUMERIC and guarded
// so non-numeric sentinel values ("Ne sais pas") are excluded from the
// comparison instead of raising a cast error.
func (c *Coercer) coerceOrdered(col schema.Column, quoted string, f FilterExpression, next int) (Predicate, int, error) {
	operand, err := singleOperand(f)
	if err != nil {
		return Predicate{}, next, err
	}

	op := map[Operator]string{OpGt: ">", OpLt: "<", OpGte: ">=", OpLte: "<="}[f.Operator]
	ph := c.dialect.FormatPlaceholder(next)

	if isTextualType(col.Type) && numericOperand.MatchString(operand) {
		return Predicate{
			SQL: fmt.Sprintf("(%s AND CAST(%s AS NUMERIC) %s %s)",
				c.dialect.NumericGuard(quoted), quoted, op, ph),
			Args: []any{numericValue(operand)},
		}, next + 1, nil
	}

	return Predicate{
		SQL:  fmt.Sprintf("%s %s %s", quoted, op, ph),
		Args: []any{bindValue(col, operand)},
	}, next + 1, nil
}

// singleOperand enforces exactly one operand for the non-membership
// operators.
func singleOperand(f FilterExpression) (string, error) {
	if len(f.Operands) != 1 {
		return "", fmt.Errorf("%w: %s requires exactly one operand, got %d", ErrUnsupported, f.Operator, len(f.Operands))
	}
	return f.Operands[0], nil
}

// bindValue picks the bind argument for an operand: numeric operands bound
// against non-textual columns go over as numbers so drivers do not have to
// guess parameter types.
func bindValue(col schema.Column, operand string) any {
	if !isTextualType(col.Type) && numericOperand.MatchString(operand) {
		return numericValue(operand)
	}
	return operand
}

func numericValue(operand string) any {
	if i, err := strconv.ParseInt(operand, 10, 64); err == nil {
		return i
	}
	f, _ := strconv.ParseFloat(operand, 64)
	return f
}

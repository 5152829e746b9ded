package nodes

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// comparisons maps operator names to templates. "@" is replaced by the
// quoted column and each "?" takes one value.
var comparisons = map[string]string{
	"is_null":     "IS NULL",
	"is_not_null": "IS NOT NULL",
	"eq":          "= ?",
	"ne":          "!= ?",
	"lt":          "< ?",
	"gt":          "> ?",
	"le":          "<= ?",
	"ge":          ">= ?",
	"like":        "LIKE ?",
	"between":     "BETWEEN ? AND ?",
	"not_between": "NOT BETWEEN ? AND ?",
	"not":         "NOT @",
}

// compileTemplate returns expr with a column marker and the number of
// values it takes. A template without "@" gets "@ " prepended.
func compileTemplate(expr string) (string, int) {
	if !strings.Contains(expr, "@") {
		expr = "@ " + expr
	}
	return expr, strings.Count(expr, "?")
}

// Compare builds the comparison registered under name. args holds the
// operator's values, optionally preceded by the column:
//
//	Compare("between", 1, 2)        // bind the column later
//	Compare("between", "age", 1, 2) // `age` BETWEEN ? AND ?
//
// Any other argument count is ErrArityMismatch.
func Compare(name string, args ...any) *Node {
	tmpl, ok := comparisons[name]
	if !ok {
		return errNode(fmt.Errorf("%w: unknown operator %q", ErrMalformedOperand, name))
	}
	template, arity := compileTemplate(tmpl)

	var column string
	switch len(args) {
	case arity:
	case arity + 1:
		col, ok := args[0].(string)
		if !ok {
			return errNode(fmt.Errorf("%w: %s: column must be a string, got %T", ErrMalformedOperand, name, args[0]))
		}
		column, args = col, args[1:]
	default:
		return errNode(fmt.Errorf("%w: %s expects %d parameters, but got %d", ErrArityMismatch, name, arity, len(args)))
	}
	return comparison(column, template, args)
}

// Operators returns the registered comparison names, sorted.
func Operators() []string {
	return slices.Sorted(maps.Keys(comparisons))
}

func comparison(column, template string, binds []any) *Node {
	if err := checkBinds(binds); err != nil {
		return errNode(err)
	}
	return &Node{kind: KindComparison, column: column, template: template, binds: binds}
}

// Op builds a comparison from a free-form template. "@" marks the column
// ("@ " is prepended when absent) and the number of "?" must match binds:
//
//	Op("MATCH (@) AGAINST (?)", "oranges").On("apples")
func Op(expr string, binds ...any) *Node {
	template, arity := compileTemplate(expr)
	if arity != len(binds) {
		return errNode(fmt.Errorf("%w: the operator expects %d binds but got %d", ErrArityMismatch, arity, len(binds)))
	}
	return comparison("", template, binds)
}

// IsNull builds "col IS NULL". Pass the column or bind it later.
func IsNull(args ...any) *Node { return Compare("is_null", args...) }

// IsNotNull builds "col IS NOT NULL".
func IsNotNull(args ...any) *Node { return Compare("is_not_null", args...) }

// Eq builds "col = ?".
func Eq(args ...any) *Node { return Compare("eq", args...) }

// Ne builds "col != ?".
func Ne(args ...any) *Node { return Compare("ne", args...) }

// Lt builds "col < ?".
func Lt(args ...any) *Node { return Compare("lt", args...) }

// Gt builds "col > ?".
func Gt(args ...any) *Node { return Compare("gt", args...) }

// Le builds "col <= ?".
func Le(args ...any) *Node { return Compare("le", args...) }

// Ge builds "col >= ?".
func Ge(args ...any) *Node { return Compare("ge", args...) }

// Like builds "col LIKE ?".
func Like(args ...any) *Node { return Compare("like", args...) }

// Between builds "col BETWEEN ? AND ?".
func Between(args ...any) *Node { return Compare("between", args...) }

// NotBetween builds "col NOT BETWEEN ? AND ?".
func NotBetween(args ...any) *Node { return Compare("not_between", args...) }

// Not builds "NOT col".
func Not(args ...any) *Node { return Compare("not", args...) }

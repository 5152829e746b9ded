package nodes

import (
	"fmt"
	"strings"
)

// And joins terms with AND. Each term renders in parentheses; an empty
// group renders "0=1".
func And(terms ...*Node) *Node { return logical("AND", "", terms) }

// Or joins terms with OR; an empty group renders "1=1".
func Or(terms ...*Node) *Node { return logical("OR", "", terms) }

// AndOn ANDs values against one column. Values that are not nodes
// become equality tests:
//
//	AndOn("size", Gt(3), Lt(10)) // (`size` > ?) AND (`size` < ?)
func AndOn(column string, values ...any) *Node { return logicalOn("AND", column, values) }

// OrOn ORs values against one column.
func OrOn(column string, values ...any) *Node { return logicalOn("OR", column, values) }

// AndPairs ANDs one term per pair. A node value gets the pair's column
// bound; any other value becomes an equality test.
//
//	AndPairs(KV("foo", 1, "bar", Eq(2))) // (`foo` = ?) AND (`bar` = ?)
func AndPairs(pairs Pairs) *Node { return logicalPairs("AND", pairs) }

// OrPairs ORs one term per pair.
func OrPairs(pairs Pairs) *Node { return logicalPairs("OR", pairs) }

func logical(op, column string, terms []*Node) *Node {
	var binds []any
	for i, t := range terms {
		if t == nil {
			return errNode(fmt.Errorf("%w: %s term %d is nil", ErrMalformedOperand, op, i))
		}
		if t.err != nil {
			return errNode(t.err)
		}
		binds = append(binds, t.binds...)
	}
	return &Node{kind: KindLogical, op: op, column: column, children: terms, binds: binds}
}

func logicalOn(op, column string, values []any) *Node {
	terms := make([]*Node, len(values))
	for i, v := range values {
		if n, ok := v.(*Node); ok {
			terms[i] = n
			continue
		}
		terms[i] = Eq(v)
	}
	return logical(op, column, terms)
}

func logicalPairs(op string, pairs Pairs) *Node {
	terms := make([]*Node, len(pairs))
	for i, p := range pairs {
		if n, ok := p.Value.(*Node); ok {
			terms[i] = n.On(p.Column)
			continue
		}
		terms[i] = Eq(p.Column, p.Value)
	}
	return logical(op, "", terms)
}

func (n *Node) logicalSQL(column string, quote QuoteFunc) (string, error) {
	if len(n.children) == 0 {
		if n.op == "AND" {
			return "0=1", nil
		}
		return "1=1", nil
	}
	parts := make([]string, len(n.children))
	for i, c := range n.children {
		s, err := c.AsSQL(column, quote)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + s + ")"
	}
	return strings.Join(parts, " "+n.op+" "), nil
}

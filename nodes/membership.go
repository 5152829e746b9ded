package nodes

import (
	"fmt"
	"strings"
)

// In builds "col IN (?,?)". Members are scalars, nodes or sub-queries;
// an empty list renders "0=1". The column is bound with On or by the
// enclosing condition.
func In(values ...any) *Node { return membership("IN", values) }

// NotIn builds "col NOT IN (...)"; an empty list renders "1=1".
func NotIn(values ...any) *Node { return membership("NOT IN", values) }

func membership(op string, members []any) *Node {
	var binds []any
	for _, m := range members {
		switch x := m.(type) {
		case *Node:
			if x.err != nil {
				return errNode(x.err)
			}
			binds = append(binds, x.binds...)
		case Statement:
			binds = append(binds, x.Bind()...)
		default:
			if isCollection(m) {
				return errNode(fmt.Errorf("%w: cannot bind an array or an hash (%T)", ErrInvalidBind, m))
			}
			binds = append(binds, m)
		}
	}
	return &Node{kind: KindMembership, op: op, members: members, binds: binds}
}

func (n *Node) membershipSQL(column string, quote QuoteFunc) (string, error) {
	if column == "" {
		return "", fmt.Errorf("%w for %s", ErrNoColumn, n.op)
	}
	if len(n.members) == 0 {
		if n.op == "IN" {
			return "0=1", nil
		}
		return "1=1", nil
	}
	terms := make([]string, len(n.members))
	for i, m := range n.members {
		switch x := m.(type) {
		case *Node:
			s, err := x.AsSQL("", quote)
			if err != nil {
				return "", err
			}
			if s != "?" {
				s = "(" + s + ")"
			}
			terms[i] = s
		case Statement:
			s, err := x.AsSQL()
			if err != nil {
				return "", err
			}
			terms[i] = "(" + s + ")"
		default:
			terms[i] = "?"
		}
	}
	return quote(column) + " " + n.op + " (" + strings.Join(terms, ",") + ")", nil
}

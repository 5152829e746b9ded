package nodes

import (
	"fmt"
	"reflect"
	"strings"
)

// Operand is the value side of a condition term. The implementations
// form a closed set: Scalar, Cmp, Range, InList, InQuery, Group and
// *Node.
type Operand interface {
	isOperand()
}

// Scalar compares for equality; a nil V tests IS NULL.
type Scalar struct{ V any }

// Cmp renders "col OP ?" with Op upper-cased.
type Cmp struct {
	Op string
	V  any
}

// Range renders "col BETWEEN ? AND ?", or NOT BETWEEN when Not is set.
type Range struct {
	Not       bool
	Low, High any
}

// InList renders "col IN (?, ?)". An empty list renders "0=1", or "1=1"
// when Not is set.
type InList struct {
	Not    bool
	Values []any
}

// InQuery renders "col IN (sub-query)".
type InQuery struct {
	Not   bool
	Query Statement
}

// Group joins its terms, each rendered against the same column, with
// Op ("AND" or "OR").
type Group struct {
	Op    string
	Terms []Operand
}

func (Scalar) isOperand()  {}
func (Cmp) isOperand()     {}
func (Range) isOperand()   {}
func (InList) isOperand()  {}
func (InQuery) isOperand() {}
func (Group) isOperand()   {}

// ParseOperand converts a plain Go value into an Operand:
//
//	nil, scalars                 Scalar
//	[]any{1, 2}                  InList
//	[]any{map{">": 1}, ...}      Group OR over each mapping
//	map{"op": v}                 Cmp, or Range/InList/InQuery/Group for
//	                             BETWEEN, IN, NOT IN, AND and OR
//
// Operands, including *Node, are returned unchanged.
func ParseOperand(v any) (Operand, error) {
	switch x := v.(type) {
	case nil:
		return Scalar{}, nil
	case Operand:
		return x, nil
	case map[string]any:
		return parseMapping(x)
	}

	if items, ok := asList(v); ok {
		if len(items) > 0 && isMapping(items[0]) {
			terms := make([]Operand, len(items))
			for i, it := range items {
				op, err := ParseOperand(it)
				if err != nil {
					return nil, err
				}
				terms[i] = op
			}
			return Group{Op: "OR", Terms: terms}, nil
		}
		return InList{Values: items}, nil
	}
	if isMapping(v) {
		m, err := asMapping(v)
		if err != nil {
			return nil, err
		}
		return parseMapping(m)
	}
	return Scalar{V: v}, nil
}

func parseMapping(m map[string]any) (Operand, error) {
	if len(m) != 1 {
		return nil, fmt.Errorf("%w: operator mapping needs exactly one entry, got %d", ErrMalformedOperand, len(m))
	}
	var key string
	var val any
	for key, val = range m {
	}
	op := strings.ToUpper(strings.TrimSpace(key))

	switch op {
	case "AND", "OR":
		items, ok := asList(val)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a list", ErrMalformedOperand, op)
		}
		terms := make([]Operand, len(items))
		for i, it := range items {
			t, err := ParseOperand(it)
			if err != nil {
				return nil, err
			}
			terms[i] = t
		}
		return Group{Op: op, Terms: terms}, nil
	case "IN", "NOT IN":
		not := op == "NOT IN"
		switch q := val.(type) {
		case Statement:
			return InQuery{Not: not, Query: q}, nil
		case *Node:
			return InQuery{Not: not, Query: nodeQuery{q}}, nil
		}
		if items, ok := asList(val); ok {
			return InList{Not: not, Values: items}, nil
		}
		return InList{Not: not, Values: []any{val}}, nil
	case "BETWEEN", "NOT BETWEEN":
		items, ok := asList(val)
		if !ok || len(items) != 2 {
			return nil, fmt.Errorf("%w: %s expects two values", ErrMalformedOperand, op)
		}
		return Range{Not: op == "NOT BETWEEN", Low: items[0], High: items[1]}, nil
	}
	return Cmp{Op: op, V: val}, nil
}

// asList returns v's elements when v is a slice or array other than
// []byte or a driver value.
func asList(v any) ([]any, bool) {
	if v == nil || !isCollection(v) {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func isMapping(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Map
}

func asMapping(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%w: operator mapping keys must be strings, got %s", ErrMalformedOperand, rv.Type().Key())
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, nil
}

// nodeQuery lets a raw node stand in for a sub-query.
type nodeQuery struct{ n *Node }

func (q nodeQuery) AsSQL() (string, error) { return q.n.AsSQL("", nil) }
func (q nodeQuery) Bind() []any            { return q.n.Bind() }

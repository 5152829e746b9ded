// Package nodes defines expression nodes: column comparisons, raw
// fragments, logical groups and IN tests that render to SQL text plus an
// ordered list of bind values.
package nodes

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/bawdo/sqlmaker/internal/quoting"
)

// QuoteFunc quotes an identifier for the target dialect.
type QuoteFunc func(label string) string

// DefaultQuote is used when no QuoteFunc is supplied: every dot-separated
// part is wrapped in backticks.
func DefaultQuote(label string) string {
	return quoting.Identifier(label, "`", ".")
}

// Statement is a complete statement usable as a sub-query.
type Statement interface {
	AsSQL() (string, error)
	Bind() []any
}

// Kind identifies the variant a Node holds.
type Kind int

const (
	KindComparison Kind = iota
	KindRaw
	KindLogical
	KindMembership
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindComparison:
		return "comparison"
	case KindRaw:
		return "raw"
	case KindLogical:
		return "logical"
	case KindMembership:
		return "membership"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a compiled expression. Its bind values are fixed when it is
// built; the column may be bound later, once. A Node built from invalid
// input carries the error and reports it from AsSQL and Err.
type Node struct {
	kind     Kind
	column   string
	template string // comparison, "@" marks the column
	sql      string // raw
	op       string // logical AND/OR, membership IN/NOT IN
	children []*Node
	members  []any // scalars, *Node or Statement
	binds    []any
	err      error
}

func (*Node) isOperand() {}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Column returns the bound column, or "" when none is bound.
func (n *Node) Column() string { return n.column }

// Err returns the construction error, if any.
func (n *Node) Err() error { return n.err }

// Bind returns the node's bind values in placeholder order.
func (n *Node) Bind() []any { return slices.Clone(n.binds) }

// BindColumn binds column onto the node. Binding the column the node
// already carries is a no-op; a different one is ErrRebindConflict.
func (n *Node) BindColumn(column string) error {
	if column == "" {
		return nil
	}
	if n.column != "" && n.column != column {
		return fmt.Errorf("%w: cannot rebind column for `%s` to: `%s`", ErrRebindConflict, n.column, column)
	}
	n.column = column
	return nil
}

// On returns a copy of the node with column bound.
func (n *Node) On(column string) *Node {
	c := *n
	if c.err == nil {
		c.err = c.BindColumn(column)
	}
	return &c
}

// AsSQL renders the node. column, when not empty, is bound for this
// rendering only; quote defaults to DefaultQuote.
func (n *Node) AsSQL(column string, quote QuoteFunc) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	col := n.column
	if column != "" {
		if col != "" && col != column {
			return "", fmt.Errorf("%w: cannot rebind column for `%s` to: `%s`", ErrRebindConflict, col, column)
		}
		col = column
	}
	if quote == nil {
		quote = DefaultQuote
	}

	switch n.kind {
	case KindRaw:
		return n.sql, nil
	case KindComparison:
		if col == "" {
			return "", fmt.Errorf("%w for %s", ErrNoColumn, strings.TrimSpace(strings.ReplaceAll(n.template, "@", "")))
		}
		return strings.ReplaceAll(n.template, "@", quote(col)), nil
	case KindLogical:
		return n.logicalSQL(col, quote)
	case KindMembership:
		return n.membershipSQL(col, quote)
	}
	return "", fmt.Errorf("%w: unknown node kind %s", ErrMalformedOperand, n.kind)
}

// Raw builds a fragment rendered verbatim, with no column.
func Raw(sql string, binds ...any) *Node {
	if err := checkBinds(binds); err != nil {
		return errNode(err)
	}
	return &Node{kind: KindRaw, sql: sql, binds: binds}
}

func errNode(err error) *Node {
	return &Node{kind: KindRaw, err: err}
}

// checkBinds rejects sequences and mappings in bind slots.
func checkBinds(binds []any) error {
	for _, b := range binds {
		if isCollection(b) {
			return fmt.Errorf("%w: cannot bind an array or an hash (%T)", ErrInvalidBind, b)
		}
	}
	return nil
}

func isCollection(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case []byte, driver.Valuer:
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

// ValidateBind reports ErrInvalidBind when v is a sequence or mapping.
func ValidateBind(v any) error {
	return checkBinds([]any{v})
}

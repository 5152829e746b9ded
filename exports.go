package sqlmaker

import (
	"github.com/bawdo/sqlmaker/managers"
	"github.com/bawdo/sqlmaker/nodes"
	"github.com/bawdo/sqlmaker/plugins"
)

// --- Builder Types ---

// Condition builds a WHERE or HAVING clause.
type Condition = managers.Condition

// SelectManager provides a fluent API for building SELECT queries.
type SelectManager = managers.SelectManager

// SelectSet combines statements with UNION, INTERSECT or EXCEPT.
type SelectSet = managers.SelectSet

// InsertManager provides a fluent API for building INSERT queries.
type InsertManager = managers.InsertManager

// UpdateManager provides a fluent API for building UPDATE queries.
type UpdateManager = managers.UpdateManager

// DeleteManager provides a fluent API for building DELETE queries.
type DeleteManager = managers.DeleteManager

// Field is a select-list term with an optional alias.
type Field = managers.Field

// Order is an ORDER BY or GROUP BY entry.
type Order = managers.Order

// Join describes one joined table.
type Join = managers.Join

// IndexHint is a MySQL index hint rendered after a table.
type IndexHint = managers.IndexHint

// Transformer rewrites statements before they are rendered.
type Transformer = plugins.Transformer

// --- Node Types ---

// Node is a column-agnostic condition expression.
type Node = nodes.Node

// Statement is anything that renders to SQL with binds, such as a
// SelectManager used as a sub-query.
type Statement = nodes.Statement

// Pair and Pairs are ordered column/value mappings.
type (
	Pair  = nodes.Pair
	Pairs = nodes.Pairs
)

// --- Errors ---

// Error kinds, re-exported from nodes for errors.Is checks.
var (
	ErrArityMismatch    = nodes.ErrArityMismatch
	ErrStrictMode       = nodes.ErrStrictMode
	ErrMalformedOperand = nodes.ErrMalformedOperand
	ErrRebindConflict   = nodes.ErrRebindConflict
	ErrInvalidBind      = nodes.ErrInvalidBind
	ErrConfiguration    = nodes.ErrConfiguration
	ErrNoColumn         = nodes.ErrNoColumn
)

// --- Pairs and Fields ---

// KV builds Pairs from alternating columns and values. It panics on an
// odd argument count or a non-string column; see ParseKV.
func KV(kv ...any) Pairs { return nodes.KV(kv...) }

// ParseKV is KV for dynamic input: it returns ErrMalformedOperand
// instead of panicking.
func ParseKV(kv ...any) (Pairs, error) { return nodes.ParseKV(kv...) }

// As aliases a select term: As("foo.id", "foo_id").
func As(term any, alias string) Field { return managers.As(term, alias) }

// --- Node Constructors ---

// Raw is a SQL fragment used verbatim.
func Raw(sql string, binds ...any) *Node { return nodes.Raw(sql, binds...) }

// Op is a free-form expression; "@" is replaced by the quoted column.
func Op(expr string, binds ...any) *Node { return nodes.Op(expr, binds...) }

// Eq builds "col = ?". Pass the column first or let the condition bind it.
func Eq(args ...any) *Node { return nodes.Eq(args...) }

// Ne builds "col != ?".
func Ne(args ...any) *Node { return nodes.Ne(args...) }

// Lt builds "col < ?".
func Lt(args ...any) *Node { return nodes.Lt(args...) }

// Gt builds "col > ?".
func Gt(args ...any) *Node { return nodes.Gt(args...) }

// Le builds "col <= ?".
func Le(args ...any) *Node { return nodes.Le(args...) }

// Ge builds "col >= ?".
func Ge(args ...any) *Node { return nodes.Ge(args...) }

// Like builds "col LIKE ?".
func Like(args ...any) *Node { return nodes.Like(args...) }

// Between builds "col BETWEEN ? AND ?".
func Between(args ...any) *Node { return nodes.Between(args...) }

// NotBetween builds "col NOT BETWEEN ? AND ?".
func NotBetween(args ...any) *Node { return nodes.NotBetween(args...) }

// IsNull builds "col IS NULL".
func IsNull(args ...any) *Node { return nodes.IsNull(args...) }

// IsNotNull builds "col IS NOT NULL".
func IsNotNull(args ...any) *Node { return nodes.IsNotNull(args...) }

// Not builds "NOT col".
func Not(args ...any) *Node { return nodes.Not(args...) }

// In builds "col IN (...)" over scalars, nodes or sub-queries.
func In(values ...any) *Node { return nodes.In(values...) }

// NotIn builds "col NOT IN (...)".
func NotIn(values ...any) *Node { return nodes.NotIn(values...) }

// And joins terms with AND.
func And(terms ...*Node) *Node { return nodes.And(terms...) }

// Or joins terms with OR.
func Or(terms ...*Node) *Node { return nodes.Or(terms...) }

// AndPairs ANDs one term per pair, binding value nodes to the pair's column.
func AndPairs(pairs Pairs) *Node { return nodes.AndPairs(pairs) }

// OrPairs ORs one term per pair.
func OrPairs(pairs Pairs) *Node { return nodes.OrPairs(pairs) }

// BindParam substitutes binds into sql as escaped literals.
func BindParam(sql string, binds []any) (string, error) { return nodes.BindParam(sql, binds) }

// --- Set Operations ---

// Union builds "a UNION b ...".
func Union(stmts ...Statement) (*SelectSet, error) { return managers.Union(stmts...) }

// UnionAll builds "a UNION ALL b ...".
func UnionAll(stmts ...Statement) (*SelectSet, error) { return managers.UnionAll(stmts...) }

// Intersect builds "a INTERSECT b ...".
func Intersect(stmts ...Statement) (*SelectSet, error) { return managers.Intersect(stmts...) }

// IntersectAll builds "a INTERSECT ALL b ...".
func IntersectAll(stmts ...Statement) (*SelectSet, error) { return managers.IntersectAll(stmts...) }

// Except builds "a EXCEPT b ...".
func Except(stmts ...Statement) (*SelectSet, error) { return managers.Except(stmts...) }

// ExceptAll builds "a EXCEPT ALL b ...".
func ExceptAll(stmts ...Statement) (*SelectSet, error) { return managers.ExceptAll(stmts...) }

package managers

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bawdo/sqlmaker/nodes"
)

// SelectSet combines statements with UNION, INTERSECT or EXCEPT (and
// their ALL forms), with an optional trailing ORDER BY. A SelectSet is
// itself a nodes.Statement, so sets nest.
type SelectSet struct {
	treeManager
	operator   nodes.SetOpType
	statements []nodes.Statement
	orderBy    []Order
}

// NewSelectSet creates an empty set for op.
func NewSelectSet(op nodes.SetOpType, opts ...Option) *SelectSet {
	return &SelectSet{treeManager: newTreeManager(opts), operator: op}
}

// Operator returns the set operation.
func (s *SelectSet) Operator() nodes.SetOpType { return s.operator }

// Statements returns the member statements in order.
func (s *SelectSet) Statements() []nodes.Statement { return slices.Clone(s.statements) }

// AddStatement appends a member statement.
func (s *SelectSet) AddStatement(stmt nodes.Statement) *SelectSet {
	if stmt == nil || isNilStatement(stmt) {
		s.fail(fmt.Errorf("%w: statement is nil", nodes.ErrMalformedOperand))
		return s
	}
	s.statements = append(s.statements, stmt)
	return s
}

// AddOrderBy appends a trailing ORDER BY entry. Only column names are
// accepted here.
func (s *SelectSet) AddOrderBy(column string, typ string) *SelectSet {
	s.orderBy = append(s.orderBy, Order{Column: column, Type: typ})
	return s
}

// AsSQL joins the members' SQL with the operator, each operator on its
// own line.
func (s *SelectSet) AsSQL() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if !s.operator.Valid() {
		return "", fmt.Errorf("%w: missing mandatory parameter 'operator'", nodes.ErrConfiguration)
	}
	if len(s.statements) == 0 {
		return "", fmt.Errorf("%w: a select set needs at least one statement", nodes.ErrConfiguration)
	}

	parts := make([]string, len(s.statements))
	for i, st := range s.statements {
		sql, err := st.AsSQL()
		if err != nil {
			return "", err
		}
		parts[i] = sql
	}
	sep := s.newLine + s.operator.String() + s.newLine
	sql := strings.Join(parts, sep)

	if len(s.orderBy) > 0 {
		cols := make([]string, len(s.orderBy))
		for i, o := range s.orderBy {
			col := s.quote(o.Column.(string))
			if o.Type != "" {
				col += " " + o.Type
			}
			cols[i] = col
		}
		sql += " ORDER BY " + strings.Join(cols, ", ")
	}
	return sql, nil
}

// Bind concatenates the members' binds in order.
func (s *SelectSet) Bind() []any {
	var binds []any
	for _, st := range s.statements {
		binds = append(binds, st.Bind()...)
	}
	return binds
}

// ToSQL renders the set and returns it with its binds.
func (s *SelectSet) ToSQL() (string, []any, error) {
	sql, err := s.AsSQL()
	if err != nil {
		return "", nil, err
	}
	return sql, s.Bind(), nil
}

// Union builds "a UNION b ...".
func Union(stmts ...nodes.Statement) (*SelectSet, error) { return newSet(nodes.Union, stmts) }

// UnionAll builds "a UNION ALL b ...".
func UnionAll(stmts ...nodes.Statement) (*SelectSet, error) { return newSet(nodes.UnionAll, stmts) }

// Intersect builds "a INTERSECT b ...".
func Intersect(stmts ...nodes.Statement) (*SelectSet, error) { return newSet(nodes.Intersect, stmts) }

// IntersectAll builds "a INTERSECT ALL b ...".
func IntersectAll(stmts ...nodes.Statement) (*SelectSet, error) {
	return newSet(nodes.IntersectAll, stmts)
}

// Except builds "a EXCEPT b ...".
func Except(stmts ...nodes.Statement) (*SelectSet, error) { return newSet(nodes.Except, stmts) }

// ExceptAll builds "a EXCEPT ALL b ...".
func ExceptAll(stmts ...nodes.Statement) (*SelectSet, error) { return newSet(nodes.ExceptAll, stmts) }

var errNoStatements = errors.New("a select set needs at least one statement")

// newSet takes its settings from the first statement when it exposes
// them.
func newSet(op nodes.SetOpType, stmts []nodes.Statement) (*SelectSet, error) {
	if len(stmts) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", nodes.ErrConfiguration, op, errNoStatements)
	}
	var opts []Option
	if src, ok := stmts[0].(interface{ options() []Option }); ok {
		opts = src.options()
	} else if nl, ok := stmts[0].(interface{ NewLine() string }); ok {
		opts = append(opts, WithNewLine(nl.NewLine()))
	}
	s := NewSelectSet(op, opts...)
	for _, st := range stmts {
		s.AddStatement(st)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s, nil
}

package managers

import (
	"fmt"
	"slices"

	"github.com/bawdo/sqlmaker/nodes"
)

// UpdateManager provides a fluent API for building UPDATE statements.
type UpdateManager struct {
	treeManager
	table string
	sets  nodes.Pairs
	where *Condition
}

// NewUpdateManager creates an UPDATE builder for table.
func NewUpdateManager(table string, opts ...Option) *UpdateManager {
	return &UpdateManager{treeManager: newTreeManager(opts), table: table}
}

// Set appends one assignment. value may be a node, a
// []any{sql, binds...} raw expression or a plain bind value.
func (m *UpdateManager) Set(column string, value any) *UpdateManager {
	m.sets = append(m.sets, nodes.Pair{Column: column, Value: value})
	return m
}

// SetPairs appends assignments in order.
func (m *UpdateManager) SetPairs(pairs nodes.Pairs) *UpdateManager {
	m.sets = append(m.sets, pairs...)
	return m
}

// SetWhere replaces the WHERE condition.
func (m *UpdateManager) SetWhere(c *Condition) *UpdateManager {
	m.where = c
	return m
}

// Where returns the WHERE condition, creating it when absent.
func (m *UpdateManager) Where() *Condition {
	if m.where == nil {
		m.where = NewCondition(m.options()...)
	}
	return m.where
}

// Table returns the target table.
func (m *UpdateManager) Table() string { return m.table }

// ToSQL renders the statement. SET binds precede WHERE binds.
func (m *UpdateManager) ToSQL() (string, []any, error) {
	if m.err != nil {
		return "", nil, m.err
	}
	if len(m.sets) == 0 {
		return "", nil, fmt.Errorf("%w: UPDATE %s has no SET columns", nodes.ErrMalformedOperand, m.table)
	}
	sets, binds, err := m.assignments(m.sets)
	if err != nil {
		return "", nil, err
	}
	w, wb, err := whereClause(m.where)
	if err != nil {
		return "", nil, err
	}
	return "UPDATE " + m.quote(m.table) + " SET " + sets + w, append(slices.Clip(binds), wb...), nil
}

package managers

import "strings"

// DeleteManager provides a fluent API for building DELETE statements.
type DeleteManager struct {
	treeManager
	table string
	using []string
	where *Condition
}

// NewDeleteManager creates a DELETE builder for table.
func NewDeleteManager(table string, opts ...Option) *DeleteManager {
	return &DeleteManager{treeManager: newTreeManager(opts), table: table}
}

// Using adds tables to a USING clause.
func (m *DeleteManager) Using(tables ...string) *DeleteManager {
	m.using = append(m.using, tables...)
	return m
}

// SetWhere replaces the WHERE condition.
func (m *DeleteManager) SetWhere(c *Condition) *DeleteManager {
	m.where = c
	return m
}

// Where returns the WHERE condition, creating it when absent.
func (m *DeleteManager) Where() *Condition {
	if m.where == nil {
		m.where = NewCondition(m.options()...)
	}
	return m.where
}

// Table returns the target table.
func (m *DeleteManager) Table() string { return m.table }

// ToSQL renders the statement. Without a WHERE condition every row is
// deleted.
func (m *DeleteManager) ToSQL() (string, []any, error) {
	if m.err != nil {
		return "", nil, m.err
	}
	sql := "DELETE FROM " + m.quote(m.table)
	if len(m.using) > 0 {
		quoted := make([]string, len(m.using))
		for i, t := range m.using {
			quoted[i] = m.quote(t)
		}
		sql += " USING " + strings.Join(quoted, ", ")
	}
	w, binds, err := whereClause(m.where)
	if err != nil {
		return "", nil, err
	}
	return sql + w, binds, nil
}

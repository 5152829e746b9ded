package managers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bawdo/sqlmaker/nodes"
)

// InsertManager provides a fluent API for building INSERT statements
// with one or more rows.
type InsertManager struct {
	treeManager
	table         string
	prefix        string
	columns       []string
	rows          [][]any
	defaultValues bool
	onDuplicate   nodes.Pairs
}

// NewInsertManager creates an INSERT builder for table.
func NewInsertManager(table string, opts ...Option) *InsertManager {
	return &InsertManager{
		treeManager: newTreeManager(opts),
		table:       table,
		prefix:      "INSERT INTO",
	}
}

// Prefix replaces "INSERT INTO", e.g. with "INSERT IGNORE" or
// "REPLACE INTO".
func (m *InsertManager) Prefix(prefix string) *InsertManager {
	m.prefix = prefix
	return m
}

// Set adds a column and its value to the single row being built.
func (m *InsertManager) Set(column string, value any) *InsertManager {
	if len(m.rows) > 1 {
		m.fail(fmt.Errorf("%w: Set on a multi-row insert", nodes.ErrMalformedOperand))
		return m
	}
	if len(m.rows) == 0 {
		m.rows = append(m.rows, nil)
	}
	m.columns = append(m.columns, column)
	m.rows[0] = append(m.rows[0], value)
	return m
}

// SetPairs calls Set for every pair in order.
func (m *InsertManager) SetPairs(pairs nodes.Pairs) *InsertManager {
	for _, p := range pairs {
		m.Set(p.Column, p.Value)
	}
	return m
}

// Columns sets the column list for Row.
func (m *InsertManager) Columns(cols ...string) *InsertManager {
	m.columns = slices.Clone(cols)
	return m
}

// Row appends one row of values. Its width must match Columns.
func (m *InsertManager) Row(vals ...any) *InsertManager {
	if len(vals) != len(m.columns) {
		m.fail(fmt.Errorf("%w: row has %d values for %d columns", nodes.ErrArityMismatch, len(vals), len(m.columns)))
		return m
	}
	m.rows = append(m.rows, slices.Clone(vals))
	return m
}

// OnDuplicateKeyUpdate appends a MySQL ON DUPLICATE KEY UPDATE clause.
func (m *InsertManager) OnDuplicateKeyUpdate(pairs nodes.Pairs) *InsertManager {
	m.onDuplicate = slices.Clone(pairs)
	return m
}

// DefaultValues renders "DEFAULT VALUES" for an insert with no columns
// instead of "() VALUES ()".
func (m *InsertManager) DefaultValues(on bool) *InsertManager {
	m.defaultValues = on
	return m
}

// Table returns the target table.
func (m *InsertManager) Table() string { return m.table }

// ToSQL renders the statement and its binds.
func (m *InsertManager) ToSQL() (string, []any, error) {
	if m.err != nil {
		return "", nil, m.err
	}
	nl := m.newLine
	head := m.prefix + " " + m.quote(m.table) + nl

	if len(m.columns) == 0 {
		if m.defaultValues {
			return head + "DEFAULT VALUES", nil, nil
		}
		return head + "()" + nl + "VALUES ()", nil, nil
	}

	cols := make([]string, len(m.columns))
	for i, c := range m.columns {
		cols[i] = m.quote(c)
	}

	var binds []any
	rows := make([]string, len(m.rows))
	for i, row := range m.rows {
		vals := make([]string, len(row))
		for j, v := range row {
			s, b, err := m.valueSQL(v)
			if err != nil {
				return "", nil, fmt.Errorf("%s: %w", m.columns[j], err)
			}
			vals[j] = s
			binds = append(binds, b...)
		}
		rows[i] = "(" + strings.Join(vals, ", ") + ")"
	}

	sql := head + "(" + strings.Join(cols, ", ") + ")" + nl + "VALUES " + strings.Join(rows, ", ")

	if len(m.onDuplicate) > 0 {
		sets, b, err := m.assignments(m.onDuplicate)
		if err != nil {
			return "", nil, err
		}
		sql += " ON DUPLICATE KEY UPDATE " + sets
		binds = append(binds, b...)
	}
	return sql, binds, nil
}

// assignments renders "col = value, ..." for SET and ON DUPLICATE KEY.
func (tm *treeManager) assignments(pairs nodes.Pairs) (string, []any, error) {
	var binds []any
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		s, b, err := tm.valueSQL(p.Value)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", p.Column, err)
		}
		parts[i] = tm.quote(p.Column) + " = " + s
		binds = append(binds, b...)
	}
	return strings.Join(parts, ", "), binds, nil
}

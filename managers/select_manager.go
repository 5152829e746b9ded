// Package managers provides the fluent builders that assemble SELECT,
// INSERT, UPDATE and DELETE statements and their WHERE conditions.
package managers

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/bawdo/sqlmaker/nodes"
)

// Field is one select-list entry. Term is a column name or a *nodes.Node;
// Alias is optional.
type Field struct {
	Term  any
	Alias string
}

// As pairs a term with an alias for AddSelect.
func As(term any, alias string) Field { return Field{Term: term, Alias: alias} }

// Order is an ORDER BY or GROUP BY entry. Column is a column name or a
// *nodes.Node; Type ("ASC", "DESC") is appended when set.
type Order struct {
	Column any
	Type   string
}

// IndexHint is rendered after a table as "TYPE INDEX (list)". Type
// defaults to USE.
type IndexHint struct {
	Type string
	List []string
}

// Join describes one joined table. Exactly one of Using, On or
// Condition is normally set:
//
//	Using     USING (`a`, `b`)
//	On        ON `l` = `r` AND ... (both sides quoted, in order)
//	Condition ON <verbatim sql>
type Join struct {
	Type      string
	Table     string
	Alias     string
	Using     []string
	On        nodes.Pairs
	Condition string
}

// TableRef names a table referenced by a statement.
type TableRef struct {
	Name  string
	Alias string
}

// tableSource is a FROM or join anchor. A sub-query is rendered when it
// is added and kept in sql with its binds.
type tableSource struct {
	name  string
	alias string
	sql   string
	binds []any
	isSub bool
}

type joinEntry struct {
	anchor tableSource
	join   Join
}

// SelectManager provides a fluent API for building SELECT statements.
// Build errors are kept and reported by AsSQL.
type SelectManager struct {
	treeManager
	prefix     string
	distinct   bool
	fields     []Field
	aliases    map[string]any
	from       []tableSource
	joins      []joinEntry
	hints      map[string]IndexHint
	groupBy    []string
	groupBinds []any
	orderBy    []Order
	where      *Condition
	having     *Condition
	limit      any
	offset     any
	forUpdate  bool
	oracle     bool
}

// NewSelectManager creates an empty SELECT builder.
func NewSelectManager(opts ...Option) *SelectManager {
	return &SelectManager{
		treeManager: newTreeManager(opts),
		prefix:      "SELECT ",
		aliases:     map[string]any{},
		hints:       map[string]IndexHint{},
	}
}

// NewCondition returns an empty Condition with this builder's settings.
func (m *SelectManager) NewCondition() *Condition {
	return NewCondition(m.options()...)
}

// Prefix replaces the leading "SELECT ".
func (m *SelectManager) Prefix(prefix string) *SelectManager {
	m.prefix = prefix
	return m
}

// Distinct enables or disables DISTINCT.
func (m *SelectManager) Distinct(on ...bool) *SelectManager {
	m.distinct = len(on) == 0 || on[0]
	return m
}

// AddSelect appends a select-list entry. term is a column name, a
// *nodes.Node or a Field.
func (m *SelectManager) AddSelect(term any) *SelectManager {
	if f, ok := term.(Field); ok {
		return m.AddSelectAs(f.Term, f.Alias)
	}
	return m.AddSelectAs(term, "")
}

// AddSelectAs appends term rendered as "term AS alias". The alias is
// dropped when the quoted term already ends with it.
func (m *SelectManager) AddSelectAs(term any, alias string) *SelectManager {
	switch t := term.(type) {
	case string:
		if alias == "" {
			alias = t
		}
	case *nodes.Node:
		if t == nil {
			m.fail(fmt.Errorf("%w: nil select term", nodes.ErrMalformedOperand))
			return m
		}
	default:
		m.fail(fmt.Errorf("%w: select term must be a string or node, got %T", nodes.ErrMalformedOperand, term))
		return m
	}
	m.fields = append(m.fields, Field{Term: term, Alias: alias})
	if alias != "" {
		m.aliases[alias] = term
	}
	return m
}

// AddFrom appends a FROM entry. table is a table name or a sub-query
// (any nodes.Statement), whose binds are taken now.
func (m *SelectManager) AddFrom(table any, alias string) *SelectManager {
	src, ok := m.tableSource(table, alias)
	if ok {
		m.from = append(m.from, src)
	}
	return m
}

// AddJoin joins j.Table onto the anchor table. All joins are written
// after the first anchor, ahead of the plain FROM entries, so later
// anchors are ignored.
func (m *SelectManager) AddJoin(table any, alias string, j Join) *SelectManager {
	src, ok := m.tableSource(table, alias)
	if ok {
		m.joins = append(m.joins, joinEntry{anchor: src, join: j})
	}
	return m
}

func (m *SelectManager) tableSource(table any, alias string) (tableSource, bool) {
	switch t := table.(type) {
	case string:
		return tableSource{name: t, alias: alias}, true
	case nodes.Statement:
		if isNilStatement(t) {
			break
		}
		sql, err := t.AsSQL()
		if err != nil {
			m.fail(err)
			return tableSource{}, false
		}
		return tableSource{alias: alias, sql: "(" + sql + ")", binds: t.Bind(), isSub: true}, true
	}
	m.fail(fmt.Errorf("%w: table must be a name or a statement, got %T", nodes.ErrMalformedOperand, table))
	return tableSource{}, false
}

func isNilStatement(s nodes.Statement) bool {
	v := reflect.ValueOf(s)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// AddIndexHint attaches a hint to every reference of table.
func (m *SelectManager) AddIndexHint(table string, hint IndexHint) *SelectManager {
	if hint.Type == "" {
		hint.Type = "USE"
	}
	m.hints[table] = hint
	return m
}

// SetWhere replaces the WHERE condition.
func (m *SelectManager) SetWhere(c *Condition) *SelectManager {
	m.where = c
	return m
}

// Where returns the WHERE condition, creating it when absent.
func (m *SelectManager) Where() *Condition {
	if m.where == nil {
		m.where = m.NewCondition()
	}
	return m.where
}

// AddWhere adds one term to the WHERE condition.
func (m *SelectManager) AddWhere(column string, value any) *SelectManager {
	m.Where().Add(column, value)
	return m
}

// AddWhereRaw adds verbatim SQL to the WHERE condition.
func (m *SelectManager) AddWhereRaw(sql string, binds ...any) *SelectManager {
	m.Where().AddRaw(sql, binds...)
	return m
}

// Having returns the HAVING condition, creating it when absent.
func (m *SelectManager) Having() *Condition {
	if m.having == nil {
		m.having = m.NewCondition()
	}
	return m.having
}

// AddHaving adds a HAVING term. When column is a select-list alias the
// aliased term is used in its place, so
//
//	m.AddSelectAs(nodes.Raw("COUNT(*)"), "cnt").AddHaving("cnt", 2)
//
// renders HAVING (COUNT(*) = ?).
func (m *SelectManager) AddHaving(column string, value any) *SelectManager {
	switch t := m.aliases[column].(type) {
	case *nodes.Node:
		sql, err := t.AsSQL("", m.quote)
		if err != nil {
			m.fail(err)
			return m
		}
		m.Having().addExpr(sql, t.Bind(), value)
	case string:
		m.Having().Add(t, value)
	default:
		m.Having().Add(column, value)
	}
	return m
}

// AddGroupBy appends a GROUP BY entry with an optional direction.
func (m *SelectManager) AddGroupBy(group any, order string) *SelectManager {
	sql, binds, err := m.orderSQL(Order{Column: group, Type: order})
	if err != nil {
		m.fail(err)
		return m
	}
	m.groupBy = append(m.groupBy, sql)
	m.groupBinds = append(m.groupBinds, binds...)
	return m
}

// AddOrderBy appends an ORDER BY entry.
func (m *SelectManager) AddOrderBy(column any, typ string) *SelectManager {
	m.orderBy = append(m.orderBy, Order{Column: column, Type: typ})
	return m
}

// Limit sets LIMIT. n may be an integer or a string of digits; anything
// else fails when the statement is rendered.
func (m *SelectManager) Limit(n any) *SelectManager {
	m.limit = n
	return m
}

// Offset sets OFFSET. It is only rendered together with a limit.
func (m *SelectManager) Offset(n any) *SelectManager {
	m.offset = n
	return m
}

// ForUpdate appends FOR UPDATE.
func (m *SelectManager) ForUpdate() *SelectManager {
	m.forUpdate = true
	return m
}

// Tables returns the plain tables referenced by FROM and JOIN, in
// rendering order. Sub-queries are skipped.
func (m *SelectManager) Tables() []TableRef {
	var out []TableRef
	seen := map[TableRef]bool{}
	add := func(r TableRef) {
		if r.Name != "" && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for i, j := range m.joins {
		if i == 0 && !j.anchor.isSub {
			add(TableRef{Name: j.anchor.name, Alias: j.anchor.alias})
		}
		add(TableRef{Name: j.join.Table, Alias: j.join.Alias})
	}
	for _, f := range m.from {
		if !f.isSub {
			add(TableRef{Name: f.name, Alias: f.alias})
		}
	}
	return out
}

// Bind returns the binds in placeholder order: select-list expressions,
// sub-queries (the join anchor, then FROM entries), WHERE, GROUP BY,
// HAVING, then ORDER BY.
func (m *SelectManager) Bind() []any {
	var binds []any
	for _, f := range m.fields {
		if n, ok := f.Term.(*nodes.Node); ok {
			binds = append(binds, n.Bind()...)
		}
	}
	if len(m.joins) > 0 {
		binds = append(binds, m.joins[0].anchor.binds...)
	}
	for _, f := range m.from {
		binds = append(binds, f.binds...)
	}
	if m.where != nil {
		binds = append(binds, m.where.Bind()...)
	}
	binds = append(binds, m.groupBinds...)
	if m.having != nil {
		binds = append(binds, m.having.Bind()...)
	}
	for _, o := range m.orderBy {
		if n, ok := o.Column.(*nodes.Node); ok {
			binds = append(binds, n.Bind()...)
		}
	}
	return binds
}

// Clone returns an independent copy of the builder.
func (m *SelectManager) Clone() *SelectManager {
	c := *m
	c.fields = slices.Clone(m.fields)
	c.from = slices.Clone(m.from)
	c.joins = slices.Clone(m.joins)
	c.groupBy = slices.Clone(m.groupBy)
	c.groupBinds = slices.Clone(m.groupBinds)
	c.orderBy = slices.Clone(m.orderBy)
	c.aliases = make(map[string]any, len(m.aliases))
	for k, v := range m.aliases {
		c.aliases[k] = v
	}
	c.hints = make(map[string]IndexHint, len(m.hints))
	for k, v := range m.hints {
		c.hints[k] = v
	}
	if m.where != nil {
		c.where = m.where.Clone()
	}
	if m.having != nil {
		c.having = m.having.Clone()
	}
	return &c
}

// AsSQL renders the statement. It does not modify the builder, so it
// may be called repeatedly.
func (m *SelectManager) AsSQL() (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.oracle {
		return m.oracleSQL()
	}
	return m.render(m.fields, true)
}

// ToSQL renders the statement and returns it with its binds.
func (m *SelectManager) ToSQL() (string, []any, error) {
	sql, err := m.AsSQL()
	if err != nil {
		return "", nil, err
	}
	return sql, m.Bind(), nil
}

func (m *SelectManager) render(fields []Field, withLimit bool) (string, error) {
	var b strings.Builder
	nl := m.newLine

	if len(fields) > 0 {
		b.WriteString(m.prefix)
		if m.distinct {
			b.WriteString("DISTINCT ")
		}
		cols := make([]string, len(fields))
		for i, f := range fields {
			s, err := m.fieldSQL(f)
			if err != nil {
				return "", err
			}
			cols[i] = s
		}
		b.WriteString(strings.Join(cols, ", "))
		b.WriteString(nl)
	}

	b.WriteString("FROM ")
	for i, j := range m.joins {
		if i == 0 {
			b.WriteString(m.tableSQL(j.anchor))
		}
		b.WriteString(m.joinSQL(j.join))
	}
	if len(m.joins) > 0 && len(m.from) > 0 {
		b.WriteString(", ")
	}
	froms := make([]string, len(m.from))
	for i, f := range m.from {
		froms[i] = m.tableSQL(f)
	}
	b.WriteString(strings.Join(froms, ", "))
	b.WriteString(nl)

	if m.where != nil {
		w, err := m.where.AsSQL()
		if err != nil {
			return "", err
		}
		if w != "" {
			b.WriteString("WHERE " + w + nl)
		}
	}
	if len(m.groupBy) > 0 {
		b.WriteString("GROUP BY " + strings.Join(m.groupBy, ", ") + nl)
	}
	if m.having != nil {
		h, err := m.having.AsSQL()
		if err != nil {
			return "", err
		}
		if h != "" {
			b.WriteString("HAVING " + h + nl)
		}
	}
	if len(m.orderBy) > 0 {
		s, err := m.ordersSQL(m.orderBy)
		if err != nil {
			return "", err
		}
		b.WriteString("ORDER BY " + s + nl)
	}
	if withLimit && m.limit != nil {
		lim, err := m.limitSQL()
		if err != nil {
			return "", err
		}
		b.WriteString(lim + nl)
	}
	sql := trimNewLines(b.String(), nl)
	if m.forUpdate {
		sql += " FOR UPDATE"
	}
	return sql, nil
}

func (m *SelectManager) fieldSQL(f Field) (string, error) {
	var col string
	switch t := f.Term.(type) {
	case *nodes.Node:
		s, err := t.AsSQL("", m.quote)
		if err != nil {
			return "", err
		}
		col = s
	case string:
		col = m.quote(t)
	default:
		return "", fmt.Errorf("%w: select term must be a string or node, got %T", nodes.ErrMalformedOperand, f.Term)
	}
	if f.Alias == "" {
		return col, nil
	}
	alias := m.quote(f.Alias)
	if col == alias || strings.HasSuffix(col, "."+alias) {
		return col, nil
	}
	return col + " AS " + alias, nil
}

func (m *SelectManager) tableSQL(t tableSource) string {
	name := t.sql
	if !t.isSub {
		name = m.quote(t.name)
	}
	if t.alias != "" {
		name += " " + m.quote(t.alias)
	}
	if t.isSub {
		return name
	}
	hint, ok := m.hints[t.name]
	if !ok || len(hint.List) == 0 {
		return name
	}
	list := make([]string, len(hint.List))
	for i, ix := range hint.List {
		list[i] = m.quote(ix)
	}
	return name + " " + strings.ToUpper(hint.Type) + " INDEX (" + strings.Join(list, ",") + ")"
}

func (m *SelectManager) joinSQL(j Join) string {
	var b strings.Builder
	if j.Type != "" {
		b.WriteString(" " + strings.ToUpper(j.Type))
	}
	b.WriteString(" JOIN " + m.quote(j.Table))
	if j.Alias != "" {
		b.WriteString(" " + m.quote(j.Alias))
	}
	switch {
	case len(j.Using) > 0:
		cols := make([]string, len(j.Using))
		for i, c := range j.Using {
			cols[i] = m.quote(c)
		}
		b.WriteString(" USING (" + strings.Join(cols, ", ") + ")")
	case len(j.On) > 0:
		conds := make([]string, len(j.On))
		for i, p := range j.On {
			conds[i] = m.quote(p.Column) + " = " + m.quote(fmt.Sprint(p.Value))
		}
		b.WriteString(" ON " + strings.Join(conds, " AND "))
	case j.Condition != "":
		b.WriteString(" ON " + j.Condition)
	}
	return b.String()
}

// orderSQL renders one ORDER BY or GROUP BY entry. A node renders as is
// and ignores Type.
func (m *SelectManager) orderSQL(o Order) (string, []any, error) {
	switch c := o.Column.(type) {
	case *nodes.Node:
		sql, err := c.AsSQL("", m.quote)
		if err != nil {
			return "", nil, err
		}
		return sql, c.Bind(), nil
	case string:
		if o.Type != "" {
			return m.quote(c) + " " + o.Type, nil, nil
		}
		return m.quote(c), nil, nil
	}
	return "", nil, fmt.Errorf("%w: order column must be a string or node, got %T", nodes.ErrMalformedOperand, o.Column)
}

func (m *SelectManager) ordersSQL(orders []Order) (string, error) {
	parts := make([]string, len(orders))
	for i, o := range orders {
		s, _, err := m.orderSQL(o)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

func (m *SelectManager) limitSQL() (string, error) {
	lim, err := nonNegative("limit", m.limit)
	if err != nil {
		return "", err
	}
	s := "LIMIT " + strconv.FormatUint(lim, 10)
	if m.offset != nil {
		off, err := nonNegative("offset", m.offset)
		if err != nil {
			return "", err
		}
		s += " OFFSET " + strconv.FormatUint(off, 10)
	}
	return s, nil
}

// nonNegative accepts integer kinds and strings of ASCII digits.
func nonNegative(clause string, v any) (uint64, error) {
	bad := fmt.Errorf("%w: Non-numerics in %s clause (%v)", nodes.ErrMalformedOperand, clause, v)
	if s, ok := v.(string); ok {
		if s == "" || strings.TrimLeft(s, "0123456789") != "" {
			return 0, bad
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, bad
		}
		return n, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return 0, bad
		}
		return uint64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	}
	return 0, bad
}

// Union combines m and others with UNION.
func (m *SelectManager) Union(others ...nodes.Statement) *SelectSet {
	return m.setOp(nodes.Union, others)
}

// UnionAll combines m and others with UNION ALL.
func (m *SelectManager) UnionAll(others ...nodes.Statement) *SelectSet {
	return m.setOp(nodes.UnionAll, others)
}

// Intersect combines m and others with INTERSECT.
func (m *SelectManager) Intersect(others ...nodes.Statement) *SelectSet {
	return m.setOp(nodes.Intersect, others)
}

// Except combines m and others with EXCEPT.
func (m *SelectManager) Except(others ...nodes.Statement) *SelectSet {
	return m.setOp(nodes.Except, others)
}

func (m *SelectManager) setOp(op nodes.SetOpType, others []nodes.Statement) *SelectSet {
	s := NewSelectSet(op, m.options()...)
	s.AddStatement(m)
	for _, o := range others {
		s.AddStatement(o)
	}
	return s
}

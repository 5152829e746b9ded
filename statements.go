package sqlmaker

import (
	"fmt"

	"github.com/bawdo/sqlmaker/managers"
	"github.com/bawdo/sqlmaker/nodes"
	"github.com/bawdo/sqlmaker/plugins"
)

// SelectOptions holds the optional clauses of Maker.Select.
type SelectOptions struct {
	// Prefix replaces "SELECT ", e.g. "SELECT SQL_CALC_FOUND_ROWS ".
	Prefix  string
	Joins   []JoinSpec
	OrderBy []Order
	GroupBy []Order
	// Having takes anything nodes.ToPairs accepts. Columns may name a
	// select alias.
	Having any
	// IndexHint applies to the FROM table when table is a single name.
	IndexHint *IndexHint
	Limit     any
	Offset    any
	ForUpdate bool
}

// JoinSpec joins Join.Table onto Table (a name or a sub-query).
type JoinSpec struct {
	Table any
	Alias string
	Join  Join
}

// InsertOptions holds the optional parts of Maker.Insert and
// Maker.InsertMulti.
type InsertOptions struct {
	// Prefix replaces "INSERT INTO", e.g. "INSERT IGNORE INTO".
	Prefix string
	// OnDuplicateKeyUpdate takes anything nodes.ToPairs accepts.
	OnDuplicateKeyUpdate any
}

// DeleteOptions holds the optional parts of Maker.Delete.
type DeleteOptions struct {
	Using []string
}

// SelectQuery builds a SELECT without rendering it. table is a name, a
// []string or []any of names and sub-queries, a nodes.Statement, or nil
// when the statement is driven by Joins. fields are column names,
// nodes or Fields from As.
func (mk *Maker) SelectQuery(table any, fields []any, where any, opts *SelectOptions) (*managers.SelectManager, error) {
	if opts == nil {
		opts = &SelectOptions{}
	}
	stmt := mk.NewSelect()
	for _, f := range fields {
		stmt.AddSelect(f)
	}
	switch t := table.(type) {
	case nil:
	case []string:
		for _, name := range t {
			stmt.AddFrom(name, "")
		}
	case []any:
		for _, x := range t {
			stmt.AddFrom(x, "")
		}
	default:
		stmt.AddFrom(t, "")
	}
	if opts.Prefix != "" {
		stmt.Prefix(opts.Prefix)
	}

	cond, err := mk.condition(where)
	if err != nil {
		return nil, err
	}
	stmt.SetWhere(cond)

	for _, j := range opts.Joins {
		stmt.AddJoin(j.Table, j.Alias, j.Join)
	}
	for _, o := range opts.OrderBy {
		stmt.AddOrderBy(o.Column, o.Type)
	}
	for _, g := range opts.GroupBy {
		stmt.AddGroupBy(g.Column, g.Type)
	}
	if opts.IndexHint != nil {
		if name, ok := table.(string); ok {
			stmt.AddIndexHint(name, *opts.IndexHint)
		}
	}
	if opts.Limit != nil {
		stmt.Limit(opts.Limit)
	}
	if opts.Offset != nil {
		stmt.Offset(opts.Offset)
	}
	having, err := nodes.ToPairs(opts.Having)
	if err != nil {
		return nil, fmt.Errorf("having: %w", err)
	}
	for _, p := range having {
		stmt.AddHaving(p.Column, p.Value)
	}
	if opts.ForUpdate {
		stmt.ForUpdate()
	}

	if err := plugins.ApplySelect(stmt, mk.transformers...); err != nil {
		return nil, err
	}
	if err := stmt.Err(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// Select renders a SELECT. See SelectQuery for the arguments.
func (mk *Maker) Select(table any, fields []any, where any, opts *SelectOptions) (string, []any, error) {
	stmt, err := mk.SelectQuery(table, fields, where, opts)
	if err != nil {
		return "", nil, err
	}
	return mk.finish(stmt.ToSQL())
}

// Insert renders a single-row INSERT. values takes anything
// nodes.ToPairs accepts; a value may be a node, a []any{sql, binds...}
// raw fragment or a plain bind value.
func (mk *Maker) Insert(table string, values any, opts *InsertOptions) (string, []any, error) {
	pairs, err := nodes.ToPairs(values)
	if err != nil {
		return "", nil, fmt.Errorf("values: %w", err)
	}
	im := managers.NewInsertManager(table, mk.managerOptions()...).
		SetPairs(pairs).
		DefaultValues(mk.dialect.DefaultValues)
	if err := applyInsertOptions(im, opts); err != nil {
		return "", nil, err
	}
	return mk.finish(im.ToSQL())
}

// InsertMulti renders a multi-row INSERT. Every row must have one value
// per column.
func (mk *Maker) InsertMulti(table string, columns []string, rows [][]any, opts *InsertOptions) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("%w: insert into %s: no rows", ErrMalformedOperand, table)
	}
	im := managers.NewInsertManager(table, mk.managerOptions()...).Columns(columns...)
	for _, r := range rows {
		im.Row(r...)
	}
	if err := applyInsertOptions(im, opts); err != nil {
		return "", nil, err
	}
	return mk.finish(im.ToSQL())
}

func applyInsertOptions(im *managers.InsertManager, opts *InsertOptions) error {
	if opts == nil {
		return nil
	}
	if opts.Prefix != "" {
		im.Prefix(opts.Prefix)
	}
	dup, err := nodes.ToPairs(opts.OnDuplicateKeyUpdate)
	if err != nil {
		return fmt.Errorf("on duplicate key update: %w", err)
	}
	if len(dup) > 0 {
		im.OnDuplicateKeyUpdate(dup)
	}
	return nil
}

// Update renders an UPDATE. set takes anything nodes.ToPairs accepts.
func (mk *Maker) Update(table string, set any, where any) (string, []any, error) {
	pairs, err := nodes.ToPairs(set)
	if err != nil {
		return "", nil, fmt.Errorf("set: %w", err)
	}
	cond, err := mk.condition(where)
	if err != nil {
		return "", nil, err
	}
	if err := plugins.ApplyUpdate(table, cond, mk.transformers...); err != nil {
		return "", nil, err
	}
	um := managers.NewUpdateManager(table, mk.managerOptions()...).
		SetPairs(pairs).
		SetWhere(cond)
	return mk.finish(um.ToSQL())
}

// Delete renders a DELETE.
func (mk *Maker) Delete(table string, where any, opts *DeleteOptions) (string, []any, error) {
	cond, err := mk.condition(where)
	if err != nil {
		return "", nil, err
	}
	if err := plugins.ApplyDelete(table, cond, mk.transformers...); err != nil {
		return "", nil, err
	}
	dm := managers.NewDeleteManager(table, mk.managerOptions()...).SetWhere(cond)
	if opts != nil && len(opts.Using) > 0 {
		dm.Using(opts.Using...)
	}
	return mk.finish(dm.ToSQL())
}

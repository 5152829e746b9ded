package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bawdo/sqlmaker"
)

// A query document is a YAML mapping with a single statement key:
//
//	select: {table: users, fields: [id, name], where: {id: 1}, limit: 10}
//	insert: {table: users, values: {name: john, created_on: !raw "NOW()"}}
//	update: {table: users, set: {name: jane}, where: {id: 1}}
//	delete: {table: users, where: {id: 1}}
//	where:  {name: john, age: {">": 18}}
//	union:  [{select: {...}}, {select: {...}}]
//
// Mapping order is kept, so WHERE terms and SET columns render in the
// order they are written. A scalar tagged !raw is emitted verbatim; a
// sequence tagged !raw is SQL followed by its binds.

const rawTag = "!raw"

var setOps = map[string]func(...sqlmaker.Statement) (*sqlmaker.SelectSet, error){
	"union":         sqlmaker.Union,
	"union_all":     sqlmaker.UnionAll,
	"intersect":     sqlmaker.Intersect,
	"intersect_all": sqlmaker.IntersectAll,
	"except":        sqlmaker.Except,
	"except_all":    sqlmaker.ExceptAll,
}

var errEmptyDocument = errors.New("empty document")

// statement is one rendered query document.
type statement struct {
	kind  string
	sql   string
	binds []any
}

// returnsRows reports whether the statement produces a result set.
func (s statement) returnsRows() bool {
	return s.kind == "select" || setOps[s.kind] != nil
}

// executable reports whether the statement can be sent to a database.
func (s statement) executable() bool { return s.kind != "where" }

// readDocuments decodes every YAML document in r.
func readDocuments(r io.Reader) ([]*yaml.Node, error) {
	dec := yaml.NewDecoder(r)
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		if len(doc.Content) == 0 {
			continue
		}
		docs = append(docs, doc.Content[0])
	}
}

// parseLine decodes a single one-line document.
func parseLine(line string) (*yaml.Node, error) {
	docs, err := readDocuments(strings.NewReader(line))
	if err != nil {
		return nil, err
	}
	switch len(docs) {
	case 0:
		return nil, errEmptyDocument
	case 1:
		return docs[0], nil
	default:
		return nil, fmt.Errorf("expected one document, got %d", len(docs))
	}
}

// render builds and renders one query document.
func render(mk *sqlmaker.Maker, doc *yaml.Node) (statement, error) {
	kind, body, err := statementKey(doc)
	if err != nil {
		return statement{}, err
	}
	st := statement{kind: kind}
	switch kind {
	case "select":
		st.sql, st.binds, err = renderSelect(mk, body)
	case "insert":
		st.sql, st.binds, err = renderInsert(mk, body)
	case "update":
		st.sql, st.binds, err = renderUpdate(mk, body)
	case "delete":
		st.sql, st.binds, err = renderDelete(mk, body)
	case "where":
		var where sqlmaker.Pairs
		if where, err = pairs(body); err == nil {
			st.sql, st.binds, err = mk.Where(where)
		}
	default:
		var set *sqlmaker.SelectSet
		if set, err = buildSet(mk, kind, body); err == nil {
			st.sql, st.binds, err = set.ToSQL()
			if err == nil && mk.AutoBind() {
				st.sql, err = sqlmaker.BindParam(st.sql, st.binds)
				st.binds = nil
			}
		}
	}
	if err != nil {
		return statement{}, fmt.Errorf("line %d: %s: %w", doc.Line, kind, err)
	}
	return st, nil
}

func statementKey(doc *yaml.Node) (string, *yaml.Node, error) {
	doc = resolve(doc)
	if doc.Kind != yaml.MappingNode || len(doc.Content) != 2 {
		return "", nil, fmt.Errorf("line %d: a document is a mapping with one statement key", doc.Line)
	}
	key := doc.Content[0].Value
	switch key {
	case "select", "insert", "update", "delete", "where":
	default:
		if setOps[key] == nil {
			return "", nil, fmt.Errorf("line %d: unknown statement %q", doc.Line, key)
		}
	}
	return key, resolve(doc.Content[1]), nil
}

// --- Statements ---

func renderSelect(mk *sqlmaker.Maker, body *yaml.Node) (string, []any, error) {
	stmt, err := buildSelect(mk, body)
	if err != nil {
		return "", nil, err
	}
	sql, binds, err := stmt.ToSQL()
	if err != nil || !mk.AutoBind() {
		return sql, binds, err
	}
	sql, err = sqlmaker.BindParam(sql, binds)
	return sql, nil, err
}

func buildSelect(mk *sqlmaker.Maker, body *yaml.Node) (*sqlmaker.SelectManager, error) {
	f, err := keys(body, "table", "fields", "where", "prefix", "joins", "order_by",
		"group_by", "having", "index_hint", "limit", "offset", "for_update")
	if err != nil {
		return nil, err
	}

	var table any
	if n := f["table"]; n != nil {
		names, err := stringList(n)
		if err != nil {
			return nil, fmt.Errorf("table: %w", err)
		}
		if len(names) == 1 && n.Kind == yaml.ScalarNode {
			table = names[0]
		} else {
			table = names
		}
	}

	fields, err := fieldList(f["fields"])
	if err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	where, err := pairs(f["where"])
	if err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}

	opts := &sqlmaker.SelectOptions{}
	if opts.Prefix, err = scalarString(f["prefix"]); err != nil {
		return nil, fmt.Errorf("prefix: %w", err)
	}
	if opts.Joins, err = joinList(f["joins"]); err != nil {
		return nil, fmt.Errorf("joins: %w", err)
	}
	if opts.OrderBy, err = orderList(f["order_by"]); err != nil {
		return nil, fmt.Errorf("order_by: %w", err)
	}
	if opts.GroupBy, err = orderList(f["group_by"]); err != nil {
		return nil, fmt.Errorf("group_by: %w", err)
	}
	if n := f["having"]; n != nil {
		if opts.Having, err = pairs(n); err != nil {
			return nil, fmt.Errorf("having: %w", err)
		}
	}
	if opts.IndexHint, err = indexHint(f["index_hint"]); err != nil {
		return nil, fmt.Errorf("index_hint: %w", err)
	}
	if opts.Limit, err = scalar(f["limit"]); err != nil {
		return nil, fmt.Errorf("limit: %w", err)
	}
	if opts.Offset, err = scalar(f["offset"]); err != nil {
		return nil, fmt.Errorf("offset: %w", err)
	}
	if n := f["for_update"]; n != nil {
		if err := n.Decode(&opts.ForUpdate); err != nil {
			return nil, fmt.Errorf("for_update: %w", err)
		}
	}

	return mk.SelectQuery(table, fields, where, opts)
}

func renderInsert(mk *sqlmaker.Maker, body *yaml.Node) (string, []any, error) {
	f, err := keys(body, "table", "values", "columns", "rows", "prefix", "on_duplicate_key_update")
	if err != nil {
		return "", nil, err
	}
	table, err := requiredString(f, "table")
	if err != nil {
		return "", nil, err
	}

	opts := &sqlmaker.InsertOptions{}
	if opts.Prefix, err = scalarString(f["prefix"]); err != nil {
		return "", nil, fmt.Errorf("prefix: %w", err)
	}
	if n := f["on_duplicate_key_update"]; n != nil {
		if opts.OnDuplicateKeyUpdate, err = pairs(n); err != nil {
			return "", nil, fmt.Errorf("on_duplicate_key_update: %w", err)
		}
	}

	if f["rows"] != nil || f["columns"] != nil {
		if f["values"] != nil {
			return "", nil, errors.New("values cannot be combined with columns and rows")
		}
		columns, err := stringList(f["columns"])
		if err != nil {
			return "", nil, fmt.Errorf("columns: %w", err)
		}
		rows, err := rowList(f["rows"])
		if err != nil {
			return "", nil, fmt.Errorf("rows: %w", err)
		}
		return mk.InsertMulti(table, columns, rows, opts)
	}

	values, err := pairs(f["values"])
	if err != nil {
		return "", nil, fmt.Errorf("values: %w", err)
	}
	return mk.Insert(table, values, opts)
}

func renderUpdate(mk *sqlmaker.Maker, body *yaml.Node) (string, []any, error) {
	f, err := keys(body, "table", "set", "where")
	if err != nil {
		return "", nil, err
	}
	table, err := requiredString(f, "table")
	if err != nil {
		return "", nil, err
	}
	set, err := pairs(f["set"])
	if err != nil {
		return "", nil, fmt.Errorf("set: %w", err)
	}
	where, err := pairs(f["where"])
	if err != nil {
		return "", nil, fmt.Errorf("where: %w", err)
	}
	return mk.Update(table, set, where)
}

func renderDelete(mk *sqlmaker.Maker, body *yaml.Node) (string, []any, error) {
	f, err := keys(body, "table", "where", "using")
	if err != nil {
		return "", nil, err
	}
	table, err := requiredString(f, "table")
	if err != nil {
		return "", nil, err
	}
	where, err := pairs(f["where"])
	if err != nil {
		return "", nil, fmt.Errorf("where: %w", err)
	}
	using, err := stringList(f["using"])
	if err != nil {
		return "", nil, fmt.Errorf("using: %w", err)
	}
	return mk.Delete(table, where, &sqlmaker.DeleteOptions{Using: using})
}

// buildSet takes either a list of member documents or a mapping with
// "queries" and a trailing "order_by".
func buildSet(mk *sqlmaker.Maker, op string, body *yaml.Node) (*sqlmaker.SelectSet, error) {
	members := body
	var orderBy *yaml.Node
	if body.Kind == yaml.MappingNode {
		f, err := keys(body, "queries", "order_by")
		if err != nil {
			return nil, err
		}
		members, orderBy = f["queries"], f["order_by"]
	}
	if members == nil || members.Kind != yaml.SequenceNode {
		return nil, errors.New("expected a list of queries")
	}

	stmts := make([]sqlmaker.Statement, 0, len(members.Content))
	for _, m := range members.Content {
		kind, inner, err := statementKey(m)
		if err != nil {
			return nil, err
		}
		switch {
		case kind == "select":
			s, err := buildSelect(mk, inner)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		case setOps[kind] != nil:
			s, err := buildSet(mk, kind, inner)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		default:
			return nil, fmt.Errorf("line %d: %s cannot be a set member", m.Line, kind)
		}
	}

	set, err := setOps[op](stmts...)
	if err != nil {
		return nil, err
	}
	orders, err := orderList(orderBy)
	if err != nil {
		return nil, fmt.Errorf("order_by: %w", err)
	}
	for _, o := range orders {
		col, ok := o.Column.(string)
		if !ok {
			return nil, errors.New("order_by: a set is ordered by column names only")
		}
		set.AddOrderBy(col, o.Type)
	}
	return set, nil
}

// --- Node conversion ---

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// keys indexes a mapping by key and rejects keys not in allowed.
func keys(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	n = resolve(n)
	if isNull(n) {
		return map[string]*yaml.Node{}, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		k := n.Content[i].Value
		if !slices.Contains(allowed, k) {
			return nil, fmt.Errorf("line %d: unknown key %q (expected one of %s)",
				n.Content[i].Line, k, strings.Join(allowed, ", "))
		}
		if v := resolve(n.Content[i+1]); !isNull(v) {
			out[k] = v
		}
	}
	return out, nil
}

// isNull reports a missing node or an explicit YAML null.
func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func requiredString(f map[string]*yaml.Node, key string) (string, error) {
	s, err := scalarString(f[key])
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

func scalarString(n *yaml.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: expected a scalar", n.Line)
	}
	return n.Value, nil
}

// scalar decodes a plain scalar into its YAML type (int, string, ...).
func scalar(n *yaml.Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: expected a scalar", n.Line)
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// stringList accepts a scalar or a sequence of scalars.
func stringList(n *yaml.Node) ([]string, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, len(n.Content))
		for i, c := range n.Content {
			s, err := scalarString(resolve(c))
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("line %d: expected a name or a list of names", n.Line)
}

// value converts a node into something the builders accept: scalars
// keep their YAML type, sequences become []any, mappings become
// map[string]any operand mappings, and !raw becomes a raw node.
func value(n *yaml.Node) (any, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == rawTag {
			return sqlmaker.Raw(n.Value), nil
		}
		return scalar(n)
	case yaml.SequenceNode:
		vals := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := value(c)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		if n.Tag == rawTag {
			if len(vals) == 0 {
				return nil, fmt.Errorf("line %d: !raw needs SQL text", n.Line)
			}
			sql, ok := vals[0].(string)
			if !ok {
				return nil, fmt.Errorf("line %d: !raw SQL must be a string", n.Line)
			}
			return sqlmaker.Raw(sql, vals[1:]...), nil
		}
		return vals, nil
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			v, err := value(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[n.Content[i].Value] = v
		}
		return m, nil
	}
	return nil, fmt.Errorf("line %d: unsupported node", n.Line)
}

// pairs converts a mapping into ordered column/value pairs.
func pairs(n *yaml.Node) (sqlmaker.Pairs, error) {
	n = resolve(n)
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a column mapping", n.Line)
	}
	out := make(sqlmaker.Pairs, 0, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		v, err := value(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, sqlmaker.Pair{Column: n.Content[i].Value, Value: v})
	}
	return out, nil
}

// term is a column name or, when tagged !raw, a raw node.
func term(n *yaml.Node) (any, error) {
	n = resolve(n)
	if n.Kind != yaml.ScalarNode {
		return value(n)
	}
	if n.Tag == rawTag {
		return sqlmaker.Raw(n.Value), nil
	}
	return n.Value, nil
}

// singleEntry returns the key and value of a one-entry mapping.
func singleEntry(n *yaml.Node) (*yaml.Node, *yaml.Node, error) {
	if len(n.Content) != 2 {
		return nil, nil, fmt.Errorf("line %d: expected a single-entry mapping", n.Line)
	}
	return n.Content[0], resolve(n.Content[1]), nil
}

// fieldList reads select fields: names, !raw expressions, or
// {term: alias} entries.
func fieldList(n *yaml.Node) ([]any, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	items := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode && n.Tag != rawTag {
		items = n.Content
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		item = resolve(item)
		if item.Kind != yaml.MappingNode {
			t, err := term(item)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
			continue
		}
		k, v, err := singleEntry(item)
		if err != nil {
			return nil, err
		}
		t, err := term(k)
		if err != nil {
			return nil, err
		}
		alias, err := scalarString(v)
		if err != nil {
			return nil, err
		}
		out = append(out, sqlmaker.As(t, alias))
	}
	return out, nil
}

// orderList reads ORDER BY / GROUP BY entries: names, !raw expressions
// or {column: DESC}.
func orderList(n *yaml.Node) ([]sqlmaker.Order, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	items := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode && n.Tag != rawTag {
		items = n.Content
	}
	out := make([]sqlmaker.Order, 0, len(items))
	for _, item := range items {
		item = resolve(item)
		if item.Kind != yaml.MappingNode {
			t, err := term(item)
			if err != nil {
				return nil, err
			}
			out = append(out, sqlmaker.Order{Column: t})
			continue
		}
		k, v, err := singleEntry(item)
		if err != nil {
			return nil, err
		}
		t, err := term(k)
		if err != nil {
			return nil, err
		}
		dir, err := scalarString(v)
		if err != nil {
			return nil, err
		}
		out = append(out, sqlmaker.Order{Column: t, Type: strings.ToUpper(dir)})
	}
	return out, nil
}

// joinList reads join entries:
//
//	{from: users, as: u, type: left, table: posts, alias: p, on: {u.id: p.user_id}}
func joinList(n *yaml.Node) ([]sqlmaker.JoinSpec, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list of joins", n.Line)
	}
	out := make([]sqlmaker.JoinSpec, 0, len(n.Content))
	for _, item := range n.Content {
		f, err := keys(item, "from", "as", "type", "table", "alias", "using", "on", "condition")
		if err != nil {
			return nil, err
		}
		from, err := requiredString(f, "from")
		if err != nil {
			return nil, err
		}
		spec := sqlmaker.JoinSpec{Table: from}
		if spec.Alias, err = scalarString(f["as"]); err != nil {
			return nil, err
		}
		if spec.Join.Table, err = requiredString(f, "table"); err != nil {
			return nil, err
		}
		if spec.Join.Type, err = scalarString(f["type"]); err != nil {
			return nil, err
		}
		spec.Join.Type = strings.ToUpper(spec.Join.Type)
		if spec.Join.Alias, err = scalarString(f["alias"]); err != nil {
			return nil, err
		}
		if spec.Join.Using, err = stringList(f["using"]); err != nil {
			return nil, err
		}
		if spec.Join.Condition, err = scalarString(f["condition"]); err != nil {
			return nil, err
		}
		if on := f["on"]; on != nil {
			if on.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: on maps left columns to right columns", on.Line)
			}
			for i := 0; i < len(on.Content); i += 2 {
				right, err := scalarString(resolve(on.Content[i+1]))
				if err != nil {
					return nil, err
				}
				spec.Join.On = append(spec.Join.On, sqlmaker.Pair{Column: on.Content[i].Value, Value: right})
			}
		}
		out = append(out, spec)
	}
	return out, nil
}

func indexHint(n *yaml.Node) (*sqlmaker.IndexHint, error) {
	if n == nil {
		return nil, nil
	}
	f, err := keys(n, "type", "list")
	if err != nil {
		return nil, err
	}
	hint := &sqlmaker.IndexHint{}
	if hint.Type, err = scalarString(f["type"]); err != nil {
		return nil, err
	}
	hint.Type = strings.ToUpper(hint.Type)
	if hint.List, err = stringList(f["list"]); err != nil {
		return nil, err
	}
	return hint, nil
}

// rowList reads a list of value lists for a multi-row insert.
func rowList(n *yaml.Node) ([][]any, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list of rows", n.Line)
	}
	rows := make([][]any, len(n.Content))
	for i, r := range n.Content {
		r = resolve(r)
		if r.Kind != yaml.SequenceNode || r.Tag == rawTag {
			return nil, fmt.Errorf("line %d: a row is a list of values", r.Line)
		}
		v, err := value(r)
		if err != nil {
			return nil, err
		}
		rows[i] = v.([]any)
	}
	return rows, nil
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/sqlmaker"
)

func renderLine(t *testing.T, driver, line string) (statement, error) {
	t.Helper()
	mk, err := sqlmaker.New(driver)
	require.NoError(t, err)
	doc, err := parseLine(line)
	require.NoError(t, err)
	return render(mk, doc)
}

func TestRenderDocuments(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		line  string
		kind  string
		sql   string
		binds []any
	}{
		{
			"multiple tables",
			`select: {table: [foo, bar], fields: ["*"]}`,
			"select", "SELECT *\nFROM \"foo\", \"bar\"", nil,
		},
		{
			"field alias and raw",
			`select: {table: foo, fields: [{bar: barbar}, !raw "COUNT(*)"]}`,
			"select", "SELECT \"bar\" AS \"barbar\", COUNT(*)\nFROM \"foo\"", nil,
		},
		{
			"joins with on mapping",
			`select: {fields: ["*"], joins: [{from: users, as: u, type: left, table: posts, alias: p, on: {u.id: p.user_id}}]}`,
			"select", "SELECT *\nFROM \"users\" \"u\" LEFT JOIN \"posts\" \"p\" ON \"u\".\"id\" = \"p\".\"user_id\"", nil,
		},
		{
			"join using",
			`select: {fields: ["*"], joins: [{from: a, table: b, using: [id]}]}`,
			"select", "SELECT *\nFROM \"a\" JOIN \"b\" USING (\"id\")", nil,
		},
		{
			"group by and having",
			`select: {table: foo, fields: [foo, {!raw "COUNT(*)": cnt}], group_by: [foo], having: {cnt: 2}}`,
			"select", "SELECT \"foo\", COUNT(*) AS \"cnt\"\nFROM \"foo\"\nGROUP BY \"foo\"\nHAVING (COUNT(*) = ?)", []any{2},
		},
		{
			"index hint",
			`select: {table: foo, fields: ["*"], index_hint: {type: force, list: [a, b]}}`,
			"select", "SELECT *\nFROM \"foo\" FORCE INDEX (\"a\",\"b\")", nil,
		},
		{
			"limit offset for update",
			`select: {table: foo, fields: ["*"], where: {id: 1}, limit: 5, offset: 10, for_update: true}`,
			"select", "SELECT *\nFROM \"foo\"\nWHERE (\"id\" = ?)\nLIMIT 5 OFFSET 10 FOR UPDATE", []any{1},
		},
		{
			"raw sequence with binds",
			`insert: {table: foo, values: {created: !raw ["datetime(?)", "2024-01-01"]}}`,
			"insert", "INSERT INTO \"foo\"\n(\"created\")\nVALUES (datetime(?))", []any{"2024-01-01"},
		},
		{
			"operand groups",
			`where: {age: {between: [18, 65]}, name: [{like: "a%"}, {like: "b%"}]}`,
			"where", "(\"age\" BETWEEN ? AND ?) AND ((\"name\" LIKE ?) OR (\"name\" LIKE ?))", []any{18, 65, "a%", "b%"},
		},
		{
			"insert multi",
			`insert: {table: foo, columns: [id, name], rows: [[1, a], [2, b]]}`,
			"insert", "INSERT INTO \"foo\"\n(\"id\", \"name\")\nVALUES (?, ?), (?, ?)", []any{1, "a", 2, "b"},
		},
		{
			"empty insert",
			`insert: {table: foo}`,
			"insert", "INSERT INTO \"foo\"\nDEFAULT VALUES", nil,
		},
		{
			"delete using",
			`delete: {table: user, using: [group], where: {group.name: doe}}`,
			"delete", "DELETE FROM \"user\" USING \"group\" WHERE (\"group\".\"name\" = ?)", []any{"doe"},
		},
		{
			"nested set",
			`union_all: [{select: {table: a, fields: [id]}}, {except: [{select: {table: b, fields: [id]}}, {select: {table: c, fields: [id]}}]}]`,
			"union_all", "SELECT \"id\"\nFROM \"a\"\nUNION ALL\nSELECT \"id\"\nFROM \"b\"\nEXCEPT\nSELECT \"id\"\nFROM \"c\"", nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			st, err := renderLine(t, "sqlite", tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, st.kind)
			assert.Equal(t, tc.sql, st.sql)
			assert.Equal(t, tc.binds, st.binds)
		})
	}
}

func TestRenderInsertOnDuplicate(t *testing.T) {
	t.Parallel()
	st, err := renderLine(t, "mysql",
		`insert: {table: foo, prefix: INSERT IGNORE INTO, values: {id: 1, n: 2}, on_duplicate_key_update: {n: !raw "n + 1"}}`)
	require.NoError(t, err)
	assert.Equal(t, "INSERT IGNORE INTO `foo`\n(`id`, `n`)\nVALUES (?, ?) ON DUPLICATE KEY UPDATE `n` = n + 1", st.sql)
	assert.Equal(t, []any{1, 2}, st.binds)
}

func TestRenderDocumentErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		line string
		msg  string
	}{
		{"not a mapping", `[1, 2]`, "a document is a mapping with one statement key"},
		{"two statements", `{select: {table: a}, delete: {table: b}}`, "a document is a mapping with one statement key"},
		{"update without table", `update: {set: {a: 1}}`, "table is required"},
		{"values and rows", `insert: {table: t, values: {a: 1}, columns: [a], rows: [[1]]}`, "values cannot be combined"},
		{"row not a list", `insert: {table: t, columns: [a], rows: [1]}`, "a row is a list of values"},
		{"set of deletes", `union: [{delete: {table: a}}]`, "delete cannot be a set member"},
		{"set not a list", `union: {order_by: [id]}`, "expected a list of queries"},
		{"set ordered by raw", `union: {queries: [{select: {table: a, fields: [id]}}], order_by: [!raw "1"]}`, "column names only"},
		{"join without table", `select: {joins: [{from: a}]}`, "table is required"},
		{"bad alias entry", `select: {table: a, fields: [{a: x, b: y}]}`, "single-entry mapping"},
		{"empty raw", `select: {table: a, fields: ["*"], where: {x: !raw []}}`, "!raw needs SQL text"},
		{"where is a list", `where: [a, 1]`, "expected a column mapping"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := renderLine(t, "sqlite", tc.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestRenderUnionAutoBind(t *testing.T) {
	t.Parallel()
	mk, err := sqlmaker.New("mysql", sqlmaker.WithAutoBind(true), sqlmaker.WithNewLine(" "))
	require.NoError(t, err)
	doc, err := parseLine(`union: [{select: {table: a, fields: [id], where: {x: 1}}}, {select: {table: b, fields: [id], where: {y: two}}}]`)
	require.NoError(t, err)

	st, err := render(mk, doc)
	require.NoError(t, err)
	assert.Equal(t, "SELECT `id` FROM `a` WHERE (`x` = 1) UNION SELECT `id` FROM `b` WHERE (`y` = 'two')", st.sql)
	assert.Nil(t, st.binds)
	assert.True(t, st.returnsRows())
}

func TestParseLine(t *testing.T) {
	t.Parallel()
	_, err := parseLine("")
	assert.ErrorIs(t, err, errEmptyDocument)

	_, err = parseLine("a: 1\n---\nb: 2")
	assert.ErrorContains(t, err, "expected one document, got 2")
}

func TestStatementKinds(t *testing.T) {
	t.Parallel()
	assert.True(t, statement{kind: "select"}.returnsRows())
	assert.True(t, statement{kind: "except_all"}.returnsRows())
	assert.False(t, statement{kind: "update"}.returnsRows())
	assert.True(t, statement{kind: "delete"}.executable())
	assert.False(t, statement{kind: "where"}.executable())
}

package managers

import (
	"testing"

	"github.com/bawdo/sqlmaker/internal/testutil"
	"github.com/bawdo/sqlmaker/nodes"
)

func newTestCondition(opts ...Option) *Condition {
	return NewCondition(append([]Option{WithQuoteChar("`")}, opts...)...)
}

// --- Add ---

func TestConditionAdd(t *testing.T) {
	t.Parallel()
	sub := testutil.StubStatement{SQL: "SELECT id FROM t WHERE x = ?", Binds: []any{9}}

	tests := []struct {
		name   string
		column string
		value  any
		sql    string
		binds  []any
	}{
		{"scalar", "foo", "bar", "(`foo` = ?)", []any{"bar"}},
		{"nil", "foo", nil, "(`foo` IS NULL)", nil},
		{"in list", "foo", []any{1, 2, 3}, "(`foo` IN (?, ?, ?))", []any{1, 2, 3}},
		{"typed list", "foo", []int{4, 5}, "(`foo` IN (?, ?))", []any{4, 5}},
		{"empty in", "x", []any{}, "(0=1)", nil},
		{"empty not in", "x", map[string]any{"not in": []any{}}, "(1=1)", nil},
		{"operator", "foo", map[string]any{"<": 3}, "(`foo` < ?)", []any{3}},
		{"operator upper-cased", "foo", map[string]any{"like": "xaic%"}, "(`foo` LIKE ?)", []any{"xaic%"}},
		{"between", "foo", map[string]any{"between": []any{1, 2}}, "(`foo` BETWEEN ? AND ?)", []any{1, 2}},
		{"not between", "foo", map[string]any{"not between": []any{1, 2}}, "(`foo` NOT BETWEEN ? AND ?)", []any{1, 2}},
		{"in mapping", "foo", map[string]any{"in": []any{"a", "b"}}, "(`foo` IN (?, ?))", []any{"a", "b"}},
		{"not in mapping", "foo", map[string]any{"not in": []any{"a"}}, "(`foo` NOT IN (?))", []any{"a"}},
		{"in sub-query", "foo", map[string]any{"in": sub}, "(`foo` IN (SELECT id FROM t WHERE x = ?))", []any{9}},
		{"in raw node", "foo", map[string]any{"in": nodes.Raw("SELECT 1")}, "(`foo` IN (SELECT 1))", nil},
		{
			"in mapping with node member",
			"foo",
			map[string]any{"in": []any{nodes.Raw("SELECT id FROM t WHERE x = ?", 5), 2}},
			"(`foo` IN ((SELECT id FROM t WHERE x = ?), ?))",
			[]any{5, 2},
		},
		{
			"not in mapping with statement member",
			"foo",
			map[string]any{"not in": []any{sub, 3}},
			"(`foo` NOT IN ((SELECT id FROM t WHERE x = ?), ?))",
			[]any{9, 3},
		},
		{"list of placeholder nodes", "foo", []any{nodes.Raw("?", 1), nodes.Raw("?", 2)}, "(`foo` IN (?, ?))", []any{1, 2}},
		{
			"list of mappings",
			"foo",
			[]any{map[string]any{">": "bar"}, map[string]any{"<": "baz"}},
			"((`foo` > ?) OR (`foo` < ?))",
			[]any{"bar", "baz"},
		},
		{
			"and group",
			"foo",
			map[string]any{"and": []any{map[string]any{">": 1}, map[string]any{"<": 5}}},
			"((`foo` > ?) AND (`foo` < ?))",
			[]any{1, 5},
		},
		{
			"or group of scalars",
			"foo",
			map[string]any{"or": []any{1, 2}},
			"((`foo` = ?) OR (`foo` = ?))",
			[]any{1, 2},
		},
		{"empty and group", "foo", map[string]any{"and": []any{}}, "(0=1)", nil},
		{"node", "foo", nodes.Gt(3), "(`foo` > ?)", []any{3}},
		{"node with same column", "foo", nodes.Eq("foo", 1), "(`foo` = ?)", []any{1}},
		{"qualified column", "t.foo", 1, "(`t`.`foo` = ?)", []any{1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestCondition().Add(tc.column, tc.value)
			sql, err := c.AsSQL()
			testutil.AssertSQL(t, sql, err, tc.sql)
			testutil.AssertBinds(t, c.Bind(), tc.binds)
		})
	}
}

func TestConditionAddJoinsTermsWithAnd(t *testing.T) {
	t.Parallel()
	c := newTestCondition().
		AddPairs(nodes.KV("bar", "baz", "john", "man"))

	sql, err := c.AsSQL()
	testutil.AssertSQL(t, sql, err, "(`bar` = ?) AND (`john` = ?)")
	testutil.AssertBinds(t, c.Bind(), []any{"baz", "man"})
}

func TestConditionAddErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		column string
		value  any
		want   error
	}{
		{"between arity", "foo", map[string]any{"between": []any{1}}, nodes.ErrMalformedOperand},
		{"multi-key mapping", "foo", map[string]any{">": 1, "<": 2}, nodes.ErrMalformedOperand},
		{"collection bind", "foo", map[string]any{"=": []any{1}}, nodes.ErrInvalidBind},
		{"rebind", "foo", nodes.Eq("bar", 1), nodes.ErrRebindConflict},
		{"broken node", "foo", nodes.Op("@ = ? + ?", 1), nodes.ErrArityMismatch},
		{"broken node in list", "foo", []any{1, nodes.Op("@ = ? + ?", 1)}, nodes.ErrArityMismatch},
		{"nested list in list", "foo", map[string]any{"in": []any{[]any{1}}}, nodes.ErrInvalidBind},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := newTestCondition().Add(tc.column, tc.value).AsSQL()
			testutil.AssertErrorIs(t, err, tc.want)
		})
	}
}

func TestConditionFirstErrorSticks(t *testing.T) {
	t.Parallel()
	c := newTestCondition().
		Add("a", map[string]any{"between": []any{1}}).
		Add("b", 2)

	_, err := c.AsSQL()
	testutil.AssertErrorIs(t, err, nodes.ErrMalformedOperand)
	if !c.IsEmpty() {
		t.Error("expected no terms after a failed add")
	}
}

// --- AddRaw ---

func TestConditionAddRaw(t *testing.T) {
	t.Parallel()
	c := newTestCondition().
		Add("a", 1).
		AddRaw("b = ? OR c = ?", 2, 3)

	sql, err := c.AsSQL()
	testutil.AssertSQL(t, sql, err, "(`a` = ?) AND (b = ? OR c = ?)")
	testutil.AssertBinds(t, c.Bind(), []any{1, 2, 3})
}

func TestConditionAddRawRejectsCollections(t *testing.T) {
	t.Parallel()
	_, err := newTestCondition().AddRaw("a IN ?", []any{1, 2}).AsSQL()
	testutil.AssertErrorIs(t, err, nodes.ErrInvalidBind)
}

// --- Strict mode ---

func TestConditionStrictRejectsAmbientValues(t *testing.T) {
	t.Parallel()
	for _, v := range []any{1, nil, []any{1}, map[string]any{">": 1}} {
		_, err := newTestCondition(WithStrict(true)).Add("foo", v).AsSQL()
		testutil.AssertErrorIs(t, err, nodes.ErrStrictMode)
	}
}

func TestConditionStrictAcceptsNodes(t *testing.T) {
	t.Parallel()
	c := newTestCondition(WithStrict(true)).
		Add("foo", nodes.Eq(1)).
		Add("bar", nodes.In(1, 2))

	sql, err := c.AsSQL()
	testutil.AssertSQL(t, sql, err, "(`foo` = ?) AND (`bar` IN (?,?))")
	testutil.AssertBinds(t, c.Bind(), []any{1, 1, 2})
}

// --- Empty ---

func TestConditionEmptyRendersNothing(t *testing.T) {
	t.Parallel()
	c := newTestCondition()
	sql, err := c.AsSQL()
	testutil.AssertSQL(t, sql, err, "")
	if !c.IsEmpty() {
		t.Error("expected empty condition")
	}
}

// --- Compose ---

func composeFixtures() (*Condition, *Condition) {
	w1 := NewCondition().Add("x", 1).Add("y", 2)
	w2 := NewCondition().Add("a", 3).Add("b", 4)
	return w1, w2
}

func TestConditionAndComposition(t *testing.T) {
	t.Parallel()
	w1, w2 := composeFixtures()

	w := w1.And(w2)
	sql, err := w.AsSQL()
	testutil.AssertSQL(t, sql, err, "((x = ?) AND (y = ?)) AND ((a = ?) AND (b = ?))")
	testutil.AssertBinds(t, w.Bind(), []any{1, 2, 3, 4})

	w.Add("z", 99)
	sql, err = w.AsSQL()
	testutil.AssertSQL(t, sql, err, "((x = ?) AND (y = ?)) AND ((a = ?) AND (b = ?)) AND (z = ?)")
	testutil.AssertBinds(t, w.Bind(), []any{1, 2, 3, 4, 99})
}

func TestConditionOrComposition(t *testing.T) {
	t.Parallel()
	w1, w2 := composeFixtures()

	w := w1.Or(w2)
	sql, err := w.AsSQL()
	testutil.AssertSQL(t, sql, err, "(((x = ?) AND (y = ?)) OR ((a = ?) AND (b = ?)))")
	testutil.AssertBinds(t, w.Bind(), []any{1, 2, 3, 4})

	w.Add("z", 99)
	sql, err = w.AsSQL()
	testutil.AssertSQL(t, sql, err, "(((x = ?) AND (y = ?)) OR ((a = ?) AND (b = ?))) AND (z = ?)")
}

func TestConditionComposeLeavesOperandsUntouched(t *testing.T) {
	t.Parallel()
	w1, w2 := composeFixtures()
	_ = w1.Or(w2).Add("z", 99)

	sql, err := w1.AsSQL()
	testutil.AssertSQL(t, sql, err, "(x = ?) AND (y = ?)")
	testutil.AssertBinds(t, w2.Bind(), []any{3, 4})
}

func TestConditionComposeWithEmpty(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		compose func(a, empty *Condition) *Condition
	}{
		{"and before", func(a, e *Condition) *Condition { return a.And(e) }},
		{"and after", func(a, e *Condition) *Condition { return e.And(a) }},
		{"or before", func(a, e *Condition) *Condition { return a.Or(e) }},
		{"or after", func(a, e *Condition) *Condition { return e.Or(a) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w1, _ := composeFixtures()
			w := tc.compose(w1, NewCondition())

			sql, err := w.AsSQL()
			testutil.AssertSQL(t, sql, err, "((x = ?) AND (y = ?))")
			testutil.AssertBinds(t, w.Bind(), []any{1, 2})
		})
	}
}

func TestConditionComposeBothEmpty(t *testing.T) {
	t.Parallel()
	w := NewCondition().And(NewCondition())
	if !w.IsEmpty() {
		t.Fatal("expected empty composition")
	}
	w.Add("z", 99)
	sql, err := w.AsSQL()
	testutil.AssertSQL(t, sql, err, "(z = ?)")

	if !NewCondition().Or(nil).IsEmpty() {
		t.Error("expected nil operand to act as empty")
	}
}

func TestConditionComposePropagatesErrors(t *testing.T) {
	t.Parallel()
	bad := NewCondition().Add("a", map[string]any{"between": 1})
	_, err := NewCondition().Add("b", 1).And(bad).AsSQL()
	testutil.AssertErrorIs(t, err, nodes.ErrMalformedOperand)
}

// --- Clone ---

func TestConditionCloneIsIndependent(t *testing.T) {
	t.Parallel()
	c := newTestCondition().Add("a", 1)
	clone := c.Clone().Add("b", 2)

	sql, err := c.AsSQL()
	testutil.AssertSQL(t, sql, err, "(`a` = ?)")
	sql, err = clone.AsSQL()
	testutil.AssertSQL(t, sql, err, "(`a` = ?) AND (`b` = ?)")
}

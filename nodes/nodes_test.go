package nodes

import (
	"errors"
	"reflect"
	"testing"
)

type stubStatement struct {
	sql   string
	binds []any
}

func (s stubStatement) AsSQL() (string, error) { return s.sql, nil }
func (s stubStatement) Bind() []any            { return s.binds }

func render(t *testing.T, n *Node, column string) string {
	t.Helper()
	got, err := n.AsSQL(column, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got
}

func assertBinds(t *testing.T, got, want []any) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("binds: expected %#v, got %#v", want, got)
	}
}

// --- Comparisons ---

func TestComparisonTemplates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		node  *Node
		want  string
		binds []any
	}{
		{"eq", Eq("bar"), "`foo` = ?", []any{"bar"}},
		{"ne", Ne("bar"), "`foo` != ?", []any{"bar"}},
		{"lt", Lt(3), "`foo` < ?", []any{3}},
		{"gt", Gt(3), "`foo` > ?", []any{3}},
		{"le", Le(3), "`foo` <= ?", []any{3}},
		{"ge", Ge(3), "`foo` >= ?", []any{3}},
		{"like", Like("xaic"), "`foo` LIKE ?", []any{"xaic"}},
		{"between", Between("1", "2"), "`foo` BETWEEN ? AND ?", []any{"1", "2"}},
		{"not between", NotBetween(1, 2), "`foo` NOT BETWEEN ? AND ?", []any{1, 2}},
		{"is null", IsNull(), "`foo` IS NULL", nil},
		{"is not null", IsNotNull(), "`foo` IS NOT NULL", nil},
		{"not", Not(), "NOT `foo`", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := render(t, tt.node, "foo"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			assertBinds(t, tt.node.Bind(), tt.binds)
		})
	}
}

func TestComparisonWithLeadingColumn(t *testing.T) {
	t.Parallel()
	n := Between("age", 18, 65)
	if n.Column() != "age" {
		t.Fatalf("expected column age, got %q", n.Column())
	}
	if got := render(t, n, ""); got != "`age` BETWEEN ? AND ?" {
		t.Errorf("unexpected SQL: %s", got)
	}
	assertBinds(t, n.Bind(), []any{18, 65})

	if got := render(t, IsNull("deleted_at"), ""); got != "`deleted_at` IS NULL" {
		t.Errorf("unexpected SQL: %s", got)
	}
}

func TestComparisonArityMismatch(t *testing.T) {
	t.Parallel()
	for _, n := range []*Node{Between(1), Eq(), IsNull("a", "b"), Between("a", 1, 2, 3)} {
		if !errors.Is(n.Err(), ErrArityMismatch) {
			t.Errorf("expected ErrArityMismatch, got %v", n.Err())
		}
		if _, err := n.AsSQL("foo", nil); !errors.Is(err, ErrArityMismatch) {
			t.Errorf("AsSQL: expected ErrArityMismatch, got %v", err)
		}
	}
}

func TestComparisonColumnMustBeString(t *testing.T) {
	t.Parallel()
	if err := Eq(1, 2).Err(); !errors.Is(err, ErrMalformedOperand) {
		t.Errorf("expected ErrMalformedOperand, got %v", err)
	}
}

func TestCompareUnknownOperator(t *testing.T) {
	t.Parallel()
	if err := Compare("regexp", "x").Err(); !errors.Is(err, ErrMalformedOperand) {
		t.Errorf("expected ErrMalformedOperand, got %v", err)
	}
}

func TestOperatorsSorted(t *testing.T) {
	t.Parallel()
	ops := Operators()
	if len(ops) != 12 {
		t.Fatalf("expected 12 operators, got %d", len(ops))
	}
	if ops[0] != "between" || ops[len(ops)-1] != "not_between" {
		t.Errorf("unexpected order: %v", ops)
	}
}

func TestInvalidBindValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		node *Node
	}{
		{"slice", Eq([]int{1, 2, 3})},
		{"map", Eq(map[string]int{"a": 1})},
		{"nested in", In([]int{1, 2, 3}, 4)},
		{"raw", Raw("x = ?", []any{1})},
		{"op", Op("= ?", []string{"a"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !errors.Is(tt.node.Err(), ErrInvalidBind) {
				t.Errorf("expected ErrInvalidBind, got %v", tt.node.Err())
			}
		})
	}
}

func TestBytesAreScalar(t *testing.T) {
	t.Parallel()
	if err := Eq([]byte("blob")).Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestComparisonWithoutColumn(t *testing.T) {
	t.Parallel()
	if _, err := Eq(1).AsSQL("", nil); !errors.Is(err, ErrNoColumn) {
		t.Errorf("expected ErrNoColumn, got %v", err)
	}
}

// --- Column binding ---

func TestBindColumnConflict(t *testing.T) {
	t.Parallel()
	n := Eq("foo", 1)
	if err := n.BindColumn("foo"); err != nil {
		t.Errorf("rebinding the same column: %v", err)
	}
	if err := n.BindColumn("bar"); !errors.Is(err, ErrRebindConflict) {
		t.Errorf("expected ErrRebindConflict, got %v", err)
	}
	if _, err := n.AsSQL("bar", nil); !errors.Is(err, ErrRebindConflict) {
		t.Errorf("expected ErrRebindConflict from AsSQL, got %v", err)
	}
}

func TestOnReturnsCopy(t *testing.T) {
	t.Parallel()
	base := Lt(3)
	bound := base.On("size")
	if base.Column() != "" {
		t.Errorf("On mutated the receiver: %q", base.Column())
	}
	if got := render(t, bound, ""); got != "`size` < ?" {
		t.Errorf("unexpected SQL: %s", got)
	}
	if err := bound.On("other").Err(); !errors.Is(err, ErrRebindConflict) {
		t.Errorf("expected ErrRebindConflict, got %v", err)
	}
}

func TestAsSQLDoesNotBindPermanently(t *testing.T) {
	t.Parallel()
	n := Eq(1)
	render(t, n, "a")
	if got := render(t, n, "b"); got != "`b` = ?" {
		t.Errorf("unexpected SQL: %s", got)
	}
}

func TestCustomQuote(t *testing.T) {
	t.Parallel()
	q := func(s string) string { return `"` + s + `"` }
	got, err := Eq(1).AsSQL("foo", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `"foo" = ?` {
		t.Errorf("unexpected SQL: %s", got)
	}
}

func TestQualifiedColumn(t *testing.T) {
	t.Parallel()
	if got := render(t, Eq(1), "t.foo"); got != "`t`.`foo` = ?" {
		t.Errorf("unexpected SQL: %s", got)
	}
}

// --- Op / Raw ---

func TestOp(t *testing.T) {
	t.Parallel()
	n := Op("IN (SELECT foo_id FROM bar WHERE t=?)", 44)
	if got := render(t, n, "foo_id"); got != "`foo_id` IN (SELECT foo_id FROM bar WHERE t=?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
	assertBinds(t, n.Bind(), []any{44})

	m := Op("MATCH (@) AGAINST (?)", "oranges").On("apples")
	if got := render(t, m, ""); got != "MATCH (`apples`) AGAINST (?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
}

func TestOpArity(t *testing.T) {
	t.Parallel()
	if err := Op("BETWEEN ? AND ?", 1).Err(); !errors.Is(err, ErrArityMismatch) {
		t.Errorf("expected ErrArityMismatch, got %v", err)
	}
}

func TestRawIgnoresColumn(t *testing.T) {
	t.Parallel()
	n := Raw("COUNT(*) > ?", 3)
	if got := render(t, n, "foo"); got != "COUNT(*) > ?" {
		t.Errorf("unexpected SQL: %s", got)
	}
	if n.Kind() != KindRaw || n.Kind().String() != "raw" {
		t.Errorf("unexpected kind %s", n.Kind())
	}
}

// --- Logical ---

func TestAndOrOverList(t *testing.T) {
	t.Parallel()
	or := Or(Gt("bar"), Lt("baz"))
	if got := render(t, or, "foo"); got != "(`foo` > ?) OR (`foo` < ?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
	and := And(Gt("bar"), Lt("baz"))
	if got := render(t, and, "foo"); got != "(`foo` > ?) AND (`foo` < ?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
	assertBinds(t, and.Bind(), []any{"bar", "baz"})
}

func TestAndPairsKeepsOrder(t *testing.T) {
	t.Parallel()
	n := AndPairs(KV("foo", 1, "bar", Eq(2), "baz", Lt(3)))
	if got := render(t, n, ""); got != "(`foo` = ?) AND (`bar` = ?) AND (`baz` < ?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
	assertBinds(t, n.Bind(), []any{1, 2, 3})
}

func TestOrPairs(t *testing.T) {
	t.Parallel()
	n := OrPairs(KV("a", 1, "b", IsNull()))
	if got := render(t, n, ""); got != "(`a` = ?) OR (`b` IS NULL)" {
		t.Errorf("unexpected SQL: %s", got)
	}
}

func TestAndPairsRebindConflict(t *testing.T) {
	t.Parallel()
	n := AndPairs(KV("foo", Eq("bar", 1)))
	if !errors.Is(n.Err(), ErrRebindConflict) {
		t.Errorf("expected ErrRebindConflict, got %v", n.Err())
	}
}

func TestAndOnColumn(t *testing.T) {
	t.Parallel()
	n := AndOn("size", Gt(3), 7, Lt(10))
	if got := render(t, n, ""); got != "(`size` > ?) AND (`size` = ?) AND (`size` < ?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
	assertBinds(t, n.Bind(), []any{3, 7, 10})

	o := OrOn("name", "a", "b")
	if got := render(t, o, ""); got != "(`name` = ?) OR (`name` = ?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
}

func TestEmptyLogical(t *testing.T) {
	t.Parallel()
	if got := render(t, And(), "x"); got != "0=1" {
		t.Errorf("empty AND: %s", got)
	}
	if got := render(t, Or(), "x"); got != "1=1" {
		t.Errorf("empty OR: %s", got)
	}
}

func TestLogicalNilTerm(t *testing.T) {
	t.Parallel()
	if err := And(Eq(1), nil).Err(); !errors.Is(err, ErrMalformedOperand) {
		t.Errorf("expected ErrMalformedOperand, got %v", err)
	}
}

func TestNestedLogical(t *testing.T) {
	t.Parallel()
	n := Or(And(Gt(1), Lt(5)), Eq(9))
	if got := render(t, n, "x"); got != "((`x` > ?) AND (`x` < ?)) OR (`x` = ?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
	assertBinds(t, n.Bind(), []any{1, 5, 9})
}

// --- Membership ---

func TestIn(t *testing.T) {
	t.Parallel()
	n := In("bar", "baz")
	if got := render(t, n, "foo"); got != "`foo` IN (?,?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
	assertBinds(t, n.Bind(), []any{"bar", "baz"})

	if got := render(t, NotIn("bar", "baz"), "foo"); got != "`foo` NOT IN (?,?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
}

func TestInEmpty(t *testing.T) {
	t.Parallel()
	if got := render(t, In(), "foo"); got != "0=1" {
		t.Errorf("empty IN: %s", got)
	}
	if got := render(t, NotIn(), "foo"); got != "1=1" {
		t.Errorf("empty NOT IN: %s", got)
	}
	if len(In().Bind()) != 0 {
		t.Error("empty IN must not bind")
	}
}

func TestInPlaceholderCount(t *testing.T) {
	t.Parallel()
	for size := 0; size < 5; size++ {
		vals := make([]any, size)
		for i := range vals {
			vals[i] = i
		}
		n := In(vals...)
		got := render(t, n, "c")
		count := 0
		for _, r := range got {
			if r == '?' {
				count++
			}
		}
		if count != size || len(n.Bind()) != size {
			t.Errorf("size %d: %d placeholders, %d binds (%s)", size, count, len(n.Bind()), got)
		}
	}
}

func TestInWithNodesAndSubquery(t *testing.T) {
	t.Parallel()
	sub := stubStatement{sql: "SELECT id FROM t WHERE x = ?", binds: []any{5}}
	n := In(1, Raw("?", 2), Raw("SELECT 3"), sub)
	if got := render(t, n, "foo"); got != "`foo` IN (?,?,(SELECT 3),(SELECT id FROM t WHERE x = ?))" {
		t.Errorf("unexpected SQL: %s", got)
	}
	assertBinds(t, n.Bind(), []any{1, 2, 5})
}

func TestInWithoutColumn(t *testing.T) {
	t.Parallel()
	if _, err := In(1).AsSQL("", nil); !errors.Is(err, ErrNoColumn) {
		t.Errorf("expected ErrNoColumn, got %v", err)
	}
	if got := render(t, In(1).On("x"), ""); got != "`x` IN (?)" {
		t.Errorf("unexpected SQL: %s", got)
	}
}

// --- Operands ---

func TestParseOperand(t *testing.T) {
	t.Parallel()
	sub := stubStatement{sql: "SELECT 1"}
	tests := []struct {
		name string
		in   any
		want Operand
	}{
		{"nil", nil, Scalar{}},
		{"scalar", 3, Scalar{V: 3}},
		{"list", []any{1, 2}, InList{Values: []any{1, 2}}},
		{"typed list", []string{"a"}, InList{Values: []any{"a"}}},
		{"empty list", []any{}, InList{Values: []any{}}},
		{"compare", map[string]any{">": 3}, Cmp{Op: ">", V: 3}},
		{"lower op", map[string]any{"like": "a%"}, Cmp{Op: "LIKE", V: "a%"}},
		{"in", map[string]any{"in": []any{1}}, InList{Values: []any{1}}},
		{"in scalar", map[string]any{"IN": 1}, InList{Values: []any{1}}},
		{"not in", map[string]any{"not in": []any{1}}, InList{Not: true, Values: []any{1}}},
		{"in query", map[string]any{"in": sub}, InQuery{Query: sub}},
		{"between", map[string]any{"between": []any{1, 2}}, Range{Low: 1, High: 2}},
		{"typed map", map[string]int{"<": 4}, Cmp{Op: "<", V: 4}},
		{
			"list of mappings",
			[]any{map[string]any{">": 1}, map[string]any{"<": 2}},
			Group{Op: "OR", Terms: []Operand{Cmp{Op: ">", V: 1}, Cmp{Op: "<", V: 2}}},
		},
		{
			"and",
			map[string]any{"and": []any{map[string]any{">": 1}, 3}},
			Group{Op: "AND", Terms: []Operand{Cmp{Op: ">", V: 1}, Scalar{V: 3}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseOperand(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestParseOperandNodePassesThrough(t *testing.T) {
	t.Parallel()
	n := Eq(1)
	got, err := ParseOperand(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Operand(n) {
		t.Error("expected the node itself")
	}
}

func TestParseOperandErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   any
	}{
		{"between arity", map[string]any{"between": []any{1}}},
		{"between scalar", map[string]any{"BETWEEN": 1}},
		{"two keys", map[string]any{">": 1, "<": 2}},
		{"and scalar", map[string]any{"and": 1}},
		{"non-string keys", map[int]any{1: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseOperand(tt.in); !errors.Is(err, ErrMalformedOperand) {
				t.Errorf("expected ErrMalformedOperand, got %v", err)
			}
		})
	}
}

// --- Pairs ---

func TestKV(t *testing.T) {
	t.Parallel()
	p := KV("a", 1, "b", nil)
	want := Pairs{{Column: "a", Value: 1}, {Column: "b", Value: nil}}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("expected %#v, got %#v", want, p)
	}
	p2 := p.Add("c", 3)
	if len(p) != 2 || len(p2) != 3 {
		t.Errorf("Add must not grow the receiver: %d, %d", len(p), len(p2))
	}
}

func TestKVPanicsOnOddArgs(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	KV("a")
}

func TestParseKV(t *testing.T) {
	t.Parallel()
	got, err := ParseKV("a", 1, "b", Eq(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Column != "a" || got[1].Column != "b" {
		t.Errorf("unexpected pairs: %#v", got)
	}
	if _, err := ParseKV("a"); !errors.Is(err, ErrMalformedOperand) {
		t.Errorf("odd args: expected ErrMalformedOperand, got %v", err)
	}
	if _, err := ParseKV(1, "a"); !errors.Is(err, ErrMalformedOperand) {
		t.Errorf("non-string column: expected ErrMalformedOperand, got %v", err)
	}
}

func TestToPairs(t *testing.T) {
	t.Parallel()
	got, err := ToPairs(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, KV("a", 1, "b", 2)) {
		t.Errorf("map pairs must be sorted: %#v", got)
	}
	got, err = ToPairs([]any{"x", 3, "y", 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, KV("x", 3, "y", 4)) {
		t.Errorf("unexpected pairs: %#v", got)
	}
	if _, err := ToPairs([]any{"x"}); !errors.Is(err, ErrMalformedOperand) {
		t.Errorf("expected ErrMalformedOperand, got %v", err)
	}
	if _, err := ToPairs(42); !errors.Is(err, ErrMalformedOperand) {
		t.Errorf("expected ErrMalformedOperand, got %v", err)
	}
	if p, err := ToPairs(nil); err != nil || p != nil {
		t.Errorf("nil: %v, %v", p, err)
	}
}

// --- Inline binding ---

func TestBindParam(t *testing.T) {
	t.Parallel()
	got, err := BindParam("DELETE FROM `foo` WHERE (`bar` = ?) AND (`n` = ?) AND (`z` IS ?)", []any{"t' OR 't' = 't", 3, nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "DELETE FROM `foo` WHERE (`bar` = 't'' OR ''t'' = ''t') AND (`n` = 3) AND (`z` IS NULL)"
	if got != want {
		t.Errorf("expected:\n  %s\ngot:\n  %s", want, got)
	}
}

func TestBindParamArityMismatch(t *testing.T) {
	t.Parallel()
	if _, err := BindParam("a = ? AND b = ?", []any{1}); !errors.Is(err, ErrArityMismatch) {
		t.Errorf("expected ErrArityMismatch, got %v", err)
	}
}

// --- Set operations ---

func TestSetOpType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want SetOpType
	}{
		{"union", Union},
		{"union_all", UnionAll},
		{"INTERSECT ALL", IntersectAll},
		{"except", Except},
		{"Except_All", ExceptAll},
	}
	for _, tt := range tests {
		got, err := ParseSetOp(tt.in)
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.in, tt.want, got)
		}
	}
	if _, err := ParseSetOp("merge"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if SetOpType(42).Valid() {
		t.Error("42 must not be valid")
	}
	if UnionAll.String() != "UNION ALL" {
		t.Errorf("unexpected keyword %q", UnionAll.String())
	}
}

package managers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bawdo/sqlmaker/nodes"
)

// Condition accumulates parenthesized terms that render joined by AND.
// It is used for WHERE and HAVING clauses.
type Condition struct {
	treeManager
	sqls  []string
	binds []any
}

// NewCondition creates an empty Condition.
func NewCondition(opts ...Option) *Condition {
	return &Condition{treeManager: newTreeManager(opts)}
}

// Add appends one term for column. value may be a *nodes.Node, any
// nodes.Operand, or a plain Go value interpreted by nodes.ParseOperand:
//
//	c.Add("foo", "bar")                          // (foo = ?)
//	c.Add("foo", []any{1, 2})                    // (foo IN (?, ?))
//	c.Add("foo", map[string]any{">": 3})         // (foo > ?)
//	c.Add("foo", map[string]any{"between": []any{1, 2}})
//	c.Add("foo", nil)                            // (foo IS NULL)
//
// In strict mode only nodes are accepted.
func (c *Condition) Add(column string, value any) *Condition {
	return c.add(column, value, c.quote)
}

// addExpr is Add with column taken as an SQL expression, not quoted.
// exprBinds belong to expr and precede the value's binds.
func (c *Condition) addExpr(expr string, exprBinds []any, value any) *Condition {
	if c.err != nil {
		return c
	}
	if len(exprBinds) > 0 && !strings.Contains(expr, "?") {
		c.fail(fmt.Errorf("%w: expression %q has binds but no placeholder", nodes.ErrArityMismatch, expr))
		return c
	}
	before := len(c.binds)
	c.add(expr, value, func(s string) string { return s })
	if c.err == nil && len(exprBinds) > 0 {
		c.binds = slices.Insert(c.binds, before, exprBinds...)
	}
	return c
}

func (c *Condition) add(column string, value any, quote nodes.QuoteFunc) *Condition {
	if c.err != nil {
		return c
	}
	op, err := nodes.ParseOperand(value)
	if err != nil {
		c.fail(fmt.Errorf("%s: %w", column, err))
		return c
	}
	term, binds, err := c.makeTerm(column, op, quote)
	if err != nil {
		c.fail(err)
		return c
	}
	c.sqls = append(c.sqls, "("+term+")")
	c.binds = append(c.binds, binds...)
	return c
}

// AddPairs calls Add for every pair in order.
func (c *Condition) AddPairs(pairs nodes.Pairs) *Condition {
	for _, p := range pairs {
		c.Add(p.Column, p.Value)
	}
	return c
}

// AddRaw appends sql verbatim as a term.
func (c *Condition) AddRaw(sql string, binds ...any) *Condition {
	if c.err != nil {
		return c
	}
	n := nodes.Raw(sql, binds...)
	if err := n.Err(); err != nil {
		c.fail(err)
		return c
	}
	c.sqls = append(c.sqls, "("+sql+")")
	c.binds = append(c.binds, binds...)
	return c
}

// makeTerm compiles one operand against column.
func (c *Condition) makeTerm(column string, op nodes.Operand, quote nodes.QuoteFunc) (string, []any, error) {
	if n, ok := op.(*nodes.Node); ok {
		sql, err := n.AsSQL(column, quote)
		if err != nil {
			return "", nil, err
		}
		return sql, n.Bind(), nil
	}
	if c.strict {
		return "", nil, fmt.Errorf("%w: cannot pass in an unblessed ref as an argument in strict mode", nodes.ErrStrictMode)
	}
	return c.compileOperand(column, op, quote)
}

func (c *Condition) compileOperand(column string, op nodes.Operand, quote nodes.QuoteFunc) (string, []any, error) {
	col := quote(column)

	switch o := op.(type) {
	case nodes.Scalar:
		if o.V == nil {
			return col + " IS NULL", nil, nil
		}
		if err := nodes.ValidateBind(o.V); err != nil {
			return "", nil, err
		}
		return col + " = ?", []any{o.V}, nil

	case nodes.Cmp:
		if err := nodes.ValidateBind(o.V); err != nil {
			return "", nil, err
		}
		return col + " " + strings.ToUpper(o.Op) + " ?", []any{o.V}, nil

	case nodes.Range:
		for _, v := range []any{o.Low, o.High} {
			if err := nodes.ValidateBind(v); err != nil {
				return "", nil, err
			}
		}
		kw := " BETWEEN ? AND ?"
		if o.Not {
			kw = " NOT BETWEEN ? AND ?"
		}
		return col + kw, []any{o.Low, o.High}, nil

	case nodes.InList:
		if len(o.Values) == 0 {
			if o.Not {
				return "1=1", nil, nil
			}
			return "0=1", nil, nil
		}
		marks := make([]string, len(o.Values))
		var binds []any
		for i, v := range o.Values {
			mark, b, err := memberSQL(v, quote)
			if err != nil {
				return "", nil, err
			}
			marks[i] = mark
			binds = append(binds, b...)
		}
		return col + " " + inKeyword(o.Not) + " (" + strings.Join(marks, ", ") + ")", binds, nil

	case nodes.InQuery:
		if o.Query == nil {
			return "", nil, fmt.Errorf("%w: %s: nil sub-query", nodes.ErrMalformedOperand, column)
		}
		sub, err := o.Query.AsSQL()
		if err != nil {
			return "", nil, err
		}
		return col + " " + inKeyword(o.Not) + " (" + sub + ")", o.Query.Bind(), nil

	case nodes.Group:
		kw := strings.ToUpper(o.Op)
		if kw != "AND" && kw != "OR" {
			return "", nil, fmt.Errorf("%w: unknown group operator %q", nodes.ErrMalformedOperand, o.Op)
		}
		if len(o.Terms) == 0 {
			if kw == "AND" {
				return "0=1", nil, nil
			}
			return "1=1", nil, nil
		}
		parts := make([]string, len(o.Terms))
		var binds []any
		for i, t := range o.Terms {
			sql, b, err := c.makeTerm(column, t, quote)
			if err != nil {
				return "", nil, err
			}
			parts[i] = "(" + sql + ")"
			binds = append(binds, b...)
		}
		return strings.Join(parts, " "+kw+" "), binds, nil
	}
	return "", nil, fmt.Errorf("%w: unsupported operand %T", nodes.ErrMalformedOperand, op)
}

// memberSQL renders one IN-list member. Nodes other than a bare "?"
// and statements are parenthesized; their binds are spliced in.
func memberSQL(v any, quote nodes.QuoteFunc) (string, []any, error) {
	switch x := v.(type) {
	case *nodes.Node:
		if x == nil {
			return "", nil, fmt.Errorf("%w: nil node in IN list", nodes.ErrMalformedOperand)
		}
		s, err := x.AsSQL("", quote)
		if err != nil {
			return "", nil, err
		}
		if s != "?" {
			s = "(" + s + ")"
		}
		return s, x.Bind(), nil
	case nodes.Statement:
		s, err := x.AsSQL()
		if err != nil {
			return "", nil, err
		}
		return "(" + s + ")", x.Bind(), nil
	}
	if err := nodes.ValidateBind(v); err != nil {
		return "", nil, err
	}
	return "?", []any{v}, nil
}

func inKeyword(not bool) string {
	if not {
		return "NOT IN"
	}
	return "IN"
}

// AsSQL renders the terms joined by AND. An empty Condition renders "".
func (c *Condition) AsSQL() (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return strings.Join(c.sqls, " AND "), nil
}

// Bind returns the bind values in placeholder order.
func (c *Condition) Bind() []any { return slices.Clone(c.binds) }

// IsEmpty reports whether no term has been added.
func (c *Condition) IsEmpty() bool { return len(c.sqls) == 0 }

// Clone returns an independent copy.
func (c *Condition) Clone() *Condition {
	return &Condition{
		treeManager: c.treeManager,
		sqls:        slices.Clone(c.sqls),
		binds:       slices.Clone(c.binds),
	}
}

// And combines c and other into a new Condition holding one term,
// "(c) AND (other)". When one side is empty the result holds the other
// side parenthesized; when both are empty it is empty.
func (c *Condition) And(other *Condition) *Condition {
	return c.compose(other, func(a, b string) string {
		return "(" + a + ") AND (" + b + ")"
	})
}

// Or combines c and other into "((c) OR (other))".
func (c *Condition) Or(other *Condition) *Condition {
	return c.compose(other, func(a, b string) string {
		return "((" + a + ") OR (" + b + "))"
	})
}

func (c *Condition) compose(other *Condition, join func(a, b string) string) *Condition {
	out := &Condition{treeManager: c.treeManager}
	if other == nil {
		other = NewCondition()
	}
	if other.err != nil {
		out.fail(other.err)
	}
	if out.err != nil {
		return out
	}

	a, _ := c.AsSQL()
	b, _ := other.AsSQL()
	switch {
	case c.IsEmpty() && other.IsEmpty():
		return out
	case c.IsEmpty():
		out.sqls = []string{"(" + b + ")"}
	case other.IsEmpty():
		out.sqls = []string{"(" + a + ")"}
	default:
		out.sqls = []string{join(a, b)}
	}
	out.binds = append(c.Bind(), other.Bind()...)
	return out
}

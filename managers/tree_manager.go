package managers

import (
	"fmt"
	"strings"

	"github.com/bawdo/sqlmaker/internal/quoting"
	"github.com/bawdo/sqlmaker/nodes"
)

// treeManager is the shared base for all builders. It holds the quoting
// and layout settings and the first error recorded by a fluent call.
type treeManager struct {
	quoteChar string
	nameSep   string
	newLine   string
	strict    bool
	err       error
}

// Option configures a builder.
type Option func(*treeManager)

// WithQuoteChar sets the identifier quote character. Default is none.
func WithQuoteChar(q string) Option {
	return func(tm *treeManager) { tm.quoteChar = q }
}

// WithNameSep sets the separator between qualified name parts. Default
// is ".". An empty separator disables identifier quoting.
func WithNameSep(sep string) Option {
	return func(tm *treeManager) { tm.nameSep = sep }
}

// WithNewLine sets the text placed between clauses. Default is "\n".
func WithNewLine(nl string) Option {
	return func(tm *treeManager) { tm.newLine = nl }
}

// WithStrict rejects condition and value shapes that are not nodes.
func WithStrict(on bool) Option {
	return func(tm *treeManager) { tm.strict = on }
}

func newTreeManager(opts []Option) treeManager {
	tm := treeManager{nameSep: ".", newLine: "\n"}
	for _, o := range opts {
		o(&tm)
	}
	return tm
}

// options reproduces the settings for a child builder.
func (tm *treeManager) options() []Option {
	return []Option{
		WithQuoteChar(tm.quoteChar),
		WithNameSep(tm.nameSep),
		WithNewLine(tm.newLine),
		WithStrict(tm.strict),
	}
}

// QuoteChar returns the identifier quote character.
func (tm *treeManager) QuoteChar() string { return tm.quoteChar }

// NameSep returns the qualified name separator.
func (tm *treeManager) NameSep() string { return tm.nameSep }

// NewLine returns the clause separator.
func (tm *treeManager) NewLine() string { return tm.newLine }

// Strict reports whether strict mode is on.
func (tm *treeManager) Strict() bool { return tm.strict }

// Err returns the first error recorded while building.
func (tm *treeManager) Err() error { return tm.err }

func (tm *treeManager) quote(label string) string {
	return quoting.Identifier(label, tm.quoteChar, tm.nameSep)
}

func (tm *treeManager) fail(err error) {
	if tm.err == nil {
		tm.err = err
	}
}

// valueSQL renders one INSERT or SET value: nodes render in place, a
// []any{stmt, binds...} is a raw statement and anything else is a
// placeholder.
func (tm *treeManager) valueSQL(v any) (string, []any, error) {
	if n, ok := v.(*nodes.Node); ok {
		s, err := n.AsSQL("", tm.quote)
		if err != nil {
			return "", nil, err
		}
		return s, n.Bind(), nil
	}
	if tm.strict {
		return "", nil, fmt.Errorf("%w: cannot pass in an unblessed ref as an argument in strict mode", nodes.ErrStrictMode)
	}
	if raw, ok := v.([]any); ok && len(raw) > 0 {
		if stmt, ok := raw[0].(string); ok {
			n := nodes.Raw(stmt, raw[1:]...)
			if n.Err() != nil {
				return "", nil, n.Err()
			}
			return stmt, n.Bind(), nil
		}
	}
	if err := nodes.ValidateBind(v); err != nil {
		return "", nil, err
	}
	return "?", []any{v}, nil
}

// whereClause renders " WHERE ..." or "" for an empty condition.
func whereClause(c *Condition) (string, []any, error) {
	if c == nil {
		return "", nil, nil
	}
	sql, err := c.AsSQL()
	if err != nil {
		return "", nil, err
	}
	if sql == "" {
		return "", nil, nil
	}
	return " WHERE " + sql, c.Bind(), nil
}

// trimNewLines drops trailing clause separators.
func trimNewLines(sql, nl string) string {
	if nl == "" {
		return sql
	}
	for strings.HasSuffix(sql, nl) {
		sql = strings.TrimSuffix(sql, nl)
	}
	return sql
}

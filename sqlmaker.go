// Package sqlmaker builds parameterized SQL statements: a SQL string plus
// the ordered list of values bound to its "?" placeholders. It never
// talks to a database.
//
// A Maker carries the settings for one driver and renders whole
// statements from plain Go values:
//
//	mk, _ := sqlmaker.New("mysql")
//	sql, binds, _ := mk.Select("user", []any{"*"}, sqlmaker.KV("name", "john"), &sqlmaker.SelectOptions{
//	    OrderBy: []sqlmaker.Order{{Column: "user_id", Type: "DESC"}},
//	})
//	// SELECT *
//	// FROM `user`
//	// WHERE (`name` = ?)
//	// ORDER BY `user_id` DESC
//	// [john]
//
// The builders behind it live in subpackages and can be used directly:
//   - github.com/bawdo/sqlmaker/managers (statement and condition builders)
//   - github.com/bawdo/sqlmaker/nodes (expression nodes)
//   - github.com/bawdo/sqlmaker/dialects (per-driver settings)
//   - github.com/bawdo/sqlmaker/plugins (statement transformers)
package sqlmaker

import (
	"fmt"
	"strings"

	"github.com/bawdo/sqlmaker/dialects"
	"github.com/bawdo/sqlmaker/managers"
	"github.com/bawdo/sqlmaker/nodes"
	"github.com/bawdo/sqlmaker/plugins"
)

// Maker renders statements for one driver.
type Maker struct {
	driver       string
	dialect      dialects.Dialect
	quoteChar    string
	nameSep      string
	newLine      string
	strict       bool
	autoBind     bool
	transformers []plugins.Transformer
}

// Option configures a Maker.
type Option func(*Maker)

// WithQuoteChar overrides the driver's identifier quote character. An
// empty string disables quoting.
func WithQuoteChar(q string) Option {
	return func(mk *Maker) { mk.quoteChar = q }
}

// WithNameSep sets the separator between qualified name parts. Default ".".
func WithNameSep(sep string) Option {
	return func(mk *Maker) { mk.nameSep = sep }
}

// WithNewLine sets the clause separator. Default "\n".
func WithNewLine(nl string) Option {
	return func(mk *Maker) { mk.newLine = nl }
}

// WithStrict requires every condition and value to be a *nodes.Node.
func WithStrict(on bool) Option {
	return func(mk *Maker) { mk.strict = on }
}

// WithAutoBind substitutes the binds into the SQL as escaped literals
// and returns no binds.
//
// SECURITY: inline literals are for logging and tooling. Hand the binds
// to the driver when executing.
func WithAutoBind(on bool) Option {
	return func(mk *Maker) { mk.autoBind = on }
}

// New creates a Maker for driver. The driver picks the default quote
// character and the dialect details (see dialects.Lookup).
func New(driver string, opts ...Option) (*Maker, error) {
	if strings.TrimSpace(driver) == "" {
		return nil, fmt.Errorf("%w: driver is required for creating new instance of sqlmaker", ErrConfiguration)
	}
	d := dialects.Lookup(driver)
	mk := &Maker{
		driver:    d.Name,
		dialect:   d,
		quoteChar: d.QuoteChar,
		nameSep:   ".",
		newLine:   "\n",
	}
	for _, o := range opts {
		o(mk)
	}
	return mk, nil
}

// Driver returns the driver name given to New.
func (mk *Maker) Driver() string { return mk.driver }

// Dialect returns the dialect looked up for the driver.
func (mk *Maker) Dialect() dialects.Dialect { return mk.dialect }

// QuoteChar returns the identifier quote character in effect.
func (mk *Maker) QuoteChar() string { return mk.quoteChar }

// NameSep returns the qualified-name separator.
func (mk *Maker) NameSep() string { return mk.nameSep }

// NewLine returns the clause separator.
func (mk *Maker) NewLine() string { return mk.newLine }

// Strict reports whether strict mode is on.
func (mk *Maker) Strict() bool { return mk.strict }

// AutoBind reports whether binds are inlined as literals.
func (mk *Maker) AutoBind() bool { return mk.autoBind }

// Use registers transformers. They run in registration order on every
// statement built by Select, SelectQuery, Update and Delete.
func (mk *Maker) Use(ts ...plugins.Transformer) *Maker {
	mk.transformers = append(mk.transformers, ts...)
	return mk
}

func (mk *Maker) managerOptions() []managers.Option {
	return []managers.Option{
		managers.WithQuoteChar(mk.quoteChar),
		managers.WithNameSep(mk.nameSep),
		managers.WithNewLine(mk.newLine),
		managers.WithStrict(mk.strict),
	}
}

// NewCondition returns an empty condition with the Maker's settings.
func (mk *Maker) NewCondition() *managers.Condition {
	return managers.NewCondition(mk.managerOptions()...)
}

// NewSelect returns an empty SELECT builder with the Maker's settings.
// Drivers that page by row number get the Oracle variant.
func (mk *Maker) NewSelect() *managers.SelectManager {
	if mk.dialect.RowNumberPaging {
		return managers.NewOracleSelectManager(mk.managerOptions()...)
	}
	return managers.NewSelectManager(mk.managerOptions()...)
}

// condition turns a where argument into a condition the caller does not
// own: a *managers.Condition is cloned, anything nodes.ToPairs accepts
// is added pair by pair.
func (mk *Maker) condition(where any) (*managers.Condition, error) {
	if c, ok := where.(*managers.Condition); ok {
		if c == nil {
			return mk.NewCondition(), nil
		}
		return c.Clone(), nil
	}
	pairs, err := nodes.ToPairs(where)
	if err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}
	return mk.NewCondition().AddPairs(pairs), nil
}

// finish applies auto-binding to a rendered statement.
func (mk *Maker) finish(sql string, binds []any, err error) (string, []any, error) {
	if err != nil {
		return "", nil, err
	}
	if !mk.autoBind {
		return sql, binds, nil
	}
	sql, err = nodes.BindParam(sql, binds)
	if err != nil {
		return "", nil, err
	}
	return sql, nil, nil
}

// Where renders a condition without the WHERE keyword.
func (mk *Maker) Where(where any) (string, []any, error) {
	c, err := mk.condition(where)
	if err != nil {
		return "", nil, err
	}
	sql, err := c.AsSQL()
	if err != nil {
		return "", nil, err
	}
	return sql, c.Bind(), nil
}

// Rebind rewrites "?" placeholders into the driver's native form.
func (mk *Maker) Rebind(sql string) string {
	return mk.dialect.Rebind(sql)
}

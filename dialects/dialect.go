// Package dialects describes how each supported driver quotes
// identifiers, spells placeholders and renders empty inserts and paging.
package dialects

import (
	"fmt"
	"strings"
)

// Dialect holds the per-driver rendering choices.
type Dialect struct {
	// Name is the canonical driver name.
	Name string
	// QuoteChar wraps identifiers.
	QuoteChar string
	// DefaultValues renders an INSERT without columns as DEFAULT VALUES.
	DefaultValues bool
	// RowNumberPaging pages with ROW_NUMBER/rownum instead of LIMIT.
	RowNumberPaging bool
	// Placeholder spells the n-th (1-based) bind placeholder.
	Placeholder func(n int) string
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

var (
	MySQL = Dialect{
		Name:        "mysql",
		QuoteChar:   "`",
		Placeholder: questionMark,
	}
	Postgres = Dialect{
		Name:        "postgres",
		QuoteChar:   `"`,
		Placeholder: dollar,
	}
	SQLite = Dialect{
		Name:          "sqlite",
		QuoteChar:     `"`,
		DefaultValues: true,
		Placeholder:   questionMark,
	}
	Oracle = Dialect{
		Name:            "oracle",
		QuoteChar:       `"`,
		RowNumberPaging: true,
		Placeholder:     questionMark,
	}
)

var aliases = map[string]Dialect{
	"mysql":      MySQL,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pg":         Postgres,
	"pgx":        Postgres,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"oracle":     Oracle,
}

// Lookup returns the dialect for a driver name, case-insensitively.
// Unknown drivers get a generic dialect with double-quoted identifiers
// and "?" placeholders.
func Lookup(driver string) Dialect {
	name := strings.ToLower(strings.TrimSpace(driver))
	if d, ok := aliases[name]; ok {
		return d
	}
	return Dialect{Name: name, QuoteChar: `"`, Placeholder: questionMark}
}

// Rebind rewrites each "?" placeholder outside quoted text into the
// dialect's spelling. SQL for "?" dialects is returned unchanged.
func (d Dialect) Rebind(sql string) string {
	if d.Placeholder == nil || d.Placeholder(1) == "?" {
		return sql
	}
	var b strings.Builder
	b.Grow(len(sql) + 8)
	var quote rune
	n := 0
	for _, r := range sql {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '?':
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

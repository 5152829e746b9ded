package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bawdo/sqlmaker/plugins/softdelete"
)

// parseSoftDelete builds a soft-delete transformer from its textual
// form and describes it:
//
//	""                          deleted_at on every table
//	removed_at                  one column on every table
//	removed_at on users posts   one column on the listed tables
//	users.deleted_at, posts.removed_at
//	                            per-table columns
func parseSoftDelete(args string) (*softdelete.SoftDelete, string, error) {
	rest := strings.TrimSpace(args)
	lower := strings.ToLower(rest)

	switch {
	case strings.Contains(lower, " on "):
		idx := strings.Index(lower, " on ")
		col := strings.TrimSpace(rest[:idx])
		tables := strings.Fields(rest[idx+4:])
		if col == "" || len(tables) == 0 {
			return nil, "", errors.New("usage: softdelete <column> on <table1> [table2 ...]")
		}
		desc := fmt.Sprintf("column: %s, tables: %s", col, strings.Join(tables, ", "))
		return softdelete.New(softdelete.WithColumn(col), softdelete.WithTables(tables...)), desc, nil

	case strings.Contains(rest, "."):
		var opts []softdelete.Option
		var parts []string
		for _, pair := range strings.Split(rest, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			table, col, ok := strings.Cut(pair, ".")
			if !ok || table == "" || col == "" {
				return nil, "", fmt.Errorf("invalid table.column pair: %q", pair)
			}
			opts = append(opts, softdelete.WithTableColumn(table, col))
			parts = append(parts, pair)
		}
		return softdelete.New(opts...), "per-table columns: " + strings.Join(parts, ", "), nil

	case rest != "":
		col := strings.Fields(rest)[0]
		return softdelete.New(softdelete.WithColumn(col)), "column: " + col, nil
	}
	return softdelete.New(), "column: deleted_at", nil
}

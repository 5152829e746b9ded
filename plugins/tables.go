package plugins

import "github.com/bawdo/sqlmaker/managers"

// TableRef pairs a referenced table's name with the qualifier to use for
// its columns: the alias when one is set, otherwise the name.
type TableRef struct {
	Name      string
	Qualifier string
}

// CollectTables returns all plain tables referenced in a SELECT,
// including the FROM tables and all JOIN targets. Sub-queries are
// skipped.
func CollectTables(stmt *managers.SelectManager) []TableRef {
	var refs []TableRef
	for _, t := range stmt.Tables() {
		refs = append(refs, qualify(t))
	}
	return refs
}

func qualify(t managers.TableRef) TableRef {
	if t.Alias != "" {
		return TableRef{Name: t.Name, Qualifier: t.Alias}
	}
	return TableRef{Name: t.Name, Qualifier: t.Name}
}

// Column returns "qualifier.column".
func (r TableRef) Column(column string) string {
	return r.Qualifier + "." + column
}

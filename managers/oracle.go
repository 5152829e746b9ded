package managers

import (
	"fmt"

	"github.com/bawdo/sqlmaker/nodes"
)

// rowNumberColumn is added to the select list when paging with an offset.
const rowNumberColumn = "ROW_NUMBER() OVER (ORDER BY 1) R"

// NewOracleSelectManager creates a SELECT builder that pages with
// ROW_NUMBER and rownum instead of LIMIT/OFFSET:
//
//	limit only:   SELECT * FROM ( ... ) WHERE rownum <= 10
//	with offset:  SELECT * FROM ( ..., ROW_NUMBER() OVER (ORDER BY 1) R ... )
//	              WHERE R BETWEEN 20 + 1 AND 10 + 20
func NewOracleSelectManager(opts ...Option) *SelectManager {
	m := NewSelectManager(opts...)
	m.oracle = true
	return m
}

func (m *SelectManager) oracleSQL() (string, error) {
	if m.limit == nil {
		return m.render(m.fields, false)
	}
	lim, err := nonNegative("limit", m.limit)
	if err != nil {
		return "", err
	}

	fields := m.fields
	var off uint64
	if m.offset != nil {
		off, err = nonNegative("offset", m.offset)
		if err != nil {
			return "", err
		}
		fields = append(fields[:len(fields):len(fields)], Field{Term: nodes.Raw(rowNumberColumn)})
	}

	inner, err := m.render(fields, false)
	if err != nil {
		return "", err
	}
	if m.offset != nil {
		return fmt.Sprintf("SELECT * FROM ( %s ) WHERE R BETWEEN %d + 1 AND %d + %d", inner, off, lim, off), nil
	}
	return fmt.Sprintf("SELECT * FROM ( %s ) WHERE rownum <= %d", inner, lim), nil
}

package nodes

import (
	"fmt"
	"strings"
)

// SetOpType represents the type of set operation.
type SetOpType int

const (
	Union SetOpType = iota
	UnionAll
	Intersect
	IntersectAll
	Except
	ExceptAll
)

var setOpTypeSQL = [...]string{
	Union:        "UNION",
	UnionAll:     "UNION ALL",
	Intersect:    "INTERSECT",
	IntersectAll: "INTERSECT ALL",
	Except:       "EXCEPT",
	ExceptAll:    "EXCEPT ALL",
}

// String returns the SQL keyword for this set operation type.
func (t SetOpType) String() string {
	if t.Valid() {
		return setOpTypeSQL[t]
	}
	return fmt.Sprintf("SetOpType(%d)", int(t))
}

// Valid reports whether t is one of the defined operations.
func (t SetOpType) Valid() bool {
	return t >= 0 && int(t) < len(setOpTypeSQL)
}

// ParseSetOp maps "union", "union_all", "UNION ALL" and so on to a
// SetOpType.
func ParseSetOp(s string) (SetOpType, error) {
	for i, kw := range setOpTypeSQL {
		if strings.EqualFold(strings.ReplaceAll(s, "_", " "), kw) {
			return SetOpType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown set operation %q", ErrConfiguration, s)
}

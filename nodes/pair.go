package nodes

import (
	"fmt"
	"slices"
	"sort"
)

// Pair is a column and its value.
type Pair struct {
	Column string
	Value  any
}

// Pairs is an ordered column to value mapping. Rendering follows the
// slice order.
type Pairs []Pair

// KV builds Pairs from alternating columns and values. It panics when
// given an odd number of arguments or a non-string column; use ParseKV
// for pairs built from dynamic input.
func KV(kv ...any) Pairs {
	p, err := ParseKV(kv...)
	if err != nil {
		panic("sqlmaker: KV: " + err.Error())
	}
	return p
}

// ParseKV is KV returning ErrMalformedOperand instead of panicking.
func ParseKV(kv ...any) (Pairs, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of column/value elements (%d)", ErrMalformedOperand, len(kv))
	}
	out := make(Pairs, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		col, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("%w: column must be a string, got %T", ErrMalformedOperand, kv[i])
		}
		out = append(out, Pair{Column: col, Value: kv[i+1]})
	}
	return out, nil
}

// Add returns p with one more pair appended.
func (p Pairs) Add(column string, value any) Pairs {
	return append(slices.Clip(p), Pair{Column: column, Value: value})
}

// ToPairs accepts Pairs, []Pair, map[string]any (taken in sorted key
// order) or a []any of alternating columns and values. nil yields nil.
func ToPairs(v any) (Pairs, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Pairs:
		return x, nil
	case []Pair:
		return Pairs(x), nil
	case Pair:
		return Pairs{x}, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Pairs, len(keys))
		for i, k := range keys {
			out[i] = Pair{Column: k, Value: x[k]}
		}
		return out, nil
	case []any:
		return ParseKV(x...)
	}
	return nil, fmt.Errorf("%w: cannot use %T as column/value pairs", ErrMalformedOperand, v)
}

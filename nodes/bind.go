package nodes

import (
	"fmt"
	"strings"

	"github.com/bawdo/sqlmaker/internal/quoting"
)

// BindParam substitutes each "?" in sql, left to right, with the literal
// form of the matching bind value. The placeholder count must equal
// len(binds).
//
// SECURITY: the result embeds values as escaped literals. Prefer handing
// sql and binds to the driver.
func BindParam(sql string, binds []any) (string, error) {
	if n := strings.Count(sql, "?"); n != len(binds) {
		return "", fmt.Errorf("%w: bind arity mismatch (%d placeholders, %d binds)", ErrArityMismatch, n, len(binds))
	}
	var b strings.Builder
	i := 0
	for _, r := range sql {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		lit, err := quoting.Value(binds[i])
		if err != nil {
			return "", err
		}
		b.WriteString(lit)
		i++
	}
	return b.String(), nil
}

// Package quoting provides identifier quoting and literal rendering
// shared by the builders.
package quoting

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Identifier quotes a possibly qualified identifier. The label is split
// on sep and every segment other than "*" is wrapped in quoteChar:
//
//	Identifier("foo.*", "`", ".") // `foo`.*
//
// A bare "*" and an empty sep leave the label untouched. Embedded quote
// characters are not escaped.
func Identifier(label, quoteChar, sep string) string {
	if label == "*" || sep == "" {
		return label
	}
	parts := strings.Split(label, sep)
	for i, p := range parts {
		if p != "*" {
			parts[i] = quoteChar + p + quoteChar
		}
	}
	return strings.Join(parts, sep)
}

// EscapeString escapes a string literal for SQL by doubling single quotes
// and escaping backslashes (for MySQL compatibility).
//
// SECURITY: This escaping is intended for inline-bind rendering only.
// Production code should pass the bind list to the driver instead. MySQL
// with non-default character sets (GBK, SJIS) may have multi-byte
// sequences where a trailing byte coincides with backslash or quote;
// driver-side binding avoids this class of attack entirely.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}

// DateTimeLayout is the layout used for time values rendered inline.
const DateTimeLayout = "2006-01-02 15:04:05"

// Value renders v as a SQL literal:
//
//	nil          NULL
//	string       'escaped'
//	bool         't' or 'f'
//	numbers      decimal text
//	time.Time    'YYYY-MM-DD HH:MM:SS'
//
// driver.Valuer values are rendered through their Value result and
// fmt.Stringer values as quoted text. Anything else is rendered as
// quoted YAML.
func Value(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return quote(x), nil
	case []byte:
		return quote(string(x)), nil
	case bool:
		if x {
			return "'t'", nil
		}
		return "'f'", nil
	case int:
		return strconv.Itoa(x), nil
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(x).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(x).Uint(), 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case time.Time:
		return quote(x.Format(DateTimeLayout)), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return "", fmt.Errorf("quoting: %T: %w", v, err)
		}
		if _, again := dv.(driver.Valuer); again {
			return "", fmt.Errorf("quoting: %T: Value returned another Valuer", v)
		}
		return Value(dv)
	case fmt.Stringer:
		return quote(x.String()), nil
	}

	// Named types over basic kinds.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.String:
		return quote(rv.String()), nil
	case reflect.Bool:
		return Value(rv.Bool())
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL", nil
		}
		return Value(rv.Elem().Interface())
	}

	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("quoting: %T: %w", v, err)
	}
	return quote(strings.TrimRight(string(out), "\n")), nil
}

func quote(s string) string {
	return "'" + EscapeString(s) + "'"
}

package nodes

import "errors"

// Error kinds reported by the builders. Errors returned from this module
// wrap one of these, so callers can test with errors.Is.
var (
	// ErrArityMismatch: placeholder count differs from the number of values.
	ErrArityMismatch = errors.New("arity mismatch")
	// ErrStrictMode: an ambient value was given where strict mode requires a node.
	ErrStrictMode = errors.New("strict mode violation")
	// ErrMalformedOperand: an operand has the wrong shape.
	ErrMalformedOperand = errors.New("malformed operand")
	// ErrRebindConflict: a node already carries a different column.
	ErrRebindConflict = errors.New("column rebind conflict")
	// ErrInvalidBind: a sequence or mapping was placed in a bind slot.
	ErrInvalidBind = errors.New("invalid bind value")
	// ErrConfiguration: a builder is missing required configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNoColumn: a node that needs a column was rendered without one.
	ErrNoColumn = errors.New("no column binding")
)

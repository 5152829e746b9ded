package testutil

// StubStatement is a fixed statement for use as a sub-query in tests.
type StubStatement struct {
	SQL   string
	Binds []any
	Err   error
}

// AsSQL returns the fixed SQL, or Err when set.
func (s StubStatement) AsSQL() (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.SQL, nil
}

// Bind returns the fixed binds.
func (s StubStatement) Bind() []any { return s.Binds }

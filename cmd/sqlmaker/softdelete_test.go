package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSoftDelete(t *testing.T) {
	t.Parallel()
	tests := []struct {
		args    string
		desc    string
		column  string
		columns map[string]string
	}{
		{"", "column: deleted_at", "deleted_at", nil},
		{"removed_at", "column: removed_at", "removed_at", nil},
		{"removed_at on users posts", "column: removed_at, tables: users, posts", "removed_at", nil},
		{"removed_at ON users", "column: removed_at, tables: users", "removed_at", nil},
		{
			"users.deleted_at, posts.removed_at",
			"per-table columns: users.deleted_at, posts.removed_at",
			"deleted_at",
			map[string]string{"users": "deleted_at", "posts": "removed_at"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.args, func(t *testing.T) {
			t.Parallel()
			sd, desc, err := parseSoftDelete(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.desc, desc)
			assert.Equal(t, tc.column, sd.Column)
			assert.Equal(t, tc.columns, sd.Columns)
		})
	}
}

func TestParseSoftDeleteErrors(t *testing.T) {
	t.Parallel()
	for _, args := range []string{"users.", ".deleted_at", "users.deleted_at, posts"} {
		_, _, err := parseSoftDelete(args)
		assert.Error(t, err, args)
	}
}

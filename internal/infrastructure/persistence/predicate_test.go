package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocumentLookup(t *testing.T) {
	doc := document{"roles": map[string]any{"admin": true}, "name": "x"}

	v, ok := doc.lookup("roles.admin")
	assert.True(t, ok)
	assert.Equal(t, true, v)

	_, ok = doc.lookup("roles.sales")
	assert.False(t, ok)

	_, ok = doc.lookup("name.first")
	assert.False(t, ok)
}

func TestCompareValues(t *testing.T) {
	early := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC).Format(time.RFC3339Nano)
	// a later instant that sorts first lexically
	late := time.Date(2025, 1, 1, 23, 0, 0, 0, time.FixedZone("", -5*3600)).Format(time.RFC3339Nano)

	tests := []struct {
		name string
		a, b any
		want int
		ok   bool
	}{
		{"numbers", 2.0, 10.0, -1, true},
		{"strings", "b", "a", 1, true},
		{"timestamps compare chronologically", early, late, -1, true},
		{"booleans", false, true, -1, true},
		{"nulls", nil, nil, 0, true},
		{"mixed kinds", 1.0, "1", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := compareValues(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	type status string
	v, err := normalize(status("paid"))
	assert.NoError(t, err)
	assert.Equal(t, "paid", v)

	v, err = normalize([]string{"a", "b"})
	assert.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)

	v, err = normalize(3)
	assert.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

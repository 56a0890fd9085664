package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToString(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"Nil", nil, ""},
		{"String", "abc", "abc"},
		{"Bytes", []byte("xyz"), "xyz"},
		{"Int", 42, "42"},
		{"Float", 10.5, "10.5"},
		{"WholeFloat", float64(10), "10"},
		{"Bool", true, "true"},
		{"Time", ts, "2024-03-01T10:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToString(tt.in))
		})
	}
}

func TestToFloat(t *testing.T) {
	f, ok := ToFloat(int64(7))
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	_, ok = ToFloat("7")
	assert.False(t, ok, "strings are not parsed")
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool("true"))
	assert.True(t, ToBool(" YES "))
	assert.True(t, ToBool("1"))
	assert.True(t, ToBool(1))
	assert.False(t, ToBool("no"))
	assert.False(t, ToBool(nil))
}

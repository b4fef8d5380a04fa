package stringutil

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"héllo", 2, "h"},
		{"héllo", 3, "hé"},
		{"€€", 4, "€"},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.max)
		assert.Equal(t, tt.want, got, "%q/%d", tt.in, tt.max)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	assert.Equal(t, "short", TruncateWithEllipsis("short", 10))
	assert.Equal(t, "hel...", TruncateWithEllipsis("hello world", 6))
	assert.Equal(t, "he", TruncateWithEllipsis("hello", 2))
	assert.Equal(t, "€...", TruncateWithEllipsis("€€€€", 7))
}

package randid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]*$`)

func TestGenerate(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{length: -3, want: 0},
		{length: 0, want: 0},
		{length: 1, want: 1},
		{length: 9, want: 9},
		{length: 32, want: 32},
	}

	for _, tt := range tests {
		got := Generate(tt.length)
		assert.Len(t, got, tt.want, "Generate(%d)", tt.length)
		assert.Regexp(t, idPattern, got)
	}
}

func TestGenerate_Spread(t *testing.T) {
	seen := make(map[string]struct{}, 200)
	var letters, digits int
	for range 200 {
		id := Generate(9)
		seen[id] = struct{}{}
		for _, c := range id {
			switch {
			case c >= 'a' && c <= 'z':
				letters++
			case c >= '0' && c <= '9':
				digits++
			}
		}
	}

	// 36^9 ids; any collision in 200 draws points at a broken source.
	assert.Len(t, seen, 200)
	assert.Positive(t, letters)
	assert.Positive(t, digits)
}

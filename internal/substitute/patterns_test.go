package substitute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePatterns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", ".canvas.name", []string{".canvas.name"}},
		{"several", ".canvas.name,.items.label", []string{".canvas.name", ".items.label"}},
		{"whitespace", " .a , .b ", []string{".a", ".b"}},
		{"empty entries", ".a,,.b,", []string{".a", ".b"}},
		{"duplicates", ".a,.a", []string{".a"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePatterns(tt.in).Sorted())
		})
	}
}

func TestPatternSet_ExactMatchOnly(t *testing.T) {
	ps := NewPatternSet(".canvas.name")

	assert.True(t, ps.Contains(".canvas.name"))
	assert.False(t, ps.Contains(".canvas"))
	assert.False(t, ps.Contains(".canvas.name.first"))
	assert.False(t, ps.Contains("canvas.name"))
	assert.False(t, ps.Contains(".canvas[0].name"))
	assert.Equal(t, 1, ps.Len())
}

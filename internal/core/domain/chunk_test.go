package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewChunk_CopiesEmbedding(t *testing.T) {
	vec := []float32{0.1, 0.2, 0.3}
	c := NewChunk(4, "Section 2 covers maternity.", "2 Benefits", vec)

	vec[0] = 9
	assert.Equal(t, float32(0.1), c.Embedding()[0])

	out := c.Embedding()
	out[1] = 9
	assert.Equal(t, float32(0.2), c.Embedding()[1])

	assert.Equal(t, 4, c.Index())
	assert.Equal(t, "Section 2 covers maternity.", c.Text())
	assert.Equal(t, "2 Benefits", c.Section())
	assert.Equal(t, 3, c.Dimensions())
}

func TestNewChunk_NilEmbedding(t *testing.T) {
	c := NewChunk(0, "text", "", nil)
	assert.Nil(t, c.Embedding())
	assert.Equal(t, 0, c.Dimensions())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		n        int
		expected string
	}{
		{"short", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdef", 3, "abc..."},
		{"runes", "überall", 2, "üb..."},
		{"zero", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.in, tt.n))
		})
	}
}

func TestNumberPassages(t *testing.T) {
	passages := NumberPassages([]Chunk{NewChunk(7, "a", "", nil), NewChunk(2, "b", "", nil)})

	assert.Len(t, passages, 2)
	assert.Equal(t, 1, passages[0].Number)
	assert.Equal(t, "CLAUSE_1", passages[0].Label())
	assert.Equal(t, 7, passages[0].Chunk.Index())
	assert.Equal(t, "CLAUSE_2", passages[1].Label())
}

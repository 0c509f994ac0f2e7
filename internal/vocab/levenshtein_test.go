package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"identical word", "queen", "queen", 0},
		{"empty a", "", "king", 4},
		{"empty b", "king", "", 4},
		{"one substitution", "king", "kink", 1},
		{"one insertion", "king", "kings", 1},
		{"one deletion", "queen", "quen", 1},
		{"kitten to sitting", "kitten", "sitting", 3},
		{"case difference", "Paris", "paris", 1},
		{"unicode substitution", "café", "cafe", 1},
		{"unicode identical", "東京", "東京", 0},
		{"transposition", "ab", "ba", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LevenshteinDistance(tt.a, tt.b)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, LevenshteinDistance(tt.b, tt.a), "not symmetric")
		})
	}
}

func TestWithinDistance(t *testing.T) {
	d, ok := withinDistance("kings", "king", 1)
	assert.True(t, ok)
	assert.Equal(t, 1, d)

	_, ok = withinDistance("a", "abcd", 2)
	assert.False(t, ok, "length difference of 3 should be rejected at distance 2")

	_, ok = withinDistance("abc", "xyz", 2)
	assert.False(t, ok, "abc/xyz are 3 edits apart")
}

func BenchmarkLevenshteinDistance(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = LevenshteinDistance("constantinople", "constitutional")
	}
}

func BenchmarkWithinDistance(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = withinDistance("constantinople", "constitutional", 2)
	}
}

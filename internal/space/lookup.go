package space

import (
	"fmt"

	"github.com/hyperjump/wordspace/internal/vector"
)

// GetExact returns the first entry whose word equals word.
func (s *Space) GetExact(word string) (Embedding, error) {
	if i, ok := s.first[word]; ok {
		return s.entries[i], nil
	}
	return Embedding{}, fmt.Errorf("%w: %q", ErrNotFound, word)
}

// Get resolves word to an entry. An exact match wins outright; otherwise the
// entry sharing the longest common suffix is returned when that suffix is
// strictly longer than the best common prefix, else the entry sharing the
// longest common prefix. Ties go to the entry seen first.
func (s *Space) Get(word string) (Embedding, error) {
	if i, ok := s.first[word]; ok {
		return s.entries[i], nil
	}

	if s.resolved != nil {
		if i, ok := s.resolved.Get(word); ok {
			if i < 0 {
				return Embedding{}, fmt.Errorf("%w: %q", ErrNotFound, word)
			}
			return s.entries[i], nil
		}
	}

	i := s.fuzzyIndex(word)
	if s.resolved != nil {
		s.resolved.Set(word, i)
	}
	if i < 0 {
		return Embedding{}, fmt.Errorf("%w: %q", ErrNotFound, word)
	}
	return s.entries[i], nil
}

// fuzzyIndex scans every entry and returns the position chosen by the
// prefix/suffix rule, or -1.
func (s *Space) fuzzyIndex(word string) int {
	bestPrefix, bestPrefixLen := -1, 0
	bestSuffix, bestSuffixLen := -1, 0

	for i, e := range s.entries {
		if p := commonPrefix(word, e.Word); p > bestPrefixLen {
			bestPrefix, bestPrefixLen = i, p
		}
		if q := commonSuffix(word, e.Word); q > bestSuffixLen {
			bestSuffix, bestSuffixLen = i, q
		}
	}

	switch {
	case bestSuffixLen > bestPrefixLen:
		return bestSuffix
	case bestPrefixLen > 0:
		return bestPrefix
	default:
		return -1
	}
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffix(a, b string) int {
	i, j := len(a)-1, len(b)-1
	n := 0
	for i >= 0 && j >= 0 && a[i] == b[j] {
		i--
		j--
		n++
	}
	return n
}

// GetEmbedding is Get for callers that cannot handle a failure: an
// unresolvable word yields an entry with an empty word and a zero vector.
// Check IsZero before using the result.
func (s *Space) GetEmbedding(word string) Embedding {
	e, err := s.Get(word)
	if err != nil {
		return Embedding{Vector: vector.Zero(s.dimension)}
	}
	return e
}

// Distance resolves both words and returns their cosine distance.
func (s *Space) Distance(word1, word2 string) (float32, error) {
	a, err := s.Get(word1)
	if err != nil {
		return 0, err
	}
	b, err := s.Get(word2)
	if err != nil {
		return 0, err
	}
	return vector.CosineDistance(a.Vector, b.Vector), nil
}

// Package space holds a loaded word-embedding space and answers lookup and
// ranking queries over it.
//
// A Space is populated once (by the loader) and is read-only afterwards, so
// any number of goroutines may query it concurrently without locking.
package space

import (
	"errors"

	"github.com/hyperjump/wordspace/internal/vector"
)

// ErrNotFound is returned when a word cannot be resolved by exact or fuzzy
// lookup.
var ErrNotFound = errors.New("word not found")

// Embedding is a word and its vector.
type Embedding struct {
	Word   string
	Vector vector.Vector
}

// IsZero reports whether e is the empty-word sentinel returned by
// GetEmbedding for unresolvable words.
func (e Embedding) IsZero() bool {
	return e.Word == ""
}

// CosineDistance returns the cosine distance between e and v.
func (e Embedding) CosineDistance(v vector.Vector) float32 {
	return vector.CosineDistance(e.Vector, v)
}

// ScoredEmbedding is an embedding ranked by distance to a comparison point.
type ScoredEmbedding struct {
	Embedding
	Distance float32
}

// ScoredWord is a word ranked by distance to a comparison point.
type ScoredWord struct {
	Word     string  `json:"word"`
	Distance float32 `json:"distance"`
}

// Words projects ranked embeddings onto their words.
func Words(scored []ScoredEmbedding) []ScoredWord {
	out := make([]ScoredWord, len(scored))
	for i, s := range scored {
		out[i] = ScoredWord{Word: s.Word, Distance: s.Distance}
	}
	return out
}

// Space is an ordered collection of embeddings sharing one dimension.
type Space struct {
	dimension int
	entries   []Embedding
	first     map[string]int
	resolved  *ResolveCache
}

// Option configures a Space.
type Option func(*Space)

// WithResolveCache memoises fuzzy resolutions in an LRU of the given size.
// A size <= 0 disables the cache.
func WithResolveCache(size int) Option {
	return func(s *Space) {
		if size > 0 {
			s.resolved = NewResolveCache(size)
		} else {
			s.resolved = nil
		}
	}
}

// New creates a space over entries. Every entry's vector is expected to have
// the given dimension; the loader guarantees it and the space does not check
// again. Duplicate words are kept; lookups return the first in order.
func New(dimension int, entries []Embedding, opts ...Option) *Space {
	s := &Space{
		dimension: dimension,
		entries:   entries,
		first:     make(map[string]int, len(entries)),
		resolved:  NewResolveCache(defaultResolveCacheSize),
	}
	for i, e := range entries {
		if _, ok := s.first[e.Word]; !ok {
			s.first[e.Word] = i
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dimension returns the shared vector length.
func (s *Space) Dimension() int { return s.dimension }

// Len returns the number of entries.
func (s *Space) Len() int { return len(s.entries) }

// At returns the entry at position i in store order.
func (s *Space) At(i int) Embedding { return s.entries[i] }

// IndexOf returns the position of the first entry named word.
func (s *Space) IndexOf(word string) (int, bool) {
	i, ok := s.first[word]
	return i, ok
}

// Words returns every word in store order.
func (s *Space) Words() []string {
	words := make([]string, len(s.entries))
	for i, e := range s.entries {
		words[i] = e.Word
	}
	return words
}

// Each calls fn for every entry in store order until fn returns false.
func (s *Space) Each(fn func(i int, e Embedding) bool) {
	for i, e := range s.entries {
		if !fn(i, e) {
			return
		}
	}
}

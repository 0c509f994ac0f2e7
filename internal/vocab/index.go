// Package vocab provides word completion and spelling suggestions over the
// vocabulary of a loaded space.
package vocab

import (
	"context"

	"github.com/hyperjump/wordspace/internal/space"
)

// WordIndex finds vocabulary words by prefix or approximate spelling.
type WordIndex interface {
	// Rebuild replaces the indexed vocabulary.
	Rebuild(ctx context.Context, words []string) error
	Prefix(ctx context.Context, prefix string, limit int) ([]string, error)
	Fuzzy(ctx context.Context, term string, fuzziness, limit int) ([]string, error)
	DocCount() (uint64, error)
	Close() error
}

// TermDictionary provides access to the vocabulary for spell checking.
type TermDictionary interface {
	// GetAllTerms returns all unique words.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns a popularity weight for term; 0 if unknown.
	GetTermFrequency(term string) (int, error)
	// ContainsTerm checks if a word exists.
	ContainsTerm(term string) (bool, error)
}

// SpaceDictionary exposes a space's words as a TermDictionary. word2vec
// files list words by descending corpus frequency, so a word's weight is
// the number of entries after its first occurrence.
type SpaceDictionary struct {
	space *space.Space
}

// NewSpaceDictionary wraps s.
func NewSpaceDictionary(s *space.Space) *SpaceDictionary {
	return &SpaceDictionary{space: s}
}

// GetAllTerms returns unique words in store order.
func (d *SpaceDictionary) GetAllTerms() ([]string, error) {
	seen := make(map[string]struct{}, d.space.Len())
	terms := make([]string, 0, d.space.Len())
	for _, w := range d.space.Words() {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms, nil
}

// GetTermFrequency returns the rank weight of term.
func (d *SpaceDictionary) GetTermFrequency(term string) (int, error) {
	i, ok := d.space.IndexOf(term)
	if !ok {
		return 0, nil
	}
	return d.space.Len() - i, nil
}

// ContainsTerm reports whether term is an exact vocabulary word.
func (d *SpaceDictionary) ContainsTerm(term string) (bool, error) {
	_, ok := d.space.IndexOf(term)
	return ok, nil
}

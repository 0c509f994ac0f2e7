package vocab

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is a vocabulary word close to a query term.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
}

// SpellChecker suggests vocabulary words within an edit distance.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	maxSuggestions int

	mu     sync.RWMutex
	terms  []string
	lower  []string
	loaded bool
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMaxSuggestions sets how many suggestions Suggest returns at most.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a SpellChecker over dict.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshCache reloads the term list from the dictionary.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}
	lower := make([]string, len(terms))
	for i, t := range terms {
		lower[i] = strings.ToLower(t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = terms
	s.lower = lower
	s.loaded = true
	return nil
}

func (s *SpellChecker) ensureLoaded() error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.RefreshCache()
}

// Suggest returns words within the maximum edit distance of term, compared
// case-insensitively. Closest words come first, then more frequent ones.
// term itself is never suggested.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	if err := s.ensureLoaded(); err != nil {
		return nil
	}
	want := strings.ToLower(term)

	s.mu.RLock()
	terms, lower := s.terms, s.lower
	s.mu.RUnlock()

	var out []Suggestion
	for i, t := range terms {
		if t == term {
			continue
		}
		d, ok := withinDistance(want, lower[i], s.maxDistance)
		if !ok {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(t)
		if err != nil {
			continue
		}
		out = append(out, Suggestion{Term: t, Distance: d, Frequency: freq})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}

// IsMisspelled reports whether term is not an exact vocabulary word.
func (s *SpellChecker) IsMisspelled(term string) bool {
	ok, err := s.dictionary.ContainsTerm(term)
	return err == nil && !ok
}

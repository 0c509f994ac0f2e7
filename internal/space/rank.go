package space

import (
	"github.com/hyperjump/wordspace/internal/ranking"
	"github.com/hyperjump/wordspace/internal/vector"
)

// Transform maps a stored vector into the space a comparison point lives in.
// A nil Transform is the identity.
type Transform func(vector.Vector) vector.Vector

// TopN returns the n entries closest to point, best first.
func (s *Space) TopN(point vector.Vector, n int) []ScoredEmbedding {
	return s.TopNTransformed(point, n, nil)
}

// TopNWords is TopN projected onto words.
func (s *Space) TopNWords(point vector.Vector, n int) []ScoredWord {
	return Words(s.TopN(point, n))
}

// TopNOf resolves word and returns the n entries closest to it. The word
// itself is usually the first result.
func (s *Space) TopNOf(word string, n int) ([]ScoredEmbedding, error) {
	e, err := s.Get(word)
	if err != nil {
		return nil, err
	}
	return s.TopN(e.Vector, n), nil
}

// TopNTransformed ranks every entry after passing its vector through
// transform. Ties keep store order.
func (s *Space) TopNTransformed(point vector.Vector, n int, transform Transform) []ScoredEmbedding {
	return s.scored(s.rankRange(point, n, transform, 0, len(s.entries)))
}

// rankRange ranks entries [start, end) by position.
func (s *Space) rankRange(point vector.Vector, n int, transform Transform, start, end int) []ranking.Scored[int] {
	list := ranking.NewBounded[int](n)
	for i := start; i < end; i++ {
		v := s.entries[i].Vector
		if transform != nil {
			v = transform(v)
		}
		list.Insert(i, vector.CosineDistance(v, point))
	}
	return list.Items()
}

func (s *Space) scored(items []ranking.Scored[int]) []ScoredEmbedding {
	out := make([]ScoredEmbedding, len(items))
	for k, it := range items {
		out[k] = ScoredEmbedding{Embedding: s.entries[it.Value], Distance: it.Distance}
	}
	return out
}

// WordsAtDistanceUnder resolves word and returns every other entry within
// threshold of it, closest first. Entries whose word equals the query as
// typed are skipped; when the query resolved fuzzily the matched entry is
// kept.
func (s *Space) WordsAtDistanceUnder(word string, threshold float32) ([]ScoredWord, error) {
	e, err := s.Get(word)
	if err != nil {
		return nil, err
	}

	list := ranking.NewThreshold[int]()
	for i, entry := range s.entries {
		if entry.Word == word {
			continue
		}
		if d := vector.CosineDistance(entry.Vector, e.Vector); d <= threshold {
			list.Insert(i, d)
		}
	}
	return Words(s.scored(list.Items())), nil
}

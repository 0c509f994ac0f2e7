package vocab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/vector"
)

// mockTermDictionary is a TermDictionary backed by a map of frequencies.
type mockTermDictionary struct {
	terms       map[string]int
	getAllError error
}

func (m *mockTermDictionary) GetAllTerms() ([]string, error) {
	if m.getAllError != nil {
		return nil, m.getAllError
	}
	out := make([]string, 0, len(m.terms))
	for t := range m.terms {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTermDictionary) GetTermFrequency(term string) (int, error) {
	return m.terms[term], nil
}

func (m *mockTermDictionary) ContainsTerm(term string) (bool, error) {
	_, ok := m.terms[term]
	return ok, nil
}

func testVocabSpace() *space.Space {
	words := []string{"the", "queen", "queue", "quest", "king", "kings", "Queen"}
	entries := make([]space.Embedding, len(words))
	for i, w := range words {
		entries[i] = space.Embedding{Word: w, Vector: vector.New([]float32{float32(i + 1), 1})}
	}
	return space.New(2, entries)
}

func terms(suggestions []Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Term
	}
	return out
}

func TestSpellChecker_Defaults(t *testing.T) {
	sc := NewSpellChecker(&mockTermDictionary{})
	assert.Equal(t, 2, sc.maxDistance)
	assert.Equal(t, 5, sc.maxSuggestions)

	sc = NewSpellChecker(&mockTermDictionary{}, WithMaxDistance(0), WithMaxSuggestions(-1))
	assert.Equal(t, 2, sc.maxDistance, "non-positive options should be ignored")
	assert.Equal(t, 5, sc.maxSuggestions, "non-positive options should be ignored")
}

func TestSpellChecker_SuggestOrdersByDistanceThenFrequency(t *testing.T) {
	dict := &mockTermDictionary{terms: map[string]int{
		"machine":  10,
		"machines": 50,
		"marine":   99,
		"learning": 5,
	}}
	sc := NewSpellChecker(dict)

	got := sc.Suggest("machne")
	require.Len(t, got, 3)
	assert.Equal(t, "machine", got[0].Term)
	assert.Equal(t, 1, got[0].Distance)
	// marine and machines are both two edits away; marine is more frequent
	assert.Equal(t, []string{"machine", "marine", "machines"}, terms(got))
	assert.NotContains(t, terms(got), "learning")
}

func TestSpellChecker_SuggestCapsResults(t *testing.T) {
	dict := &mockTermDictionary{terms: map[string]int{"aa": 1, "ab": 2, "ac": 3, "ad": 4}}
	sc := NewSpellChecker(dict, WithMaxSuggestions(2))
	got := sc.Suggest("a")
	require.Len(t, got, 2)
	assert.Equal(t, []string{"ad", "ac"}, terms(got), "most frequent first among equal distances")
}

func TestSpellChecker_DictionaryError(t *testing.T) {
	sc := NewSpellChecker(&mockTermDictionary{getAllError: errors.New("boom")})
	assert.Nil(t, sc.Suggest("x"))
	assert.Error(t, sc.RefreshCache())
}

func TestSpellChecker_SpaceDictionary(t *testing.T) {
	sc := NewSpellChecker(NewSpaceDictionary(testVocabSpace()))

	got := sc.Suggest("qeen")
	require.GreaterOrEqual(t, len(got), 2)
	// both spellings are one edit away once case is folded; the earlier one ranks higher
	assert.Equal(t, []string{"queen", "Queen"}, terms(got[:2]))

	// a case variant is suggested for an exact word
	got = sc.Suggest("queen")
	require.NotEmpty(t, got)
	assert.Equal(t, "Queen", got[0].Term)
	assert.Equal(t, 0, got[0].Distance)

	assert.False(t, sc.IsMisspelled("king"))
	assert.True(t, sc.IsMisspelled("kingg"))
}

func TestSpaceDictionary(t *testing.T) {
	s := space.New(1, []space.Embedding{
		{Word: "a", Vector: vector.New([]float32{1})},
		{Word: "b", Vector: vector.New([]float32{1})},
		{Word: "a", Vector: vector.New([]float32{1})},
	})
	d := NewSpaceDictionary(s)

	all, err := d.GetAllTerms()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, all)

	f, _ := d.GetTermFrequency("a")
	assert.Equal(t, 3, f)
	f, _ = d.GetTermFrequency("zzz")
	assert.Zero(t, f)

	ok, _ := d.ContainsTerm("b")
	assert.True(t, ok)
}

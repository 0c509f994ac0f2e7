package vocab

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/config"
	"github.com/hyperjump/wordspace/internal/space"
)

// Vocabulary answers completion and "did you mean" queries for the current
// space. Without a word index, prefixes are matched by scanning.
type Vocabulary struct {
	cfg    config.VocabularyConfig
	index  WordIndex
	logger *zap.Logger

	mu      sync.RWMutex
	space   *space.Space
	checker *SpellChecker
}

// Option configures a Vocabulary.
type Option func(*Vocabulary)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Vocabulary) { v.logger = l }
}

// WithIndex uses idx instead of the one described by the config.
func WithIndex(idx WordIndex) Option {
	return func(v *Vocabulary) { v.index = idx }
}

// New creates an empty vocabulary. When cfg.IndexEnabled is set a Bleve
// index is opened at cfg.IndexPath, or kept in memory if the path is empty.
func New(cfg config.VocabularyConfig, opts ...Option) (*Vocabulary, error) {
	v := &Vocabulary{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	if v.index == nil && cfg.IndexEnabled {
		idx, err := NewBleveIndex(cfg.IndexPath)
		if err != nil {
			return nil, err
		}
		v.index = idx
	}
	return v, nil
}

// Indexed reports whether completions are served by a word index.
func (v *Vocabulary) Indexed() bool {
	return v.index != nil
}

// Rebuild switches the vocabulary to the words of s.
func (v *Vocabulary) Rebuild(ctx context.Context, s *space.Space) error {
	checker := NewSpellChecker(NewSpaceDictionary(s),
		WithMaxDistance(v.cfg.MaxEditDistance),
		WithMaxSuggestions(v.cfg.MaxSuggestions))
	if err := checker.RefreshCache(); err != nil {
		return err
	}

	if v.index != nil {
		if err := v.index.Rebuild(ctx, s.Words()); err != nil {
			return err
		}
		n, _ := v.index.DocCount()
		v.logger.Info("vocabulary indexed", zap.Uint64("words", n))
	}

	v.mu.Lock()
	v.space = s
	v.checker = checker
	v.mu.Unlock()
	return nil
}

func (v *Vocabulary) current() (*space.Space, *SpellChecker) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.space, v.checker
}

// Suggest returns up to limit vocabulary words for a partial or misspelled
// query: completions first, then spelling suggestions. limit <= 0 uses the
// configured maximum.
func (v *Vocabulary) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = v.cfg.MaxSuggestions
	}
	s, checker := v.current()
	if query == "" || s == nil || limit <= 0 {
		return []string{}, nil
	}

	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	add := func(words ...string) {
		for _, w := range words {
			if len(out) >= limit {
				return
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}

	if v.index != nil {
		words, err := v.index.Prefix(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		add(words...)
	} else {
		add(scanPrefix(s, query, limit)...)
	}

	for _, sg := range checker.Suggest(query) {
		add(sg.Term)
	}

	if v.index != nil && len(out) < limit && v.cfg.MaxEditDistance > 0 {
		// Bleve fuzzy queries accept at most two edits
		words, err := v.index.Fuzzy(ctx, query, min(v.cfg.MaxEditDistance, 2), limit)
		if err != nil {
			return nil, err
		}
		add(words...)
	}
	return out, nil
}

// Corrections returns spelling suggestions for a word that was not found.
func (v *Vocabulary) Corrections(word string) []string {
	_, checker := v.current()
	if checker == nil {
		return nil
	}
	sg := checker.Suggest(word)
	out := make([]string, len(sg))
	for i, s := range sg {
		out[i] = s.Term
	}
	return out
}

func scanPrefix(s *space.Space, prefix string, limit int) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	s.Each(func(_ int, e space.Embedding) bool {
		if strings.HasPrefix(strings.ToLower(e.Word), prefix) {
			out = append(out, e.Word)
		}
		return len(out) < limit
	})
	return out
}

// Close releases the word index.
func (v *Vocabulary) Close() error {
	if v.index == nil {
		return nil
	}
	return v.index.Close()
}

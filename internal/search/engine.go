// Package search provides the query engine over the currently loaded
// embedding space.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/analogy"
	"github.com/hyperjump/wordspace/internal/config"
	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/vector"
)

var (
	// ErrNotLoaded is returned by queries issued before any space is loaded.
	ErrNotLoaded = errors.New("no embedding space loaded")

	// ErrNoReloader is returned by Reload when the engine has no source.
	ErrNoReloader = errors.New("engine has no vectors source to reload from")
)

// DimensionError reports a query vector whose length does not match the space.
type DimensionError struct {
	Got, Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("query vector has %d components, space has %d", e.Got, e.Want)
}

// Loaded is one published space with where it came from.
type Loaded struct {
	Space    *space.Space
	Source   string
	LoadedAt time.Time
}

// ReloadFunc builds a fresh space and reports its source.
type ReloadFunc func(ctx context.Context) (*space.Space, string, error)

// Engine answers similarity and analogy queries. A reload builds a complete
// new space and publishes it with one atomic store; queries already running
// finish against the space they started with.
type Engine struct {
	current  atomic.Pointer[Loaded]
	config   *config.QueryConfig
	reloader ReloadFunc
	reloadMu sync.Mutex
	onSwap   []func(*Loaded)
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithReloader sets the function Reload uses to rebuild the space.
func WithReloader(fn ReloadFunc) Option {
	return func(e *Engine) { e.reloader = fn }
}

// WithOnSwap registers fn to run after every published space, on the
// goroutine that published it.
func WithOnSwap(fn func(*Loaded)) Option {
	return func(e *Engine) { e.onSwap = append(e.onSwap, fn) }
}

// NewEngine creates an engine with no space loaded.
func NewEngine(cfg *config.QueryConfig, opts ...Option) *Engine {
	if cfg == nil {
		cfg = &config.Default().Query
	}
	e := &Engine{config: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Swap publishes s as the current space.
func (e *Engine) Swap(s *space.Space, source string) {
	l := &Loaded{Space: s, Source: source, LoadedAt: time.Now()}
	e.current.Store(l)
	e.logger.Info("embedding space published",
		zap.String("source", source),
		zap.Int("words", s.Len()),
		zap.Int("dimension", s.Dimension()))
	for _, fn := range e.onSwap {
		fn(l)
	}
}

// Reload rebuilds the space with the configured reloader and swaps it in.
// Concurrent calls are serialised.
func (e *Engine) Reload(ctx context.Context) error {
	if e.reloader == nil {
		return ErrNoReloader
	}
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	start := time.Now()
	s, source, err := e.reloader(ctx)
	if err != nil {
		e.logger.Error("reload failed", zap.Error(err))
		return fmt.Errorf("reload: %w", err)
	}
	e.Swap(s, source)
	e.logger.Info("reload complete", zap.Duration("took", time.Since(start)))
	return nil
}

// Current returns the published space and false if none is loaded.
func (e *Engine) Current() (*Loaded, bool) {
	l := e.current.Load()
	return l, l != nil
}

func (e *Engine) loaded() (*space.Space, error) {
	l := e.current.Load()
	if l == nil {
		return nil, ErrNotLoaded
	}
	return l.Space, nil
}

// Size returns the number of words, 0 when nothing is loaded.
func (e *Engine) Size() int {
	if l := e.current.Load(); l != nil {
		return l.Space.Len()
	}
	return 0
}

// Dimension returns the vector length, 0 when nothing is loaded.
func (e *Engine) Dimension() int {
	if l := e.current.Load(); l != nil {
		return l.Space.Dimension()
	}
	return 0
}

// DefaultFactor returns the configured projection factor.
func (e *Engine) DefaultFactor() float32 {
	return float32(e.config.ProjectionFactor)
}

// ClampN applies the configured default and maximum result counts.
func (e *Engine) ClampN(n int) int {
	if n <= 0 {
		return e.config.DefaultN
	}
	if e.config.MaxN > 0 && n > e.config.MaxN {
		return e.config.MaxN
	}
	return n
}

// Get resolves word with fuzzy matching.
func (e *Engine) Get(_ context.Context, word string) (space.Embedding, error) {
	s, err := e.loaded()
	if err != nil {
		return space.Embedding{}, err
	}
	return s.Get(word)
}

// GetExact resolves word without fuzzy matching.
func (e *Engine) GetExact(_ context.Context, word string) (space.Embedding, error) {
	s, err := e.loaded()
	if err != nil {
		return space.Embedding{}, err
	}
	return s.GetExact(word)
}

// GetEmbedding is Get returning the empty-word sentinel instead of an error.
func (e *Engine) GetEmbedding(_ context.Context, word string) space.Embedding {
	s, err := e.loaded()
	if err != nil {
		return space.Embedding{}
	}
	return s.GetEmbedding(word)
}

// Distance returns the cosine distance between two words.
func (e *Engine) Distance(_ context.Context, word1, word2 string) (float32, error) {
	s, err := e.loaded()
	if err != nil {
		return 0, err
	}
	return s.Distance(word1, word2)
}

// Neighbors returns the n words closest to word. The word itself is included.
func (e *Engine) Neighbors(ctx context.Context, word string, n int) ([]space.ScoredWord, error) {
	s, err := e.loaded()
	if err != nil {
		return nil, err
	}
	emb, err := s.Get(word)
	if err != nil {
		return nil, err
	}
	return e.rank(ctx, s, "neighbors", emb.Vector, n, nil)
}

// NeighborsOfVector returns the n words closest to an arbitrary point.
func (e *Engine) NeighborsOfVector(ctx context.Context, point []float32, n int) ([]space.ScoredWord, error) {
	s, err := e.loaded()
	if err != nil {
		return nil, err
	}
	if len(point) != s.Dimension() {
		return nil, &DimensionError{Got: len(point), Want: s.Dimension()}
	}
	return e.rank(ctx, s, "vector", vector.New(point), n, nil)
}

// Within returns every other word within threshold of word, closest first.
func (e *Engine) Within(_ context.Context, word string, threshold float32) ([]space.ScoredWord, error) {
	s, err := e.loaded()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := s.WordsAtDistanceUnder(word, threshold)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("query",
		zap.String("kind", "within"),
		zap.Float32("threshold", threshold),
		zap.Int("results", len(res)),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

// LikePair answers like(first, second) or, when negative, unlike(first, second).
func (e *Engine) LikePair(ctx context.Context, first, second string, n int, negative bool, factor float32) ([]space.ScoredWord, error) {
	s, err := e.loaded()
	if err != nil {
		return nil, err
	}
	a, err := s.Get(first)
	if err != nil {
		return nil, err
	}
	b, err := s.Get(second)
	if err != nil {
		return nil, err
	}
	chain := analogy.NewChain(s.Dimension(), analogy.NewHyperplane(a.Vector, b.Vector, negative, factor))
	kind := "like"
	if negative {
		kind = "unlike"
	}
	return e.rankChain(ctx, s, kind, chain, n)
}

// Like answers like(first, second).
func (e *Engine) Like(ctx context.Context, first, second string, n int, factor float32) ([]space.ScoredWord, error) {
	return e.LikePair(ctx, first, second, n, false, factor)
}

// Unlike answers unlike(first, second).
func (e *Engine) Unlike(ctx context.Context, first, second string, n int, factor float32) ([]space.ScoredWord, error) {
	return e.LikePair(ctx, first, second, n, true, factor)
}

// LikeTree resolves and compiles tree, then ranks the transformed space. A
// tree that is a single word is answered as Neighbors of that word.
func (e *Engine) LikeTree(ctx context.Context, tree *analogy.Tree, n int) ([]space.ScoredWord, error) {
	s, err := e.loaded()
	if err != nil {
		return nil, err
	}
	if err := tree.Resolve(s); err != nil {
		return nil, err
	}
	chain, err := tree.Compile()
	if errors.Is(err, analogy.ErrLeafRoot) {
		root, _ := tree.Root()
		emb, _ := tree.Resolved(root)
		return e.rank(ctx, s, "neighbors", emb.Vector, n, nil)
	}
	if err != nil {
		return nil, err
	}
	return e.rankChain(ctx, s, "tree", chain, n)
}

// Query parses expr and answers it with LikeTree. factor is the default for
// operators that do not give one.
func (e *Engine) Query(ctx context.Context, expr string, n int, factor float32) ([]space.ScoredWord, error) {
	tree, err := analogy.Parse(expr, factor)
	if err != nil {
		return nil, err
	}
	return e.LikeTree(ctx, tree, n)
}

func (e *Engine) rankChain(ctx context.Context, s *space.Space, kind string, chain analogy.Chain, n int) ([]space.ScoredWord, error) {
	return e.rank(ctx, s, kind, chain.ComparisonPoint(), n, chain.Apply)
}

func (e *Engine) rank(ctx context.Context, s *space.Space, kind string, point vector.Vector, n int, transform space.Transform) ([]space.ScoredWord, error) {
	start := time.Now()
	n = e.ClampN(n)
	res, err := s.ParallelTopN(ctx, point, n, transform, e.config.Workers)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("query",
		zap.String("kind", kind),
		zap.Int("n", n),
		zap.Int("results", len(res)),
		zap.Duration("took", time.Since(start)))
	return space.Words(res), nil
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/config"
	"github.com/hyperjump/wordspace/internal/graph"
	"github.com/hyperjump/wordspace/internal/loader"
	"github.com/hyperjump/wordspace/internal/models"
	"github.com/hyperjump/wordspace/internal/search"
	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/storage"
	"github.com/hyperjump/wordspace/internal/vocab"
)

// backend answers CLI queries, either through a running server or against
// vectors loaded in-process.
type backend interface {
	Neighbors(ctx context.Context, req *models.NeighborsRequest) (*models.QueryResponse, error)
	Within(ctx context.Context, req *models.WithinRequest) (*models.QueryResponse, error)
	Pair(ctx context.Context, req *models.PairRequest, negative bool) (*models.QueryResponse, error)
	Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
	Distance(ctx context.Context, a, b string) (*models.DistanceResponse, error)
	Word(ctx context.Context, word string, exact bool) (*models.WordInfo, error)
	Suggest(ctx context.Context, q string, limit int) (*models.SuggestResponse, error)
	Cluster(ctx context.Context, req *models.ClusterRequest) (*models.ClusterResponse, error)
	Graph(ctx context.Context, req *models.GraphRequest) (*graph.Graph, error)
	Close()
}

// apiError is a non-2xx server response.
type apiError struct {
	Status      int
	Message     string
	Suggestions []string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type httpBackend struct {
	baseURL string
	client  *http.Client
}

func newHTTPBackend(baseURL string) *httpBackend {
	return &httpBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (b *httpBackend) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		var er models.ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			return &apiError{Status: resp.StatusCode, Message: er.Error, Suggestions: er.Suggestions}
		}
		return &apiError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (b *httpBackend) results(ctx context.Context, path string, body interface{}) (*models.QueryResponse, error) {
	var out models.QueryResponse
	if err := b.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *httpBackend) Neighbors(ctx context.Context, req *models.NeighborsRequest) (*models.QueryResponse, error) {
	return b.results(ctx, "/api/v1/neighbors", req)
}

func (b *httpBackend) Within(ctx context.Context, req *models.WithinRequest) (*models.QueryResponse, error) {
	return b.results(ctx, "/api/v1/within", req)
}

func (b *httpBackend) Pair(ctx context.Context, req *models.PairRequest, negative bool) (*models.QueryResponse, error) {
	if negative {
		return b.results(ctx, "/api/v1/unlike", req)
	}
	return b.results(ctx, "/api/v1/like", req)
}

func (b *httpBackend) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	return b.results(ctx, "/api/v1/query", req)
}

func (b *httpBackend) Distance(ctx context.Context, first, second string) (*models.DistanceResponse, error) {
	q := url.Values{"a": {first}, "b": {second}}
	var out models.DistanceResponse
	if err := b.do(ctx, http.MethodGet, "/api/v1/distance?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *httpBackend) Word(ctx context.Context, word string, exact bool) (*models.WordInfo, error) {
	path := "/api/v1/words/" + url.PathEscape(word)
	if exact {
		path += "?exact=true"
	}
	var out models.WordInfo
	if err := b.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *httpBackend) Suggest(ctx context.Context, q string, limit int) (*models.SuggestResponse, error) {
	v := url.Values{"q": {q}}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var out models.SuggestResponse
	if err := b.do(ctx, http.MethodGet, "/api/v1/suggest?"+v.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *httpBackend) Cluster(ctx context.Context, req *models.ClusterRequest) (*models.ClusterResponse, error) {
	var out models.ClusterResponse
	if err := b.do(ctx, http.MethodPost, "/api/v1/cluster", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *httpBackend) Graph(ctx context.Context, req *models.GraphRequest) (*graph.Graph, error) {
	var out graph.Graph
	if err := b.do(ctx, http.MethodPost, "/api/v1/graph", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *httpBackend) Status(ctx context.Context) (*models.SpaceStatus, error) {
	var out models.SpaceStatus
	if err := b.do(ctx, http.MethodGet, "/api/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *httpBackend) Close() {}

// localBackend loads the configured vectors on first use.
type localBackend struct {
	components *Components
	cfg        *config.Config
	loadOnce   sync.Once
	loadErr    error
}

func newLocalBackend(c *Components, cfg *config.Config) *localBackend {
	return &localBackend{components: c, cfg: cfg}
}

func (b *localBackend) engine(ctx context.Context) (*search.Engine, error) {
	b.loadOnce.Do(func() {
		b.loadErr = b.components.Engine.Reload(ctx)
	})
	return b.components.Engine, b.loadErr
}

func timed(query string, start time.Time, results []space.ScoredWord, err error) (*models.QueryResponse, error) {
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []space.ScoredWord{}
	}
	return &models.QueryResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     query,
	}, nil
}

func (b *localBackend) Neighbors(ctx context.Context, req *models.NeighborsRequest) (*models.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	e, err := b.engine(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	if req.Word == "" {
		res, err := e.NeighborsOfVector(ctx, req.Vector, req.N)
		return timed(fmt.Sprintf("neighbors(vector[%d])", len(req.Vector)), start, res, err)
	}
	res, err := e.Neighbors(ctx, req.Word, req.N)
	return timed(fmt.Sprintf("neighbors(%q)", req.Word), start, res, err)
}

func (b *localBackend) Within(ctx context.Context, req *models.WithinRequest) (*models.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	e, err := b.engine(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := e.Within(ctx, req.Word, req.Threshold)
	return timed(fmt.Sprintf("within(%q, %g)", req.Word, req.Threshold), start, res, err)
}

func (b *localBackend) Pair(ctx context.Context, req *models.PairRequest, negative bool) (*models.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	e, err := b.engine(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	factor := req.FactorOr(e.DefaultFactor())
	res, err := e.LikePair(ctx, req.First, req.Second, req.N, negative, factor)
	op := "like"
	if negative {
		op = "unlike"
	}
	return timed(fmt.Sprintf("%s(%q, %q, %g)", op, req.First, req.Second, factor), start, res, err)
}

func (b *localBackend) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	e, err := b.engine(ctx)
	if err != nil {
		return nil, err
	}
	return e.Search(ctx, req)
}

func (b *localBackend) Distance(ctx context.Context, first, second string) (*models.DistanceResponse, error) {
	e, err := b.engine(ctx)
	if err != nil {
		return nil, err
	}
	d, err := e.Distance(ctx, first, second)
	if err != nil {
		return nil, err
	}
	return &models.DistanceResponse{First: first, Second: second, Distance: d}, nil
}

// Word answers exact lookups against a local snapshot with a single indexed
// query instead of loading the whole space.
func (b *localBackend) Word(ctx context.Context, word string, exact bool) (*models.WordInfo, error) {
	var (
		emb space.Embedding
		err error
	)
	if path, ok := b.snapshotPath(); ok && exact {
		emb, err = lookupSnapshot(ctx, path, word)
	} else {
		var e *search.Engine
		if e, err = b.engine(ctx); err != nil {
			return nil, err
		}
		if exact {
			emb, err = e.GetExact(ctx, word)
		} else {
			emb, err = e.Get(ctx, word)
		}
	}
	if err != nil {
		return nil, err
	}
	return &models.WordInfo{
		Query:  word,
		Word:   emb.Word,
		Exact:  emb.Word == word,
		Norm:   emb.Vector.Norm(),
		Vector: emb.Vector.Components(),
	}, nil
}

func (b *localBackend) snapshotPath() (string, bool) {
	path := b.cfg.Vectors.Path
	format, err := loader.ParseFormat(b.cfg.Vectors.Format)
	if err != nil || path == "" || loader.IsObjectURL(path) {
		return "", false
	}
	if format == loader.FormatAuto {
		format = loader.DetectFormat(path)
	}
	if _, codec := loader.SplitCompression(path); codec != loader.CompressionNone || format != loader.FormatSQLite {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func lookupSnapshot(ctx context.Context, path, word string) (space.Embedding, error) {
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return space.Embedding{}, err
	}
	defer store.Close()
	return store.LookupWord(ctx, word)
}

func (b *localBackend) Suggest(ctx context.Context, q string, limit int) (*models.SuggestResponse, error) {
	if _, err := b.engine(ctx); err != nil {
		return nil, err
	}
	resp := &models.SuggestResponse{Query: q, Suggestions: []string{}}
	if b.components.Vocab == nil {
		return resp, nil
	}
	words, err := b.components.Vocab.Suggest(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	resp.Suggestions = words
	return resp, nil
}

func (b *localBackend) Cluster(ctx context.Context, req *models.ClusterRequest) (*models.ClusterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	e, err := b.engine(ctx)
	if err != nil {
		return nil, err
	}
	return e.Cluster(ctx, req.Word,
		req.SizeOr(models.DefaultClusterSize),
		req.FactorOr(e.DefaultFactor()),
		req.CutoffOr(models.DefaultClusterCutoff))
}

func (b *localBackend) Graph(ctx context.Context, req *models.GraphRequest) (*graph.Graph, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	e, err := b.engine(ctx)
	if err != nil {
		return nil, err
	}
	return e.Graph(ctx, search.GraphOptions(req), req.Hops)
}

// Corrections returns spelling suggestions for words missing from the space.
// Commands that run without a vocabulary build one for the occasion.
func (b *localBackend) Corrections(ctx context.Context, words ...string) []string {
	cur, ok := b.components.Engine.Current()
	if !ok {
		return nil
	}
	v := b.components.Vocab
	if v == nil {
		vcfg := b.cfg.Vocabulary
		vcfg.IndexEnabled = false
		var err error
		if v, err = vocab.New(vcfg); err != nil {
			return nil
		}
		defer v.Close()
		if err := v.Rebuild(ctx, cur.Space); err != nil {
			return nil
		}
	}
	var out []string
	for _, w := range words {
		if _, err := cur.Space.GetExact(w); err != nil {
			out = append(out, v.Corrections(w)...)
		}
	}
	return out
}

func (b *localBackend) Close() { b.components.Close() }

// Components holds initialized services.
type Components struct {
	Loader *loader.Loader
	Engine *search.Engine
	Vocab  *vocab.Vocabulary
}

// Close releases the vocabulary index.
func (c *Components) Close() {
	if c.Vocab != nil {
		_ = c.Vocab.Close()
	}
}

// initializeComponents wires the loader and engine. With withVocab the
// vocabulary is rebuilt every time a space is published.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withVocab bool) (*Components, error) {
	ld := loader.New(
		loader.WithLogger(logger),
		loader.WithObjectStore(cfg.ObjectStore),
		loader.WithSpaceOptions(space.WithResolveCache(cfg.Query.ResolveCacheSize)),
	)
	opts := []search.Option{
		search.WithLogger(logger),
		search.WithReloader(ld.Reloader(cfg.Vectors)),
	}

	var v *vocab.Vocabulary
	if withVocab {
		var err error
		v, err = vocab.New(cfg.Vocabulary, vocab.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vocabulary: %w", err)
		}
		opts = append(opts, search.WithOnSwap(func(l *search.Loaded) {
			if err := v.Rebuild(context.Background(), l.Space); err != nil {
				logger.Warn("vocabulary rebuild failed", zap.Error(err))
			}
		}))
	}

	return &Components{
		Loader: ld,
		Engine: search.NewEngine(&cfg.Query, opts...),
		Vocab:  v,
	}, nil
}

// resolveVectorsPath falls back to the snapshot database when no vectors
// path is configured.
func resolveVectorsPath(cfg *config.Config) error {
	if cfg.Vectors.Path != "" {
		return nil
	}
	if _, err := os.Stat(cfg.Storage.SnapshotPath); err == nil {
		cfg.Vectors.Path = cfg.Storage.SnapshotPath
		cfg.Vectors.Format = string(loader.FormatSQLite)
		return nil
	}
	return errors.New("no vectors configured; pass -vectors or set vectors.path, or run wordspace import first")
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/analogy"
	"github.com/hyperjump/wordspace/internal/graph"
	"github.com/hyperjump/wordspace/internal/models"
	"github.com/hyperjump/wordspace/internal/search"
	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SpaceStatus{
		VocabularyIndex: s.vocab != nil && s.vocab.Indexed(),
	}
	if cur, ok := s.engine.Current(); ok {
		status.Loaded = true
		status.Words = cur.Space.Len()
		status.Dimension = cur.Space.Dimension()
		status.Source = cur.Source
		status.LoadedAt = cur.LoadedAt
	}
	if path := s.config.Storage.SnapshotPath; path != "" {
		if n, err := storage.SnapshotBytes(path); err == nil {
			status.SnapshotBytes = n
		} else {
			s.logger.Warn("status: snapshot size unavailable", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("reload requested", zap.String("request_id", RequestID(r.Context())))
	if err := s.engine.Reload(r.Context()); err != nil {
		if errors.Is(err, search.ErrNoReloader) {
			s.respondError(w, http.StatusNotImplemented, "no vectors source configured")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.handleStatus(w, r)
}

func (s *Server) handleGetWord(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	exact, _ := strconv.ParseBool(r.URL.Query().Get("exact"))

	var (
		emb space.Embedding
		err error
	)
	if exact {
		emb, err = s.engine.GetExact(r.Context(), word)
	} else {
		emb, err = s.engine.Get(r.Context(), word)
	}
	if err != nil {
		s.respondEngineError(w, r, err, word)
		return
	}
	s.respondJSON(w, http.StatusOK, models.WordInfo{
		Query:  word,
		Word:   emb.Word,
		Exact:  emb.Word == word,
		Norm:   emb.Vector.Norm(),
		Vector: emb.Vector.Components(),
	})
}

func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	a := strings.TrimSpace(r.URL.Query().Get("a"))
	b := strings.TrimSpace(r.URL.Query().Get("b"))
	if a == "" || b == "" {
		s.respondError(w, http.StatusBadRequest, "query parameters a and b are required")
		return
	}
	d, err := s.engine.Distance(r.Context(), a, b)
	if err != nil {
		s.respondEngineError(w, r, err, a, b)
		return
	}
	s.respondJSON(w, http.StatusOK, models.DistanceResponse{First: a, Second: b, Distance: d})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	resp := models.SuggestResponse{Query: q, Suggestions: []string{}}
	if s.vocab != nil {
		words, err := s.vocab.Suggest(r.Context(), q, limit)
		if err != nil {
			s.logger.Error("suggest failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Suggestions = words
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	var req models.NeighborsRequest
	if !s.decode(w, r, &req) {
		return
	}
	start := time.Now()
	var (
		results []space.ScoredWord
		err     error
		query   string
	)
	if req.Word != "" {
		query = fmt.Sprintf("neighbors(%q)", req.Word)
		results, err = s.engine.Neighbors(r.Context(), req.Word, req.N)
	} else {
		query = fmt.Sprintf("neighbors(vector[%d])", len(req.Vector))
		results, err = s.engine.NeighborsOfVector(r.Context(), req.Vector, req.N)
	}
	if err != nil {
		s.respondEngineError(w, r, err, req.Word)
		return
	}
	s.respondResults(w, query, results, start)
}

func (s *Server) handleWithin(w http.ResponseWriter, r *http.Request) {
	var req models.WithinRequest
	if !s.decode(w, r, &req) {
		return
	}
	start := time.Now()
	results, err := s.engine.Within(r.Context(), req.Word, req.Threshold)
	if err != nil {
		s.respondEngineError(w, r, err, req.Word)
		return
	}
	s.respondResults(w, fmt.Sprintf("within(%q, %g)", req.Word, req.Threshold), results, start)
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	s.handlePair(w, r, false)
}

func (s *Server) handleUnlike(w http.ResponseWriter, r *http.Request) {
	s.handlePair(w, r, true)
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request, negative bool) {
	var req models.PairRequest
	if !s.decode(w, r, &req) {
		return
	}
	start := time.Now()
	factor := req.FactorOr(s.engine.DefaultFactor())
	results, err := s.engine.LikePair(r.Context(), req.First, req.Second, req.N, negative, factor)
	if err != nil {
		s.respondEngineError(w, r, err, req.First, req.Second)
		return
	}
	op := "like"
	if negative {
		op = "unlike"
	}
	s.respondResults(w, fmt.Sprintf("%s(%q, %q, %g)", op, req.First, req.Second, factor), results, start)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start := time.Now()
	tree, err := search.ProcessQuery(&req, s.engine.DefaultFactor())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("query", tree.String()), zap.Int("n", req.N))
	results, err := s.engine.LikeTree(r.Context(), tree, req.N)
	if err != nil {
		s.respondEngineError(w, r, err, tree.Words()...)
		return
	}
	s.respondResults(w, tree.String(), results, start)
}

func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	var req models.ClusterRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.engine.Cluster(r.Context(), req.Word,
		req.SizeOr(models.DefaultClusterSize),
		req.FactorOr(s.engine.DefaultFactor()),
		req.CutoffOr(models.DefaultClusterCutoff))
	if err != nil {
		s.respondEngineError(w, r, err, req.Word)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

// handleGraph answers with JSON, or with GEXF when ?format=gexf.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	format, err := graph.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req models.GraphRequest
	if !s.decode(w, r, &req) {
		return
	}
	g, err := s.engine.Graph(r.Context(), search.GraphOptions(&req), req.Hops)
	if err != nil {
		s.respondEngineError(w, r, err, req.Ego)
		return
	}
	if format != graph.FormatGEXF {
		s.respondJSON(w, http.StatusOK, g)
		return
	}
	w.Header().Set("Content-Type", "application/gexf+xml")
	w.WriteHeader(http.StatusOK)
	if err := graph.Encode(w, g, graph.FormatGEXF); err != nil {
		s.logger.Error("graph encode failed", zap.Error(err))
	}
}

type validator interface {
	Validate() error
}

// decode reads a JSON body into req and validates it, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, req validator) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) respondResults(w http.ResponseWriter, query string, results []space.ScoredWord, start time.Time) {
	if results == nil {
		results = []space.ScoredWord{}
	}
	s.respondJSON(w, http.StatusOK, models.QueryResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     query,
	})
}

// respondEngineError maps query errors to status codes. A not found error
// carries spelling suggestions for each of words missing from the space.
func (s *Server) respondEngineError(w http.ResponseWriter, r *http.Request, err error, words ...string) {
	var dimErr *search.DimensionError
	switch {
	case errors.Is(err, space.ErrNotFound):
		resp := models.ErrorResponse{Error: err.Error()}
		if s.vocab != nil {
			for _, word := range words {
				if _, gerr := s.engine.GetExact(r.Context(), word); gerr != nil {
					resp.Suggestions = append(resp.Suggestions, s.vocab.Corrections(word)...)
				}
			}
		}
		s.respondJSON(w, http.StatusNotFound, resp)
	case errors.Is(err, search.ErrNotLoaded):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &dimErr),
		errors.Is(err, analogy.ErrSyntax),
		errors.Is(err, analogy.ErrEmptyTree):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusGatewayTimeout, "query timed out")
	case errors.Is(err, context.Canceled):
		s.respondError(w, http.StatusServiceUnavailable, "query cancelled")
	default:
		s.logger.Error("query failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Error: message})
}

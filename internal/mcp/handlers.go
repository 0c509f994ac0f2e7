package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/models"
	"github.com/hyperjump/wordspace/internal/search"
	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/vocab"
)

// Handlers implements the wordspace tools.
type Handlers struct {
	engine *search.Engine
	vocab  *vocab.Vocabulary
	logger *zap.Logger
}

// Neighbors handles the neighbors tool.
func (h *Handlers) Neighbors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := request.RequireString("word")
	if err != nil || strings.TrimSpace(word) == "" {
		return mcp.NewToolResultError("word argument is required and must be a string"), nil
	}
	n := request.GetInt("n", 0)
	results, err := h.engine.Neighbors(ctx, word, n)
	if err != nil {
		return h.toolError(ctx, err, word), nil
	}
	return h.results(fmt.Sprintf("neighbors(%q)", word), results)
}

// Like handles the like tool.
func (h *Handlers) Like(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.pair(ctx, request, false)
}

// Unlike handles the unlike tool.
func (h *Handlers) Unlike(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.pair(ctx, request, true)
}

func (h *Handlers) pair(ctx context.Context, request mcp.CallToolRequest, negative bool) (*mcp.CallToolResult, error) {
	first, err1 := request.RequireString("first")
	second, err2 := request.RequireString("second")
	if err1 != nil || err2 != nil {
		return mcp.NewToolResultError("first and second arguments are required and must be strings"), nil
	}
	n := request.GetInt("n", 0)
	factor := float32(request.GetFloat("factor", float64(h.engine.DefaultFactor())))

	results, err := h.engine.LikePair(ctx, first, second, n, negative, factor)
	if err != nil {
		return h.toolError(ctx, err, first, second), nil
	}
	op := "like"
	if negative {
		op = "unlike"
	}
	return h.results(fmt.Sprintf("%s(%q, %q, %g)", op, first, second, factor), results)
}

// Analogy handles the analogy tool.
func (h *Handlers) Analogy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError("expression argument is required and must be a string"), nil
	}
	req := &models.QueryRequest{Expression: expr, N: request.GetInt("n", 0)}
	if f, err := request.RequireFloat("factor"); err == nil {
		factor := float32(f)
		req.Factor = &factor
	}

	tree, err := search.ProcessQuery(req, h.engine.DefaultFactor())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := h.engine.LikeTree(ctx, tree, req.N)
	if err != nil {
		return h.toolError(ctx, err, tree.Words()...), nil
	}
	return h.results(tree.String(), results)
}

// Distance handles the distance tool.
func (h *Handlers) Distance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	first, err1 := request.RequireString("first")
	second, err2 := request.RequireString("second")
	if err1 != nil || err2 != nil {
		return mcp.NewToolResultError("first and second arguments are required and must be strings"), nil
	}
	d, err := h.engine.Distance(ctx, first, second)
	if err != nil {
		return h.toolError(ctx, err, first, second), nil
	}
	return h.marshal(models.DistanceResponse{First: first, Second: second, Distance: d})
}

// Within handles the within tool.
func (h *Handlers) Within(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := request.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError("word argument is required and must be a string"), nil
	}
	threshold, err := request.RequireFloat("threshold")
	if err != nil {
		return mcp.NewToolResultError("threshold argument is required and must be a number"), nil
	}
	req := &models.WithinRequest{Word: word, Threshold: float32(threshold)}
	if err := req.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := h.engine.Within(ctx, req.Word, req.Threshold)
	if err != nil {
		return h.toolError(ctx, err, word), nil
	}
	return h.results(fmt.Sprintf("within(%q, %g)", req.Word, req.Threshold), results)
}

// Cluster handles the cluster tool.
func (h *Handlers) Cluster(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := request.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError("word argument is required and must be a string"), nil
	}
	req := &models.ClusterRequest{Word: word, N: request.GetInt("n", 0)}
	if c, err := request.RequireFloat("cutoff"); err == nil {
		req.Cutoff = &c
	}
	if err := req.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	factor := float32(request.GetFloat("factor", float64(h.engine.DefaultFactor())))

	res, err := h.engine.Cluster(ctx, req.Word, req.SizeOr(models.DefaultClusterSize), factor,
		req.CutoffOr(models.DefaultClusterCutoff))
	if err != nil {
		return h.toolError(ctx, err, word), nil
	}
	return h.marshal(res)
}

// Graph handles the graph tool.
func (h *Handlers) Graph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := request.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError("word argument is required and must be a string"), nil
	}
	req := &models.GraphRequest{
		Ego:           word,
		Hops:          request.GetInt("hops", 0),
		DistanceLimit: float32(request.GetFloat("distance_limit", 0)),
	}
	if err := req.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g, err := h.engine.Graph(ctx, search.GraphOptions(req), req.Hops)
	if err != nil {
		return h.toolError(ctx, err, word), nil
	}
	return h.marshal(g)
}

func (h *Handlers) results(query string, results []space.ScoredWord) (*mcp.CallToolResult, error) {
	if results == nil {
		results = []space.ScoredWord{}
	}
	return h.marshal(models.QueryResponse{Results: results, Total: len(results), Query: query})
}

func (h *Handlers) marshal(v interface{}) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError reports a failed query as a tool error. Words missing from the
// space get spelling suggestions appended.
func (h *Handlers) toolError(ctx context.Context, err error, words ...string) *mcp.CallToolResult {
	if !errors.Is(err, space.ErrNotFound) {
		h.logger.Warn("mcp tool failed", zap.Error(err))
		return mcp.NewToolResultError(err.Error())
	}
	msg := err.Error()
	if h.vocab != nil {
		var suggestions []string
		for _, w := range words {
			if _, gerr := h.engine.GetExact(ctx, w); gerr != nil {
				suggestions = append(suggestions, h.vocab.Corrections(w)...)
			}
		}
		if len(suggestions) > 0 {
			msg += "; did you mean: " + strings.Join(suggestions, ", ")
		}
	}
	return mcp.NewToolResultError(msg)
}

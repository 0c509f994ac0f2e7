package search

import (
	"context"
	"time"

	"github.com/hyperjump/wordspace/internal/analogy"
	"github.com/hyperjump/wordspace/internal/models"
)

// ProcessQuery validates req and turns its expression or JSON tree into a
// query tree. Operators without a factor use the request's factor, falling
// back to defaultFactor.
func ProcessQuery(req *models.QueryRequest, defaultFactor float32) (*analogy.Tree, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	factor := req.FactorOr(defaultFactor)
	if req.Tree != nil {
		return req.Tree.Build(factor)
	}
	return analogy.Parse(req.Expression, factor)
}

// Search answers a compositional query request.
func (e *Engine) Search(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	startTime := time.Now()
	tree, err := ProcessQuery(req, e.DefaultFactor())
	if err != nil {
		return nil, err
	}
	results, err := e.LikeTree(ctx, tree, req.N)
	if err != nil {
		return nil, err
	}
	return &models.QueryResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(startTime).Milliseconds(),
		Query:     tree.String(),
	}, nil
}

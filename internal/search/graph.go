package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/graph"
	"github.com/hyperjump/wordspace/internal/models"
)

// GraphOptions maps a graph request onto builder options.
func GraphOptions(req *models.GraphRequest) graph.Options {
	return graph.Options{
		Words:         req.Words,
		DistanceLimit: req.DistanceLimit,
		MinNeighbours: req.MinNeighbours,
		MaxNeighbours: req.MaxNeighbours,
		WeightScaling: req.WeightScaling,
		Ego:           req.Ego,
	}.WithDefaults()
}

// Graph builds the neighbourhood graph of the current space. With hops > 0
// the whole graph is built without an ego and the ball of hops arcs around
// opts.Ego is returned.
func (e *Engine) Graph(ctx context.Context, opts graph.Options, hops int) (*graph.Graph, error) {
	s, err := e.loaded()
	if err != nil {
		return nil, err
	}
	start := time.Now()

	ego := opts.Ego
	if hops > 0 {
		opts.Ego = ""
	}
	g, err := graph.Build(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	if hops > 0 {
		emb, err := s.Get(ego)
		if err != nil {
			return nil, err
		}
		if g, err = g.Ego(emb.Word, hops); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("query",
		zap.String("kind", "graph"),
		zap.String("ego", ego),
		zap.Int("hops", hops),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
		zap.Duration("took", time.Since(start)))
	return g, nil
}

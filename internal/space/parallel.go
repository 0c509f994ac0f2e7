package space

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/wordspace/internal/ranking"
	"github.com/hyperjump/wordspace/internal/vector"
)

// minPartition keeps goroutine overhead from dominating small scans.
var minPartition = 1024

// ParallelTopN is TopNTransformed split across workers goroutines. Each
// worker ranks a contiguous range of the store; the partial lists are merged
// in range order so the result is identical to the sequential scan.
func (s *Space) ParallelTopN(ctx context.Context, point vector.Vector, n int, transform Transform, workers int) ([]ScoredEmbedding, error) {
	size := len(s.entries)
	if workers > size/minPartition {
		workers = size / minPartition
	}
	if workers <= 1 || n <= 0 {
		return s.TopNTransformed(point, n, transform), nil
	}

	chunk := (size + workers - 1) / workers
	parts := make([][]ranking.Scored[int], workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, size)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parts[w] = s.rankRange(point, n, transform, start, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.scored(ranking.Merge(n, parts...)), nil
}

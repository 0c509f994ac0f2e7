package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/analogy"
	"github.com/hyperjump/wordspace/internal/models"
	"github.com/hyperjump/wordspace/internal/space"
)

// Cluster groups the neighbourhood of target. The target's group is its n
// nearest words; every other neighbour w gets the group like(target, w). Two
// groups cluster when more than cutoff of the first group's n members also
// appear in the second.
func (e *Engine) Cluster(ctx context.Context, target string, n int, factor float32, cutoff float64) (*models.ClusterResponse, error) {
	s, err := e.loaded()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	n = e.ClampN(n)

	t, err := s.Get(target)
	if err != nil {
		return nil, err
	}
	neighbours, err := e.rank(ctx, s, "neighbors", t.Vector, n, nil)
	if err != nil {
		return nil, err
	}

	groups := []models.ClusterGroup{{Word: t.Word, Members: neighbours}}
	seen := map[string]struct{}{t.Word: {}}
	for _, nb := range neighbours {
		if _, dup := seen[nb.Word]; dup {
			continue
		}
		seen[nb.Word] = struct{}{}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, err := s.GetExact(nb.Word)
		if err != nil {
			return nil, err
		}
		chain := analogy.NewChain(s.Dimension(), analogy.NewHyperplane(t.Vector, w.Vector, false, factor))
		members, err := e.rankChain(ctx, s, "like", chain, n)
		if err != nil {
			return nil, err
		}
		groups = append(groups, models.ClusterGroup{Word: nb.Word, Members: members})
	}

	sets := make([]map[string]struct{}, len(groups))
	for i, g := range groups {
		sets[i] = memberSet(g.Members)
	}

	res := &models.ClusterResponse{
		Target:  t.Word,
		N:       n,
		Factor:  factor,
		Cutoff:  cutoff,
		Members: []string{},
	}
	clustered := make(map[string]struct{})
	for i := range groups {
		g := &groups[i]
		g.Shared = []models.SharedCount{}
		g.ClustersWith = []string{}
		g.Apart = []string{}
		for j, other := range groups {
			if i == j {
				continue
			}
			count := 0
			for _, m := range g.Members {
				if _, ok := sets[j][m.Word]; ok {
					count++
				}
			}
			g.Shared = append(g.Shared, models.SharedCount{Word: other.Word, Count: count})
			if float64(count)/float64(n) > cutoff {
				g.ClustersWith = append(g.ClustersWith, other.Word)
			} else {
				g.Apart = append(g.Apart, other.Word)
			}
		}
		if len(g.ClustersWith) > 0 {
			if _, ok := clustered[g.Word]; !ok {
				clustered[g.Word] = struct{}{}
				res.Members = append(res.Members, g.Word)
			}
		}
	}
	res.Groups = groups
	res.QueryTime = time.Since(start).Milliseconds()

	e.logger.Debug("query",
		zap.String("kind", "cluster"),
		zap.Int("n", n),
		zap.Int("groups", len(groups)),
		zap.Int("clustered", len(res.Members)),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func memberSet(members []space.ScoredWord) map[string]struct{} {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m.Word] = struct{}{}
	}
	return set
}

package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/wordspace/internal/analogy"
	"github.com/hyperjump/wordspace/internal/config"
	"github.com/hyperjump/wordspace/internal/graph"
	"github.com/hyperjump/wordspace/internal/models"
	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/vector"
)

func royalty() *space.Space {
	e := func(w string, c ...float32) space.Embedding {
		return space.Embedding{Word: w, Vector: vector.New(c)}
	}
	return space.New(3, []space.Embedding{
		e("king", 1, 0, 0),
		e("queen", 0.9, 0.1, 0),
		e("man", 0, 1, 0),
		e("woman", 0, 0.9, 0.1),
	})
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default().Query
	e := NewEngine(&cfg)
	e.Swap(royalty(), "memory")
	return e
}

func words(res []space.ScoredWord) []string {
	out := make([]string, len(res))
	for i, r := range res {
		out[i] = r.Word
	}
	return out
}

func TestEngine_NotLoaded(t *testing.T) {
	e := NewEngine(nil)
	ctx := context.Background()

	_, err := e.Neighbors(ctx, "king", 3)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = e.Get(ctx, "king")
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = e.Cluster(ctx, "king", 3, 1, 0.5)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = e.Graph(ctx, graph.Options{}, 0)
	assert.ErrorIs(t, err, ErrNotLoaded)

	assert.Zero(t, e.Size())
	assert.Zero(t, e.Dimension())
	assert.True(t, e.GetEmbedding(ctx, "king").IsZero())
	assert.ErrorIs(t, e.Reload(ctx), ErrNoReloader)
}

func TestEngine_Lookup(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	emb, err := e.Get(ctx, "kings")
	require.NoError(t, err)
	assert.Equal(t, "king", emb.Word)

	_, err = e.GetExact(ctx, "kings")
	assert.ErrorIs(t, err, space.ErrNotFound)

	d, err := e.Distance(ctx, "king", "man")
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 0.001)

	assert.Equal(t, 4, e.Size())
	assert.Equal(t, 3, e.Dimension())
}

func TestEngine_Neighbors(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Neighbors(context.Background(), "king", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"king", "queen"}, words(res))

	res, err = e.NeighborsOfVector(context.Background(), []float32{0, 1, 0.1}, 1)
	require.NoError(t, err)
	assert.Equal(t, "woman", res[0].Word)

	var dimErr *DimensionError
	_, err = e.NeighborsOfVector(context.Background(), []float32{1}, 1)
	assert.ErrorAs(t, err, &dimErr)
}

func TestEngine_ClampN(t *testing.T) {
	e := NewEngine(&config.QueryConfig{DefaultN: 3, MaxN: 10})
	assert.Equal(t, 3, e.ClampN(0))
	assert.Equal(t, 10, e.ClampN(50))
	assert.Equal(t, 7, e.ClampN(7))
}

func TestEngine_Within(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Within(context.Background(), "king", 0.1)
	require.NoError(t, err)
	assert.Equal(t, []string{"queen"}, words(res))
}

func TestEngine_LikeUnlike(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	like, err := e.Like(ctx, "king", "man", 4, 1)
	require.NoError(t, err)
	require.Len(t, like, 4)
	// the query words are not excluded and woman is the only word off the
	// plane spanned by the other three
	assert.Equal(t, "woman", like[3].Word, "like order %v", words(like))

	pair, err := e.LikePair(ctx, "king", "man", 4, true, 1)
	require.NoError(t, err)
	unlike, err := e.Unlike(ctx, "king", "man", 4, 1)
	require.NoError(t, err)
	assert.Equal(t, words(pair), words(unlike))

	_, err = e.Like(ctx, "king", "zzz", 4, 1)
	assert.ErrorIs(t, err, space.ErrNotFound)
}

func TestEngine_LikeSameWordIsNeighbors(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	like, err := e.Like(ctx, "queen", "queen", 4, 1)
	require.NoError(t, err)
	nb, err := e.Neighbors(ctx, "queen", 4)
	require.NoError(t, err)
	assert.Equal(t, words(nb), words(like))
}

func TestEngine_Query(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Query(ctx, `unlike(like(king, man, 0.5), queen)`, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"man"}, words(res))

	// a single word answers as its neighbours
	res, err = e.Query(ctx, `queen`, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"queen", "king"}, words(res))

	_, err = e.Query(ctx, `like(`, 2, 1)
	assert.ErrorIs(t, err, analogy.ErrSyntax)
}

func TestEngine_Search(t *testing.T) {
	e := newTestEngine(t)
	half := float32(0.5)
	resp, err := e.Search(context.Background(), &models.QueryRequest{
		Tree: &models.TreeNode{
			Op:    "unlike",
			Left:  &models.TreeNode{Op: "like", Left: &models.TreeNode{Word: "king"}, Right: &models.TreeNode{Word: "man"}, Factor: &half},
			Right: &models.TreeNode{Word: "queen"},
		},
		N: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"man", "woman", "queen", "king"}, words(resp.Results))
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, `unlike(like("king", "man", 0.5), "queen")`, resp.Query)

	_, err = e.Search(context.Background(), &models.QueryRequest{})
	assert.Error(t, err)
}

func TestEngine_Cluster(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Cluster(ctx, "kings", 2, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "king", res.Target)
	assert.Equal(t, 2, res.N)
	require.Len(t, res.Groups, 2)

	target, queen := res.Groups[0], res.Groups[1]
	assert.Equal(t, "king", target.Word)
	assert.Equal(t, []string{"king", "queen"}, words(target.Members))
	assert.Equal(t, "queen", queen.Word)

	like, err := e.Like(ctx, "king", "queen", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, words(like), words(queen.Members))

	shared := 0
	for _, w := range words(target.Members) {
		for _, m := range words(like) {
			if w == m {
				shared++
			}
		}
	}
	require.Len(t, target.Shared, 1)
	assert.Equal(t, models.SharedCount{Word: "queen", Count: shared}, target.Shared[0])

	// nothing can share more than all of its members
	assert.Empty(t, target.ClustersWith)
	assert.Equal(t, []string{"queen"}, target.Apart)
	assert.Empty(t, res.Members)
}

func TestEngine_ClusterCutoff(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Cluster(ctx, "king", 4, 1, 0)
	require.NoError(t, err)
	require.Len(t, res.Groups, 4)

	// every group of a four word space holds all four words
	for _, g := range res.Groups {
		assert.Len(t, g.ClustersWith, 3, g.Word)
		assert.Empty(t, g.Apart, g.Word)
		for _, sc := range g.Shared {
			assert.Equal(t, 4, sc.Count)
		}
	}
	assert.Equal(t, []string{"king", "queen", "man", "woman"}, res.Members)
}

func TestEngine_ClusterErrors(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Cluster(context.Background(), "zzz", 2, 1, 0.5)
	assert.ErrorIs(t, err, space.ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Cluster(ctx, "king", 2, 1, 0.5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Graph(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	opts := GraphOptions(&models.GraphRequest{DistanceLimit: 0.1, MinNeighbours: 1})

	g, err := e.Graph(ctx, opts, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Vocabulary)
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Edges, 2)

	opts.Ego = "queens"
	ball, err := e.Graph(ctx, opts, 1)
	require.NoError(t, err)
	assert.Equal(t, "queen", ball.Ego)
	require.Len(t, ball.Nodes, 2)
	assert.Equal(t, "king", ball.Nodes[0].Label)
	assert.Equal(t, "queen", ball.Nodes[1].Label)

	ego, err := e.Graph(ctx, opts, 0)
	require.NoError(t, err)
	assert.Equal(t, "queen", ego.Ego)
	assert.Equal(t, "queen", ego.Nodes[0].Label)

	opts.Ego = "zzz"
	_, err = e.Graph(ctx, opts, 1)
	assert.ErrorIs(t, err, space.ErrNotFound)
}

func TestGraphOptionsDefaults(t *testing.T) {
	opts := GraphOptions(&models.GraphRequest{Ego: "king", Words: 5})
	assert.Equal(t, "king", opts.Ego)
	assert.Equal(t, 5, opts.Words)
	assert.Equal(t, graph.DefaultOptions().DistanceLimit, opts.DistanceLimit)
	assert.Equal(t, graph.DefaultOptions().MaxNeighbours, opts.MaxNeighbours)
}

func TestEngine_ReloadSwaps(t *testing.T) {
	calls := 0
	reload := func(ctx context.Context) (*space.Space, string, error) {
		calls++
		if calls == 2 {
			return nil, "", errors.New("disk on fire")
		}
		return space.New(2, []space.Embedding{
			{Word: "left", Vector: vector.New([]float32{1, 0})},
			{Word: "right", Vector: vector.New([]float32{0, 1})},
		}), "reloaded", nil
	}
	cfg := config.Default().Query
	e := NewEngine(&cfg, WithReloader(reload))
	e.Swap(royalty(), "memory")

	require.NoError(t, e.Reload(context.Background()))
	cur, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, "reloaded", cur.Source)
	assert.Equal(t, 2, e.Size())

	assert.Error(t, e.Reload(context.Background()))
	cur, _ = e.Current()
	assert.Equal(t, "reloaded", cur.Source, "failed reload must keep the previous space")
}

func TestEngine_ConcurrentQueriesDuringSwap(t *testing.T) {
	cfg := config.Default().Query
	cfg.Workers = 4
	e := NewEngine(&cfg)
	e.Swap(royalty(), "memory")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := e.Neighbors(context.Background(), "king", 2); err != nil {
					assert.NoError(t, err)
					return
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		e.Swap(royalty(), fmt.Sprintf("swap-%d", i))
	}
	wg.Wait()
}

func TestEngine_OnSwap(t *testing.T) {
	var seen []string
	cfg := config.Default().Query
	e := NewEngine(&cfg,
		WithOnSwap(func(l *Loaded) { seen = append(seen, l.Source) }),
		WithReloader(func(context.Context) (*space.Space, string, error) {
			return royalty(), "reloaded", nil
		}))

	e.Swap(royalty(), "memory")
	require.NoError(t, e.Reload(context.Background()))
	assert.Equal(t, []string{"memory", "reloaded"}, seen)
}

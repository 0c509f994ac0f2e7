package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/wordspace/internal/loader"
	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/vector"
)

// a and b point the same way, as do c and d; e is opposite a.
func pairs() *space.Space {
	e := func(w string, c ...float32) space.Embedding {
		return space.Embedding{Word: w, Vector: vector.New(c)}
	}
	return space.New(2, []space.Embedding{
		e("a", 1, 0),
		e("b", 0.99, 0.14),
		e("c", 0, 1),
		e("d", 0.1, 0.99),
		e("e", -1, 0),
	})
}

func hasEdge(g *Graph, a, b int) bool {
	for _, e := range g.Edges {
		if (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a) {
			return true
		}
	}
	return false
}

func labels(g *Graph) []string {
	out := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.Label
	}
	return out
}

func TestBuild(t *testing.T) {
	g, err := Build(context.Background(), pairs(), Options{Words: 10, MinNeighbours: 1})
	require.NoError(t, err)

	assert.Equal(t, 5, g.Vocabulary)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, labels(g))
	require.Len(t, g.Edges, 3)
	assert.True(t, hasEdge(g, 0, 1))
	assert.True(t, hasEdge(g, 2, 3))
	// e has nothing within the limit so it joins its nearest word
	assert.True(t, hasEdge(g, 4, 2))

	assert.InDelta(t, (1-0.0099-0.4)*2.5, g.Edges[0].Weight, 0.01)
	assert.Zero(t, g.Edges[2].Weight)

	assert.Equal(t, 1, g.Nodes[0].FreqRank)
	assert.Greater(t, g.Nodes[0].Size, g.Nodes[4].Size)
}

func TestBuildWordCap(t *testing.T) {
	g, err := Build(context.Background(), pairs(), Options{Words: 2, MinNeighbours: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, labels(g))
	assert.Len(t, g.Edges, 1)
}

func TestBuildSkipsDuplicateSeeds(t *testing.T) {
	s := space.New(2, []space.Embedding{
		{Word: "a", Vector: vector.New([]float32{1, 0})},
		{Word: "a", Vector: vector.New([]float32{0, 1})},
		{Word: "b", Vector: vector.New([]float32{0.9, 0.1})},
	})
	g, err := Build(context.Background(), s, Options{MinNeighbours: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, labels(g))
}

func TestBuildEgo(t *testing.T) {
	g, err := Build(context.Background(), pairs(), Options{Ego: "c", DistanceLimit: 1.05, MinNeighbours: 1})
	require.NoError(t, err)

	assert.Equal(t, "c", g.Ego)
	assert.Equal(t, []string{"c", "d", "b", "a", "e"}, labels(g))
	for _, other := range []int{0, 1, 3, 4} {
		assert.True(t, hasEdge(g, 2, other), "ego arc to %d", other)
	}
	// neighbours are joined when close enough to each other
	assert.True(t, hasEdge(g, 0, 1))
	assert.True(t, hasEdge(g, 3, 1))
	assert.False(t, hasEdge(g, 0, 4))
	assert.Len(t, g.Edges, 7)
}

func TestBuildEgoUnknown(t *testing.T) {
	_, err := Build(context.Background(), pairs(), Options{Ego: "zzzzzz"})
	assert.ErrorIs(t, err, space.ErrNotFound)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, pairs(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEgo(t *testing.T) {
	g, err := Build(context.Background(), pairs(), Options{Words: 10, MinNeighbours: 1})
	require.NoError(t, err)

	sub, err := g.Ego("c", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "e"}, labels(sub))
	assert.Len(t, sub.Edges, 2)
	assert.Equal(t, "c", sub.Ego)

	sub, err = g.Ego("e", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "e"}, labels(sub))

	sub, err = g.Ego("a", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, labels(sub))
	assert.Empty(t, sub.Edges)

	_, err = g.Ego("nope", 1)
	assert.ErrorIs(t, err, space.ErrNotFound)
}

func TestEncodeGEXF(t *testing.T) {
	g, err := Build(context.Background(), pairs(), Options{Words: 10, MinNeighbours: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g, FormatGEXF))
	out := buf.String()
	assert.Contains(t, out, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, out, `<gexf xmlns="http://www.gexf.net/1.3"`)
	assert.Contains(t, out, `version="1.3"`)
	assert.Contains(t, out, `defaultedgetype="undirected"`)
	assert.Contains(t, out, `<attribute id="freqrank" title="Frequency rank" type="integer">`)
	assert.Contains(t, out, `<node id="0" label="a">`)
	assert.Contains(t, out, `<attvalue for="freqrank" value="1">`)
	assert.Contains(t, out, `<viz:size value=`)
	assert.Contains(t, out, `source="0" target="1"`)
}

func TestEncodeJSON(t *testing.T) {
	g, err := Build(context.Background(), pairs(), Options{Words: 10, MinNeighbours: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g, FormatJSON))
	var got Graph
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *g, got)

	assert.Error(t, Encode(&buf, g, Format("dot")))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatGEXF, DetectFormat("out.gexf"))
	assert.Equal(t, FormatGEXF, DetectFormat("out.gexf.zst"))
	assert.Equal(t, FormatJSON, DetectFormat("out.JSON"))
	assert.Equal(t, FormatJSON, DetectFormat("out.json.gz"))
	assert.Equal(t, FormatGEXF, DetectFormat("out"))

	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("dot")
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	g, err := Build(context.Background(), pairs(), Options{Words: 10, MinNeighbours: 1})
	require.NoError(t, err)
	dir := t.TempDir()

	plain := filepath.Join(dir, "words.json")
	require.NoError(t, WriteFile(plain, g, FormatAuto))
	raw, err := os.ReadFile(plain)
	require.NoError(t, err)
	var got Graph
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Len(t, got.Nodes, 5)

	packed := filepath.Join(dir, "words.gexf.gz")
	require.NoError(t, WriteFile(packed, g, FormatAuto))
	f, err := os.Open(packed)
	require.NoError(t, err)
	rc, err := loader.Decompress(f, loader.CompressionGzip)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(body), `<node id="4" label="e">`)
}

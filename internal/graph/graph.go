// Package graph builds neighbourhood graphs over an embedding space: every
// word is joined to the words within a distance limit of it. Graphs are
// written as GEXF for graph tools or as JSON.
package graph

import (
	"context"
	"fmt"
	"math"

	"github.com/hyperjump/wordspace/internal/space"
)

// Node is a word in the graph. ID is the word's position in the space, so
// FreqRank is ID+1 for frequency-sorted vector files.
type Node struct {
	ID       int     `json:"id"`
	Label    string  `json:"label"`
	FreqRank int     `json:"freq_rank"`
	Size     float64 `json:"size"`
}

// Edge is an undirected arc between two node IDs.
type Edge struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Weight float64 `json:"weight"`
}

// Graph is a set of words and the arcs between them.
type Graph struct {
	Ego        string `json:"ego,omitempty"`
	Vocabulary int    `json:"vocabulary"`
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`
}

// Options control which words and arcs a graph holds.
type Options struct {
	// Words caps the number of nodes. Without Ego the first Words entries of
	// the space seed the graph.
	Words int
	// DistanceLimit joins words closer than this.
	DistanceLimit float32
	// MinNeighbours is the least number of arcs a seed gets; when too few
	// words are within the limit its nearest words are used instead.
	MinNeighbours int
	// MaxNeighbours caps the arcs added from one seed.
	MaxNeighbours int
	// WeightScaling turns closeness into arc weight.
	WeightScaling float64
	// Ego builds the network around this word only, adding arcs between
	// its neighbours.
	Ego string
}

// DefaultOptions returns the options used for zero fields.
func DefaultOptions() Options {
	return Options{
		Words:         1000,
		DistanceLimit: 0.4,
		MinNeighbours: 2,
		MaxNeighbours: 60,
		WeightScaling: 2.5,
	}
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Words <= 0 {
		o.Words = d.Words
	}
	if o.DistanceLimit <= 0 {
		o.DistanceLimit = d.DistanceLimit
	}
	if o.MinNeighbours <= 0 {
		o.MinNeighbours = d.MinNeighbours
	}
	if o.MaxNeighbours <= 0 {
		o.MaxNeighbours = d.MaxNeighbours
	}
	if o.WeightScaling <= 0 {
		o.WeightScaling = d.WeightScaling
	}
	return o
}

type edgeKey struct{ a, b int }

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type builder struct {
	s     *space.Space
	opts  Options
	g     *Graph
	nodes map[int]struct{}
	edges map[edgeKey]struct{}
}

// Build constructs the neighbourhood graph of s. Each seed is joined to the
// words within DistanceLimit of it, closest first, until MaxNeighbours arcs
// were considered or the graph holds Words nodes.
func Build(ctx context.Context, s *space.Space, opts Options) (*Graph, error) {
	opts = opts.WithDefaults()
	b := &builder{
		s:     s,
		opts:  opts,
		g:     &Graph{Vocabulary: s.Len(), Nodes: []Node{}, Edges: []Edge{}},
		nodes: make(map[int]struct{}),
		edges: make(map[edgeKey]struct{}),
	}

	var seeds []int
	if opts.Ego != "" {
		e, err := s.Get(opts.Ego)
		if err != nil {
			return nil, err
		}
		idx, _ := s.IndexOf(e.Word)
		seeds = []int{idx}
		b.g.Ego = e.Word
	} else {
		for i := 0; i < min(opts.Words, s.Len()); i++ {
			// duplicate words share the node of their first entry
			if idx, _ := s.IndexOf(s.At(i).Word); idx == i {
				seeds = append(seeds, i)
			}
		}
	}

	for _, seed := range seeds {
		if len(b.g.Nodes) >= opts.Words {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.expand(seed); err != nil {
			return nil, err
		}
	}
	if opts.Ego != "" {
		b.connectNeighbours(seeds[0])
	}
	return b.g, nil
}

func (b *builder) expand(seed int) error {
	b.addNode(seed)
	word := b.s.At(seed).Word
	neighbours, err := b.s.WordsAtDistanceUnder(word, b.opts.DistanceLimit)
	if err != nil {
		return err
	}
	if len(neighbours) < b.opts.MinNeighbours+1 {
		nearest, err := b.s.TopNOf(word, b.opts.MinNeighbours+1)
		if err != nil {
			return err
		}
		neighbours = space.Words(nearest)
	}

	added := 0
	for _, nb := range neighbours {
		if len(b.g.Nodes) >= b.opts.Words || added >= b.opts.MaxNeighbours {
			break
		}
		idx, ok := b.s.IndexOf(nb.Word)
		if !ok || idx == seed {
			continue
		}
		if _, seen := b.edges[keyOf(seed, idx)]; seen {
			added++
			continue
		}
		b.addNode(idx)
		b.addEdge(seed, idx, nb.Distance)
		added++
	}
	return nil
}

// connectNeighbours joins the ego's neighbours to each other when they are
// within the distance limit.
func (b *builder) connectNeighbours(ego int) {
	ids := make([]int, 0, len(b.g.Nodes))
	for _, n := range b.g.Nodes {
		if n.ID != ego {
			ids = append(ids, n.ID)
		}
	}
	for i, a := range ids {
		for _, c := range ids[i+1:] {
			if _, seen := b.edges[keyOf(a, c)]; seen {
				continue
			}
			d := b.s.At(a).CosineDistance(b.s.At(c).Vector)
			if d < b.opts.DistanceLimit {
				b.addEdge(a, c, d)
			}
		}
	}
}

func (b *builder) addNode(idx int) {
	if _, ok := b.nodes[idx]; ok {
		return
	}
	b.nodes[idx] = struct{}{}
	rank := idx + 1
	b.g.Nodes = append(b.g.Nodes, Node{
		ID:       idx,
		Label:    b.s.At(idx).Word,
		FreqRank: rank,
		Size:     -math.Log(float64(rank) / float64(10*b.opts.Words)),
	})
}

func (b *builder) addEdge(a, c int, distance float32) {
	b.edges[keyOf(a, c)] = struct{}{}
	b.g.Edges = append(b.g.Edges, Edge{
		Source: a,
		Target: c,
		Weight: b.weight(distance),
	})
}

func (b *builder) weight(distance float32) float64 {
	return math.Max(0, 1-float64(distance)-float64(b.opts.DistanceLimit)) * b.opts.WeightScaling
}

// Ego returns the subgraph of nodes at most hops arcs away from the node
// labelled label, with every arc between them.
func (g *Graph) Ego(label string, hops int) (*Graph, error) {
	root := -1
	for _, n := range g.Nodes {
		if n.Label == label {
			root = n.ID
			break
		}
	}
	if root < 0 {
		return nil, fmt.Errorf("%w: %q is not in the graph", space.ErrNotFound, label)
	}

	adjacent := make(map[int][]int)
	for _, e := range g.Edges {
		adjacent[e.Source] = append(adjacent[e.Source], e.Target)
		adjacent[e.Target] = append(adjacent[e.Target], e.Source)
	}
	keep := map[int]struct{}{root: {}}
	frontier := []int{root}
	for hop := 0; hop < hops && len(frontier) > 0; hop++ {
		var next []int
		for _, id := range frontier {
			for _, other := range adjacent[id] {
				if _, ok := keep[other]; !ok {
					keep[other] = struct{}{}
					next = append(next, other)
				}
			}
		}
		frontier = next
	}

	out := &Graph{Ego: label, Vocabulary: g.Vocabulary, Nodes: []Node{}, Edges: []Edge{}}
	for _, n := range g.Nodes {
		if _, ok := keep[n.ID]; ok {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		_, src := keep[e.Source]
		_, dst := keep[e.Target]
		if src && dst {
			out.Edges = append(out.Edges, e)
		}
	}
	return out, nil
}

package analogy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/wordspace/internal/space"
)

var (
	// ErrLeafRoot is returned when compiling a tree that is a single word.
	// Answer those as plain neighbour queries.
	ErrLeafRoot = errors.New("query tree root is a single word")

	// ErrUnresolved is returned when compiling before Resolve.
	ErrUnresolved = errors.New("query tree has unresolved words")

	// ErrEmptyTree is returned when no root has been set.
	ErrEmptyTree = errors.New("query tree is empty")
)

// NodeID indexes a node in its Tree.
type NodeID int

type node struct {
	leaf bool

	// leaf
	word      string
	embedding space.Embedding
	resolved  bool

	// internal
	left, right NodeID
	negative    bool
	factor      float32
}

// Tree is a binary expression of words combined by like/unlike operators.
// Nodes live in one slice and refer to their children by index.
type Tree struct {
	nodes     []node
	root      NodeID
	dimension int
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{root: -1}
}

// Leaf adds a word.
func (t *Tree) Leaf(word string) NodeID {
	t.nodes = append(t.nodes, node{leaf: true, word: word})
	return NodeID(len(t.nodes) - 1)
}

// Node adds an operator over two existing nodes. negative selects unlike.
func (t *Tree) Node(left, right NodeID, negative bool, factor float32) NodeID {
	t.nodes = append(t.nodes, node{left: left, right: right, negative: negative, factor: factor})
	return NodeID(len(t.nodes) - 1)
}

// Like adds like(left, right).
func (t *Tree) Like(left, right NodeID, factor float32) NodeID {
	return t.Node(left, right, false, factor)
}

// Unlike adds unlike(left, right).
func (t *Tree) Unlike(left, right NodeID, factor float32) NodeID {
	return t.Node(left, right, true, factor)
}

// SetRoot marks id as the expression to evaluate.
func (t *Tree) SetRoot(id NodeID) { t.root = id }

// Root returns the root node and false if none is set.
func (t *Tree) Root() (NodeID, bool) {
	return t.root, t.root >= 0 && int(t.root) < len(t.nodes)
}

// IsLeaf reports whether id is a word.
func (t *Tree) IsLeaf(id NodeID) bool { return t.nodes[id].leaf }

// Word returns the word of a leaf as written in the query.
func (t *Tree) Word(id NodeID) string { return t.nodes[id].word }

// leaves returns the leaves reachable from the root in left-to-right order.
// Nodes added but never attached to the root are not included.
func (t *Tree) leaves() []NodeID {
	root, ok := t.Root()
	if !ok {
		return nil
	}
	var out []NodeID
	var walk func(NodeID)
	walk = func(id NodeID) {
		n := t.nodes[id]
		if n.leaf {
			out = append(out, id)
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(root)
	return out
}

// Words returns every leaf word in left-to-right order.
func (t *Tree) Words() []string {
	ids := t.leaves()
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = t.nodes[id].word
	}
	return out
}

// Resolve looks up every leaf of the expression in s with fuzzy matching.
func (t *Tree) Resolve(s *space.Space) error {
	for _, id := range t.leaves() {
		n := &t.nodes[id]
		e, err := s.Get(n.word)
		if err != nil {
			return err
		}
		n.embedding = e
		n.resolved = true
	}
	t.dimension = s.Dimension()
	return nil
}

// Resolved returns the entry a leaf resolved to.
func (t *Tree) Resolved(id NodeID) (space.Embedding, bool) {
	n := t.nodes[id]
	return n.embedding, n.leaf && n.resolved
}

// Compile turns the resolved tree into a chain of hyperplanes.
//
// An operator over two words is one hyperplane. An operator whose right side
// is a word appends a hyperplane from the left chain's comparison point to
// that word. An operator whose right side is itself an operator concatenates
// both chains and its own negative flag and factor are not used.
func (t *Tree) Compile() (Chain, error) {
	root, ok := t.Root()
	if !ok {
		return Chain{}, ErrEmptyTree
	}
	if t.nodes[root].leaf {
		return Chain{}, ErrLeafRoot
	}
	for _, id := range t.leaves() {
		if n := t.nodes[id]; !n.resolved {
			return Chain{}, fmt.Errorf("%w: %q", ErrUnresolved, n.word)
		}
	}
	return t.compile(root), nil
}

func (t *Tree) compile(id NodeID) Chain {
	n := t.nodes[id]
	if n.leaf {
		// a word on its own contributes no projection
		return NewChain(t.dimension)
	}
	left, right := t.nodes[n.left], t.nodes[n.right]

	switch {
	case left.leaf && right.leaf:
		return NewChain(t.dimension,
			NewHyperplane(left.embedding.Vector, right.embedding.Vector, n.negative, n.factor))
	case right.leaf:
		c := t.compile(n.left)
		return c.Append(NewHyperplane(c.ComparisonPoint(), right.embedding.Vector, n.negative, n.factor))
	default:
		// this node's negative and factor are not applied
		return t.compile(n.left).Concat(t.compile(n.right))
	}
}

// String renders the tree in the syntax accepted by Parse.
func (t *Tree) String() string {
	root, ok := t.Root()
	if !ok {
		return ""
	}
	var b strings.Builder
	t.format(&b, root)
	return b.String()
}

func (t *Tree) format(b *strings.Builder, id NodeID) {
	n := t.nodes[id]
	if n.leaf {
		fmt.Fprintf(b, "%q", n.word)
		return
	}
	if n.negative {
		b.WriteString("unlike(")
	} else {
		b.WriteString("like(")
	}
	t.format(b, n.left)
	b.WriteString(", ")
	t.format(b, n.right)
	if n.factor != DefaultFactor {
		fmt.Fprintf(b, ", %g", n.factor)
	}
	b.WriteString(")")
}

package models

import (
	"fmt"
	"strings"

	"github.com/hyperjump/wordspace/internal/analogy"
)

// TreeNode is the JSON form of a query tree. A leaf sets Word; an operator
// sets Op ("like" or "unlike") with both Left and Right.
//
//	{"op": "unlike",
//	 "left": {"op": "like", "left": {"word": "mouse"}, "right": {"word": "keyboard"}},
//	 "right": {"word": "screen"}}
type TreeNode struct {
	Word   string    `json:"word,omitempty"`
	Op     string    `json:"op,omitempty"`
	Left   *TreeNode `json:"left,omitempty"`
	Right  *TreeNode `json:"right,omitempty"`
	Factor *float32  `json:"factor,omitempty"`
}

// Build converts the JSON tree into a query tree. Operators without a factor
// use defaultFactor.
func (n *TreeNode) Build(defaultFactor float32) (*analogy.Tree, error) {
	t := analogy.NewTree()
	root, err := n.add(t, defaultFactor, "tree")
	if err != nil {
		return nil, err
	}
	t.SetRoot(root)
	return t, nil
}

func (n *TreeNode) add(t *analogy.Tree, defaultFactor float32, path string) (analogy.NodeID, error) {
	if n == nil {
		return 0, fmt.Errorf("%s: missing node", path)
	}
	word := strings.TrimSpace(n.Word)
	if word != "" {
		if n.Op != "" || n.Left != nil || n.Right != nil {
			return 0, fmt.Errorf("%s: a word node cannot have an operator or children", path)
		}
		return t.Leaf(word), nil
	}

	var negative bool
	switch n.Op {
	case "like":
	case "unlike":
		negative = true
	case "":
		return 0, fmt.Errorf("%s: node needs a word or an op", path)
	default:
		return 0, fmt.Errorf("%s: unknown op %q", path, n.Op)
	}

	left, err := n.Left.add(t, defaultFactor, path+".left")
	if err != nil {
		return 0, err
	}
	right, err := n.Right.add(t, defaultFactor, path+".right")
	if err != nil {
		return 0, err
	}
	factor := defaultFactor
	if n.Factor != nil {
		factor = *n.Factor
	}
	return t.Node(left, right, negative, factor), nil
}

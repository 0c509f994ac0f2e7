package analogy

import (
	"slices"

	"github.com/hyperjump/wordspace/internal/vector"
)

// Chain applies hyperplanes in order.
type Chain struct {
	dimension int
	steps     []Hyperplane
}

// NewChain creates a chain over vectors of the given dimension.
func NewChain(dimension int, steps ...Hyperplane) Chain {
	return Chain{dimension: dimension, steps: slices.Clone(steps)}
}

// Len returns the number of hyperplanes.
func (c Chain) Len() int { return len(c.steps) }

// Steps returns a copy of the hyperplanes in application order.
func (c Chain) Steps() []Hyperplane { return slices.Clone(c.steps) }

// Append returns a chain with h added at the end.
func (c Chain) Append(h Hyperplane) Chain {
	return Chain{dimension: c.dimension, steps: append(slices.Clone(c.steps), h)}
}

// Concat returns c followed by other.
func (c Chain) Concat(other Chain) Chain {
	return Chain{dimension: c.dimension, steps: slices.Concat(c.steps, other.steps)}
}

// Apply runs v through every hyperplane. An empty chain is the identity.
func (c Chain) Apply(v vector.Vector) vector.Vector {
	for _, h := range c.steps {
		v = h.Apply(v)
	}
	return v
}

// ComparisonPoint is the first hyperplane's comparison point carried through
// the remaining ones. An empty chain compares against the origin.
func (c Chain) ComparisonPoint() vector.Vector {
	if len(c.steps) == 0 {
		return vector.Zero(c.dimension)
	}
	p := c.steps[0].ComparisonPoint()
	for _, h := range c.steps[1:] {
		p = h.Apply(p)
	}
	return p
}

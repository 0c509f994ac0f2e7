// Package analogy builds the like/unlike transforms used to answer analogy
// queries and compiles expression trees of words into chains of them.
//
// A like(A, B) query defines the hyperplane that bisects A and B and moves
// every vector toward it, cancelling the part of the space that tells A and B
// apart. Words are then ranked against the midpoint. unlike(A, B) pushes the
// comparison point away from A instead, favouring words like B but not A.
package analogy

import (
	"github.com/hyperjump/wordspace/internal/vector"
)

// DefaultFactor lands vectors exactly on the hyperplane.
const DefaultFactor float32 = 1.0

// Hyperplane is one like/unlike projection. It is immutable and safe for
// concurrent use.
type Hyperplane struct {
	axis        vector.Vector
	axisSqNorm  float32
	translation float32
	comparison  vector.Vector
	negative    bool
	factor      float32
}

// NewHyperplane derives the projection separating first and second. factor
// blends between leaving vectors unchanged (0) and landing them on the plane
// (1); larger values overshoot.
//
// When first and second coincide there is no axis to project along and the
// hyperplane acts as the identity, comparing against that shared point.
func NewHyperplane(first, second vector.Vector, negative bool, factor float32) Hyperplane {
	axis := first.Sub(second)
	sq := axis.SumOfSquares()
	h := Hyperplane{
		axis:        axis,
		axisSqNorm:  sq,
		translation: axis.Dot(first) - 0.5*sq,
		negative:    negative,
		factor:      factor,
	}

	switch {
	case sq == 0:
		if negative {
			h.comparison = first
		} else {
			h.comparison = second
		}
	case negative:
		h.comparison = first.Sub(axis.Scale(h.scaler(first)))
	default:
		h.comparison = second.Add(axis.Scale(0.5))
	}
	return h
}

func (h Hyperplane) scaler(v vector.Vector) float32 {
	return h.factor * (h.translation - v.Dot(h.axis)) / h.axisSqNorm
}

// Apply moves v toward the hyperplane, or away from it for a negative
// projection.
func (h Hyperplane) Apply(v vector.Vector) vector.Vector {
	if h.axisSqNorm == 0 {
		return v
	}
	step := h.axis.Scale(h.scaler(v))
	if h.negative {
		return v.Sub(step)
	}
	return v.Add(step)
}

// ComparisonPoint is the point results are ranked against.
func (h Hyperplane) ComparisonPoint() vector.Vector { return h.comparison }

// Axis returns first - second.
func (h Hyperplane) Axis() vector.Vector { return h.axis }

// Translation is d in the plane equation dot(axis, x) = d.
func (h Hyperplane) Translation() float32 { return h.translation }

// Negative reports whether this is an unlike projection.
func (h Hyperplane) Negative() bool { return h.negative }

// Factor returns the projection factor.
func (h Hyperplane) Factor() float32 { return h.factor }

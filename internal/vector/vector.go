package vector

import "slices"

// Vector is an immutable point in the embedding space. The L2 norm is computed
// once at construction and reused by every distance computation, so the
// components are never exposed for in-place mutation.
type Vector struct {
	components []float32
	norm       float32
}

// New copies components into a Vector and caches its norm.
func New(components []float32) Vector {
	return wrap(slices.Clone(components))
}

// Zero returns the origin of a space with the given dimension.
func Zero(dimension int) Vector {
	return Vector{components: make([]float32, dimension)}
}

// wrap takes ownership of c; only used for freshly allocated slices.
func wrap(c []float32) Vector {
	return Vector{components: c, norm: Norm(c)}
}

// Len returns the number of components.
func (v Vector) Len() int { return len(v.components) }

// Norm returns the cached L2 norm.
func (v Vector) Norm() float32 { return v.norm }

// At returns component i.
func (v Vector) At(i int) float32 { return v.components[i] }

// Components returns a copy of the components.
func (v Vector) Components() []float32 { return slices.Clone(v.components) }

// IsZero reports whether every component is zero.
func (v Vector) IsZero() bool { return v.norm == 0 }

// Add returns v + w.
func (v Vector) Add(w Vector) Vector { return wrap(Add(v.components, w.components)) }

// Sub returns v - w.
func (v Vector) Sub(w Vector) Vector { return wrap(Sub(v.components, w.components)) }

// Scale returns k * v.
func (v Vector) Scale(k float32) Vector { return wrap(Scale(k, v.components)) }

// Dot returns the inner product of v and w.
func (v Vector) Dot(w Vector) float32 { return Dot(v.components, w.components) }

// SumOfSquares returns the squared norm of v.
func (v Vector) SumOfSquares() float32 { return SumOfSquares(v.components) }

// Equal reports whether v and w have identical components.
func (v Vector) Equal(w Vector) bool { return slices.Equal(v.components, w.components) }

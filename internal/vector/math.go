// Package vector provides the numeric primitives of the embedding space:
// element-wise arithmetic, dot products, norms and cosine distance over
// fixed-length float32 slices.
package vector

import (
	"fmt"
	"math"
)

// DimensionMismatchError reports a binary operation on operands of unequal
// length. It is raised with panic: callers are expected to only combine
// vectors from the same space.
type DimensionMismatchError struct {
	Op    string
	Left  int
	Right int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector %s: dimension mismatch (%d vs %d)", e.Op, e.Left, e.Right)
}

func mustMatch(op string, a, b []float32) {
	if len(a) != len(b) {
		panic(&DimensionMismatchError{Op: op, Left: len(a), Right: len(b)})
	}
}

// Add returns a + b.
func Add(a, b []float32) []float32 {
	mustMatch("add", a, b)
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// Sub returns a - b.
func Sub(a, b []float32) []float32 {
	mustMatch("sub", a, b)
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// Scale returns k * v.
func Scale(k float32, v []float32) []float32 {
	out := make([]float32, len(v))
	for i := range v {
		out[i] = k * v[i]
	}
	return out
}

// PointwiseMultiply returns the Hadamard product of a and b.
func PointwiseMultiply(a, b []float32) []float32 {
	mustMatch("pointwise multiply", a, b)
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

// Dot returns the inner product of a and b, accumulated in float64.
func Dot(a, b []float32) float32 {
	mustMatch("dot", a, b)
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// SumOfSquares returns the squared L2 norm of v.
func SumOfSquares(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(sum)
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(SumOfSquares(v))))
}

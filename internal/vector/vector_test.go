package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmetic(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}

	assert.Equal(t, []float32{5, 7, 9}, Add(a, b))
	assert.Equal(t, []float32{-3, -3, -3}, Sub(a, b))
	assert.Equal(t, []float32{2, 4, 6}, Scale(2, a))
	assert.Equal(t, []float32{4, 10, 18}, PointwiseMultiply(a, b))
	assert.InDelta(t, 32, Dot(a, b), 1e-6)
	assert.InDelta(t, 14, SumOfSquares(a), 1e-6)
	assert.InDelta(t, math.Sqrt(14), Norm(a), 1e-6)

	// operands are never modified
	assert.Equal(t, []float32{1, 2, 3}, a)
}

func TestDimensionMismatchPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"Add", func() { Add([]float32{1}, []float32{1, 2}) }},
		{"Sub", func() { Sub([]float32{1}, []float32{1, 2}) }},
		{"Dot", func() { Dot([]float32{1, 2, 3}, []float32{1, 2}) }},
		{"PointwiseMultiply", func() { PointwiseMultiply([]float32{}, []float32{1}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r)
				err, ok := r.(*DimensionMismatchError)
				require.True(t, ok, "panic value %T", r)
				assert.Contains(t, err.Error(), "dimension mismatch")
			}()
			tt.fn()
		})
	}
}

func TestVectorCachesNorm(t *testing.T) {
	src := []float32{3, 4}
	v := New(src)
	assert.InDelta(t, 5, v.Norm(), 1e-6)

	// New copies; mutating the source does not affect the cached state
	src[0] = 100
	assert.InDelta(t, 3, v.At(0), 1e-6)
	assert.InDelta(t, 5, v.Norm(), 1e-6)

	c := v.Components()
	c[1] = 100
	assert.InDelta(t, 4, v.At(1), 1e-6)

	w := v.Scale(2)
	assert.InDelta(t, 10, w.Norm(), 1e-6)
	assert.InDelta(t, 5, v.Norm(), 1e-6)
}

func TestZero(t *testing.T) {
	z := Zero(4)
	assert.Equal(t, 4, z.Len())
	assert.True(t, z.IsZero())
	assert.Equal(t, float32(0), z.Norm())
}

func TestCosineDistance(t *testing.T) {
	vecs := []Vector{
		New([]float32{1, 0, 0}),
		New([]float32{0.9, 0.1, 0}),
		New([]float32{0, 1, 0}),
		New([]float32{0, 0.9, 0.1}),
		New([]float32{0.1234567, 0.7654321, 0.3333333}),
	}

	t.Run("self distance is zero", func(t *testing.T) {
		for _, v := range vecs {
			assert.InDelta(t, 0, CosineDistance(v, v), 1e-6)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		for _, a := range vecs {
			for _, b := range vecs {
				assert.Equal(t, CosineDistance(a, b), CosineDistance(b, a))
			}
		}
	})

	t.Run("within unit interval for non-negative components", func(t *testing.T) {
		for _, a := range vecs {
			for _, b := range vecs {
				d := CosineDistance(a, b)
				assert.GreaterOrEqual(t, d, float32(0))
				assert.LessOrEqual(t, d, float32(1))
			}
		}
	})

	t.Run("clamped at zero", func(t *testing.T) {
		// scaled copies differ only by rounding
		for _, v := range vecs {
			for _, k := range []float32{0.1, 3, 1e-3, 7.77} {
				assert.GreaterOrEqual(t, CosineDistance(v, v.Scale(k)), float32(0))
			}
		}
	})

	t.Run("orthogonal", func(t *testing.T) {
		assert.InDelta(t, 1, CosineDistance(vecs[0], vecs[2]), 1e-6)
	})

	t.Run("zero vector", func(t *testing.T) {
		assert.Equal(t, float32(1), CosineDistance(Zero(3), vecs[0]))
		assert.Equal(t, float32(0), CosineSimilarity(Zero(3), vecs[0]))
	})
}

func TestBytesRoundTrip(t *testing.T) {
	v := New([]float32{1.5, -2.25, 0, 3.4028235e38})
	b := v.Bytes()
	require.Len(t, b, 4*ComponentSize)
	assert.Equal(t, []byte{0, 0, 0xc0, 0x3f}, b[:4])

	w := FromBytes(append(b, 0xff))
	assert.True(t, v.Equal(w))
	assert.Equal(t, v.Norm(), w.Norm())
}

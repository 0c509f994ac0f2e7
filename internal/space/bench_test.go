package space

import (
	"context"
	"testing"

	"github.com/hyperjump/wordspace/internal/vector"
)

func BenchmarkTopN(b *testing.B) {
	s := randomSpace(b, 20000, 300, 1)
	query := s.At(42).Vector
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.TopN(query, 10)
	}
}

func BenchmarkParallelTopN(b *testing.B) {
	s := randomSpace(b, 20000, 300, 1)
	query := s.At(42).Vector
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.ParallelTopN(ctx, query, 10, nil, 4)
	}
}

func BenchmarkTopNTransformed(b *testing.B) {
	s := randomSpace(b, 20000, 300, 1)
	query := s.At(42).Vector
	negate := func(v vector.Vector) vector.Vector { return v.Scale(-1) }
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.TopNTransformed(query, 10, negate)
	}
}

func BenchmarkGetFuzzy(b *testing.B) {
	s := randomSpace(b, 20000, 8, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get("w123x")
	}
}

func BenchmarkGetFuzzyCached(b *testing.B) {
	s := randomSpace(b, 20000, 8, 1)
	WithResolveCache(1024)(s)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get("w123x")
	}
}

package vector

// CosineDistance returns 1 - cos(u, v) using the cached norms of both
// operands. Nearly identical vectors can produce a slightly negative value
// through rounding, so the result is clamped at 0. A zero vector has no
// direction; its distance to anything is 1.
func CosineDistance(u, v Vector) float32 {
	denom := u.norm * v.norm
	if denom == 0 {
		return 1
	}
	d := 1 - u.Dot(v)/denom
	if d < 0 {
		return 0
	}
	return d
}

// CosineSimilarity returns cos(u, v), or 0 when either vector is zero.
func CosineSimilarity(u, v Vector) float32 {
	return 1 - CosineDistance(u, v)
}

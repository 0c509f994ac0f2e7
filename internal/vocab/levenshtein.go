package vocab

// LevenshteinDistance is the minimum number of single-rune insertions,
// deletions or substitutions turning a into b.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// two rows of the edit matrix
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// withinDistance reports whether a and b are at most limit edits apart,
// skipping the full computation when their lengths alone rule it out.
func withinDistance(a, b string, limit int) (int, bool) {
	diff := len([]rune(a)) - len([]rune(b))
	if diff < 0 {
		diff = -diff
	}
	if diff > limit {
		return 0, false
	}
	d := LevenshteinDistance(a, b)
	return d, d <= limit
}

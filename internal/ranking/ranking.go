// Package ranking keeps ordered candidate lists by ascending distance.
//
// Both list kinds are plain sorted slices with insertion, so the cost of a
// full scan stays O(V·n) and equal distances keep their arrival order: a
// candidate that ties with an element already present is placed behind it.
package ranking

// Scored is a value paired with its distance to a comparison point.
type Scored[T any] struct {
	Value    T
	Distance float32
}

// Bounded holds at most Cap candidates, best (smallest distance) first.
type Bounded[T any] struct {
	cap   int
	items []Scored[T]
}

// NewBounded creates an empty list that keeps the n best candidates.
// A list with n <= 0 never accepts anything.
func NewBounded[T any](n int) *Bounded[T] {
	if n < 0 {
		n = 0
	}
	return &Bounded[T]{cap: n, items: make([]Scored[T], 0, n+1)}
}

// Cap returns the capacity.
func (b *Bounded[T]) Cap() int { return b.cap }

// Len returns the number of candidates currently held.
func (b *Bounded[T]) Len() int { return len(b.items) }

// Worst returns the largest distance held and false when the list is empty.
func (b *Bounded[T]) Worst() (float32, bool) {
	if len(b.items) == 0 {
		return 0, false
	}
	return b.items[len(b.items)-1].Distance, true
}

// Accepts reports whether a candidate at distance d would enter the list.
func (b *Bounded[T]) Accepts(d float32) bool {
	if b.cap == 0 {
		return false
	}
	if len(b.items) < b.cap {
		return true
	}
	return d < b.items[len(b.items)-1].Distance
}

// Insert places the candidate by scanning from the back of the list toward
// the front. It moves ahead only while its distance is strictly less than the
// element before it; if that leaves it at position Cap it is dropped.
func (b *Bounded[T]) Insert(value T, distance float32) bool {
	i := len(b.items)
	for i > 0 && distance < b.items[i-1].Distance {
		i--
	}
	if i >= b.cap {
		return false
	}
	b.items = append(b.items, Scored[T]{})
	copy(b.items[i+1:], b.items[i:])
	b.items[i] = Scored[T]{Value: value, Distance: distance}
	if len(b.items) > b.cap {
		b.items = b.items[:b.cap]
	}
	return true
}

// Items returns the ranked candidates. The slice is owned by the list.
func (b *Bounded[T]) Items() []Scored[T] { return b.items }

// Threshold is an unbounded list sorted by ascending distance.
type Threshold[T any] struct {
	items []Scored[T]
}

// NewThreshold creates an empty threshold list.
func NewThreshold[T any]() *Threshold[T] {
	return &Threshold[T]{}
}

// Insert scans from the front and places the candidate before the first
// element with a strictly greater distance.
func (l *Threshold[T]) Insert(value T, distance float32) {
	i := 0
	for i < len(l.items) && l.items[i].Distance <= distance {
		i++
	}
	l.items = append(l.items, Scored[T]{})
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = Scored[T]{Value: value, Distance: distance}
}

// Len returns the number of candidates.
func (l *Threshold[T]) Len() int { return len(l.items) }

// Items returns the ranked candidates. The slice is owned by the list.
func (l *Threshold[T]) Items() []Scored[T] { return l.items }

// Merge combines per-partition results into one list of at most n. Lists must
// be given in partition order; they are concatenated and re-inserted with the
// Bounded rule, so ties resolve exactly as a single sequential scan would.
func Merge[T any](n int, lists ...[]Scored[T]) []Scored[T] {
	merged := NewBounded[T](n)
	for _, list := range lists {
		for _, s := range list {
			if !merged.Accepts(s.Distance) {
				// each list is sorted, nothing later in it can enter
				break
			}
			merged.Insert(s.Value, s.Distance)
		}
	}
	return merged.Items()
}

package space

import (
	"container/list"
	"sync"
)

const defaultResolveCacheSize = 4096

// ResolveCache is an LRU of fuzzy resolutions keyed by query word. The value
// is the store position of the resolved entry, or -1 for a word that did not
// resolve at all.
type ResolveCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type resolveEntry struct {
	key   string
	index int
}

// NewResolveCache creates a cache holding up to capacity words.
func NewResolveCache(capacity int) *ResolveCache {
	return &ResolveCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached position for word if present.
func (c *ResolveCache) Get(word string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[word]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*resolveEntry).index, true
	}
	return 0, false
}

// Set stores the position for word, evicting the least recently used entry
// when at capacity.
func (c *ResolveCache) Set(word string, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[word]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*resolveEntry).index = index
		return
	}

	elem := c.lru.PushFront(&resolveEntry{key: word, index: index})
	c.cache[word] = elem

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*resolveEntry).key)
		}
	}
}

// Len returns the number of cached words.
func (c *ResolveCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

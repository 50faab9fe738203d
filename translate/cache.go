package translate

import "sync"

// Cache maps candidate texts to their translations. A missing key means
// the candidate is untranslated; empty translations are never stored.
// It is safe for concurrent use.
type Cache struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{m: make(map[string]string)}
}

// Get returns the translation of candidate.
func (c *Cache) Get(candidate string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.m[candidate]
	return t, ok
}

// Put records a translation. Empty translations are ignored and reported
// as not stored.
func (c *Cache) Put(candidate, translation string) bool {
	if translation == "" {
		return false
	}
	c.mu.Lock()
	c.m[candidate] = translation
	c.mu.Unlock()
	return true
}

// Len returns the number of translated candidates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Snapshot returns a copy of the cache contents.
func (c *Cache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.m))
	for k, v := range c.m {
		out[k] = v
	}
	return out
}

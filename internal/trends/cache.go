package trends

import "sync"

// Cache stores looked-up series keyed by keyword and timeframe so a keyword
// shared by several patents in one run costs a single service call. No
// eviction: a run touches at most a few hundred keywords.
type Cache interface {
	Get(keyword, timeframe string) (Series, bool)
	Put(keyword, timeframe string, series Series)
}

func cacheKey(keyword, timeframe string) string {
	return keyword + "|" + timeframe
}

type MemoryCache struct {
	mu sync.Mutex
	m  map[string]Series
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: map[string]Series{}}
}

func (c *MemoryCache) Get(keyword, timeframe string) (Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.m[cacheKey(keyword, timeframe)]
	return s, ok
}

func (c *MemoryCache) Put(keyword, timeframe string, series Series) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[cacheKey(keyword, timeframe)] = series
}

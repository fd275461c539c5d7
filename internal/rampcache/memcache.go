package rampcache

import "sync"

// MemCache is the default in-process cache, a sync.Map keyed by the
// stringified Key. Always available, no configuration required.
type MemCache struct {
	m sync.Map // string -> []float64
}

// NewMemCache creates an empty in-process ramp cache.
func NewMemCache() *MemCache {
	return &MemCache{}
}

func (c *MemCache) Get(k Key) ([]float64, bool) {
	v, ok := c.m.Load(k.string())
	if !ok {
		return nil, false
	}
	stored := v.([]float64)
	cp := make([]float64, len(stored))
	copy(cp, stored)
	return cp, true
}

func (c *MemCache) Put(k Key, intervals []float64) {
	cp := make([]float64, len(intervals))
	copy(cp, intervals)
	c.m.Store(k.string(), cp)
}

func (c *MemCache) Close() error { return nil }

package inject

import (
	"sync"
)

// singletonCache provides thread-safe, build-at-most-once caching for
// singleton instances. Each key has its own entry lock so building one
// singleton never blocks on an unrelated one.
type singletonCache struct {
	mu      sync.Mutex
	entries map[Key]*singletonEntry
}

type singletonEntry struct {
	mu    sync.Mutex
	done  bool
	value any
}

// newSingletonCache creates a new singleton cache
func newSingletonCache() *singletonCache {
	return &singletonCache{
		entries: make(map[Key]*singletonEntry),
	}
}

// entry returns the entry for key, creating it if needed
func (c *singletonCache) entry(key Key) *singletonEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &singletonEntry{}
		c.entries[key] = e
	}
	return e
}

// get retrieves an instance from the cache
func (c *singletonCache) get(key Key) (any, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, e.done
}

// getOrCreate returns the cached instance for key, calling build under the
// key's lock if there is none. Failed builds are not cached. created reports
// whether this call stored the instance.
func (c *singletonCache) getOrCreate(key Key, build func() (any, error)) (value any, created bool, err error) {
	e := c.entry(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done {
		return e.value, false, nil
	}

	value, err = build()
	if err != nil {
		return nil, false, err
	}

	e.value = value
	e.done = true
	return value, true, nil
}

// len returns the number of built instances
func (c *singletonCache) len() int {
	c.mu.Lock()
	entries := make([]*singletonEntry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.done {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

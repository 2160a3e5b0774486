// Package singleflight coalesces concurrent fetches of the same query key.
package singleflight

import (
	"sync"
	"time"
)

// Group manages in-flight calls so that concurrent fetches for the same
// query execute the underlying function once.
type Group struct {
	mu sync.Mutex
	m  map[string]*call
}

type call struct {
	wg  sync.WaitGroup
	val any
	err error
}

// New creates an empty Group.
func New() *Group {
	return &Group{
		m: make(map[string]*call),
	}
}

// Do executes fn, making sure only one execution is in flight for key at a
// time. Duplicate callers wait for the original and receive its results.
func (g *Group) Do(key string, fn func() (any, error)) (any, error) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err
	}

	c := &call{}
	c.wg.Add(1)
	g.m[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()
	c.wg.Done()

	// Keep the entry briefly so immediate duplicates still coalesce, then
	// drop it to avoid unbounded growth across a page session.
	go func() {
		time.Sleep(100 * time.Millisecond)
		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
	}()

	return c.val, c.err
}

// Forget removes key so the next Do executes fresh, regardless of any call
// still in flight. Used after failed fetches so retries are not served a
// stale error.
func (g *Group) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}

package tirta

import (
	"encoding/json"
	"hash/fnv"
	"sync"
)

// Cache is a sharded, normalized in-memory cache keyed by operation or
// entity identity. Values are stored as raw JSON so a full Extract never
// re-marshals. Safe for concurrent use.
type Cache struct {
	shards    []*cacheShard
	numShards int
}

type cacheShard struct {
	mu    sync.RWMutex
	store map[string]json.RawMessage
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	numShards := 16
	shards := make([]*cacheShard, numShards)
	for i := range shards {
		shards[i] = &cacheShard{
			store: make(map[string]json.RawMessage),
		}
	}
	return &Cache{
		shards:    shards,
		numShards: numShards,
	}
}

func (c *Cache) getShard(key string) *cacheShard {
	hash := fnv.New32a()
	hash.Write([]byte(key))
	return c.shards[hash.Sum32()%uint32(c.numShards)]
}

// Put stores a raw JSON value under key, replacing any previous value.
func (c *Cache) Put(key string, value json.RawMessage) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	cp := make(json.RawMessage, len(value))
	copy(cp, value)
	shard.store[key] = cp
}

// Lookup returns the value stored under key, if any.
func (c *Cache) Lookup(key string) (json.RawMessage, bool) {
	shard := c.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	value, exists := shard.store[key]
	return value, exists
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.store, key)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.store = make(map[string]json.RawMessage)
		shard.mu.Unlock()
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	n := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		n += len(shard.store)
		shard.mu.RUnlock()
	}
	return n
}

// Extract copies the cache contents into a Snapshot for serialization.
func (c *Cache) Extract() Snapshot {
	out := Snapshot{}
	for _, shard := range c.shards {
		shard.mu.RLock()
		for k, v := range shard.store {
			cp := make(json.RawMessage, len(v))
			copy(cp, v)
			out[k] = cp
		}
		shard.mu.RUnlock()
	}
	return out
}

// Restore seeds the cache from a snapshot. Existing entries with the same
// keys are overwritten; others are left alone.
func (c *Cache) Restore(s Snapshot) {
	for k, v := range s {
		c.Put(k, v)
	}
}

package mcts

import "container/list"

// NodeCache buckets Nodes by Zobrist hash, with an LRU eviction policy enforcing a memory
// cap and a SetBoard pruning pass that drops entries incompatible with a new root, per spec
// §4.5 "NodeCache".
type NodeCache struct {
	capacity int
	entries  map[uint64]*list.Element // hash -> LRU element
	order    *list.List               // front = most recently used
}

type cacheEntry struct {
	hash uint64
	node *Node
}

// NewNodeCache returns a cache holding at most capacity nodes (capacity <= 0 means
// unbounded).
func NewNodeCache(capacity int) *NodeCache {
	return &NodeCache{
		capacity: capacity,
		entries:  make(map[uint64]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached node for hash, if present, promoting it to most-recently-used.
func (c *NodeCache) Get(hash uint64) (*Node, bool) {
	el, ok := c.entries[hash]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).node, true
}

// Put inserts or refreshes the cache entry for node.Hash, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *NodeCache) Put(node *Node) {
	if el, ok := c.entries[node.Hash]; ok {
		el.Value.(*cacheEntry).node = node
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{hash: node.Hash, node: node})
	c.entries[node.Hash] = el
	if c.capacity > 0 {
		for c.order.Len() > c.capacity {
			c.evictOldest()
		}
	}
}

func (c *NodeCache) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	c.order.Remove(back)
	delete(c.entries, back.Value.(*cacheEntry).hash)
}

// Len returns the number of entries currently cached.
func (c *NodeCache) Len() int { return c.order.Len() }

// PruneIncompatible drops every cached entry whose depth is lower than newRootDepth, or
// whose node can no longer be reached from the new root (approximated here by depth, since
// the cache does not retain full board snapshots) -- per spec §4.5 "on setBoard the cache
// prunes entries incompatible with the new root".
func (c *NodeCache) PruneIncompatible(newRootDepth int) {
	var next *list.Element
	for el := c.order.Front(); el != nil; el = next {
		next = el.Next()
		entry := el.Value.(*cacheEntry)
		if entry.node.Depth < newRootDepth {
			c.order.Remove(el)
			delete(c.entries, entry.hash)
		}
	}
}

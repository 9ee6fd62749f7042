package spritestore

import "container/list"

// lruCache is an insertion-ordered cache of rendered sprite previews.
// On insertion, if the size bound would be exceeded, the oldest entry
// is evicted first. Not safe for concurrent use on its own — callers
// hold Store.mu.
type lruCache struct {
	maxSize int
	order   *list.List
	entries map[uint32]*list.Element
}

type cacheEntry struct {
	id      uint32
	preview []byte
}

func newLRUCache(maxSize int) *lruCache {
	return &lruCache{
		maxSize: maxSize,
		order:   list.New(),
		entries: map[uint32]*list.Element{},
	}
}

func (c *lruCache) get(id uint32) ([]byte, bool) {
	el, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*cacheEntry).preview, true
}

func (c *lruCache) put(id uint32, preview []byte) {
	if el, ok := c.entries[id]; ok {
		c.order.Remove(el)
		delete(c.entries, id)
	}
	el := c.order.PushBack(&cacheEntry{id: id, preview: preview})
	c.entries[id] = el
	c.evictUntilWithinBound()
}

func (c *lruCache) invalidate(id uint32) {
	if el, ok := c.entries[id]; ok {
		c.order.Remove(el)
		delete(c.entries, id)
	}
}

func (c *lruCache) clear() {
	c.order.Init()
	c.entries = map[uint32]*list.Element{}
}

func (c *lruCache) setMaxSize(n int) {
	c.maxSize = n
	c.evictUntilWithinBound()
}

func (c *lruCache) evictUntilWithinBound() {
	for c.maxSize >= 0 && c.order.Len() > c.maxSize {
		front := c.order.Front()
		if front == nil {
			return
		}
		entry := front.Value.(*cacheEntry)
		c.order.Remove(front)
		delete(c.entries, entry.id)
	}
}

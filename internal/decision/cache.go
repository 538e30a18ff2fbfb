package decision

import (
	"container/list"
	"hash/fnv"
	"strconv"
	"sync"
	"time"
)

// Fingerprint derives a stable cache key from the request identity triple.
// FNV-1a over NUL-separated fields, rendered as hex.
func Fingerprint(subject, action, resource string) string {
	h := fnv.New64a()
	h.Write([]byte(subject))
	h.Write([]byte{0})
	h.Write([]byte(action))
	h.Write([]byte{0})
	h.Write([]byte(resource))
	return strconv.FormatUint(h.Sum64(), 16)
}

// Cache is a bounded LRU with per-entry TTL for decisions. REVIEW verdicts
// are never stored: a pending human judgement must not short-circuit later
// identical requests.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*cacheEntry
	lru     *list.List // front = most recently used

	now func() time.Time
}

type cacheEntry struct {
	key       string
	decision  Decision
	element   *list.Element
	expiresAt time.Time
}

// NewCache creates a cache holding at most maxSize decisions for ttl each.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*cacheEntry),
		lru:     list.New(),
		now:     time.Now,
	}
}

// Get returns the cached decision for key, expiring it lazily.
func (c *Cache) Get(key string) (Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return Decision{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.remove(entry)
		return Decision{}, false
	}
	c.lru.MoveToFront(entry.element)
	return entry.decision, true
}

// Set stores a decision under key. REVIEW decisions are dropped silently.
func (c *Cache) Set(key string, d Decision) {
	if d.Verdict == VerdictReview {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.items[key]; ok {
		entry.decision = d
		entry.expiresAt = c.now().Add(c.ttl)
		c.lru.MoveToFront(entry.element)
		return
	}

	entry := &cacheEntry{
		key:       key,
		decision:  d,
		expiresAt: c.now().Add(c.ttl),
	}
	entry.element = c.lru.PushFront(entry)
	c.items[key] = entry

	if len(c.items) > c.maxSize {
		c.evict()
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Purge removes every expired entry. Intended for a periodic sweep; Get
// already expires lazily.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var expired []*cacheEntry
	for _, entry := range c.items {
		if now.After(entry.expiresAt) {
			expired = append(expired, entry)
		}
	}
	for _, entry := range expired {
		c.remove(entry)
	}
}

func (c *Cache) evict() {
	oldest := c.lru.Back()
	if oldest == nil {
		return
	}
	c.remove(oldest.Value.(*cacheEntry))
}

func (c *Cache) remove(entry *cacheEntry) {
	delete(c.items, entry.key)
	c.lru.Remove(entry.element)
}

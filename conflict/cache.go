package conflict

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long cached predictions stay valid.
const DefaultTTL = 5 * time.Minute

// maxKeyLen is the composed-key length above which keys are digested.
const maxKeyLen = 200

// Cache stores predictions keyed by target branch, file, and the commit
// set that produced them. Entries expire after the TTL; Invalidate drops
// everything when repository state changes. Safe for concurrent use.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	prediction Prediction
	expires    time.Time
}

// NewCache creates a cache with the given TTL; zero uses DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached prediction for the key if present and unexpired.
func (c *Cache) Get(key string) (Prediction, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expires) {
		return Prediction{}, false
	}
	return entry.prediction, true
}

// Put stores a prediction under the key.
func (c *Cache) Put(key string, pred Prediction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		prediction: pred,
		expires:    c.now().Add(c.ttl),
	}
}

// Invalidate drops all entries.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheKey composes the cache key from the target branch, file path, and
// the sorted short prefixes of the touching commits. Keys beyond 200
// characters are replaced by their sha256 digest so pathological paths or
// large commit sets stay bounded.
func CacheKey(target, file string, hashes []string) string {
	prefixes := make([]string, len(hashes))
	for i, h := range hashes {
		if len(h) > 8 {
			h = h[:8]
		}
		prefixes[i] = h
	}
	sort.Strings(prefixes)

	key := target + "|" + file + "|" + strings.Join(prefixes, ",")
	if len(key) > maxKeyLen {
		digest := sha256.Sum256([]byte(key))
		return hex.EncodeToString(digest[:])
	}
	return key
}

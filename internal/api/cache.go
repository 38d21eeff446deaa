package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

const defaultCacheEntries = 128

// cachedResponse is a stored GET body plus its validators. Entries are never
// mutated after being added.
type cachedResponse struct {
	body         []byte
	etag         string
	lastModified string
	storedAt     time.Time
}

// responseCache is a bounded LRU shared by all requests on a Transport.
// groupcache's lru is not safe for concurrent use, so every access holds mu.
type responseCache struct {
	mu      sync.Mutex
	entries *lru.Cache
}

func newResponseCache(maxEntries int) *responseCache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	return &responseCache{entries: lru.New(maxEntries)}
}

func (c *responseCache) get(key string) (*cachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*cachedResponse), true
}

func (c *responseCache) put(key string, entry *cachedResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, entry)
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// cacheKey identifies a request for caching: method, URL, and the headers
// that change the representation returned.
func cacheKey(method, url string, header http.Header) string {
	return strings.Join([]string{
		method,
		url,
		header.Get("Accept"),
		header.Get("Authorization"),
	}, "\n")
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/use-agent/sitecheck/models"
)

// maxTTL bounds how long any report is kept, whatever max_age asks for.
const maxTTL = time.Hour

// Cache keeps finished validation responses for reuse by later requests
// with a max_age. It is safe for concurrent use.
type Cache struct {
	store      *gocache.Cache
	maxEntries int
}

// New creates a Cache holding at most maxEntries responses. Expired
// entries are purged every cleanupInterval.
func New(maxEntries int, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store:      gocache.New(maxTTL, cleanupInterval),
		maxEntries: maxEntries,
	}
}

// Key identifies a validation: the URL, the profile name, the fetch mode
// and the selected regions (order-insensitive).
func Key(url, profile, fetchMode string, regions []string) string {
	sorted := slices.Clone(regions)
	slices.Sort(sorted)

	h := sha256.New()
	for _, part := range []string{url, profile, fetchMode, strings.Join(sorted, ",")} {
		h.Write([]byte(part))
		h.Write([]byte("|"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	response  *models.ValidateResponse
	createdAt time.Time
}

// Get returns a cached response younger than maxAge. maxAge <= 0 never
// hits.
func (c *Cache) Get(key string, maxAge time.Duration) (*models.ValidateResponse, bool) {
	if maxAge <= 0 {
		return nil, false
	}
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if time.Since(e.createdAt) > maxAge {
		return nil, false
	}
	return e.response, true
}

// Set stores a response. At capacity, an arbitrary entry is evicted first.
func (c *Cache) Set(key string, resp *models.ValidateResponse) {
	if c.maxEntries > 0 && c.store.ItemCount() >= c.maxEntries {
		for k := range c.store.Items() {
			c.store.Delete(k)
			break
		}
	}
	c.store.SetDefault(key, entry{response: resp, createdAt: time.Now()})
}

// Len returns the number of cached responses.
func (c *Cache) Len() int { return c.store.ItemCount() }

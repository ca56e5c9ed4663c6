package engine

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DomainMemory remembers which engine last produced a page for each host,
// so repeated checks of the same site skip engines that are known to fail
// there. Entries expire after the configured TTL.
type DomainMemory struct {
	cache *gocache.Cache
}

// NewDomainMemory creates a DomainMemory whose entries live for ttl.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	return &DomainMemory{cache: gocache.New(ttl, ttl)}
}

// Get returns the remembered engine name for a domain, or "".
func (dm *DomainMemory) Get(domain string) string {
	if dm == nil {
		return ""
	}
	if v, ok := dm.cache.Get(domain); ok {
		return v.(string)
	}
	return ""
}

// Set records engineName as the winner for domain.
func (dm *DomainMemory) Set(domain, engineName string) {
	if dm == nil {
		return
	}
	dm.cache.SetDefault(domain, engineName)
}

// Delete forgets domain.
func (dm *DomainMemory) Delete(domain string) {
	if dm == nil {
		return
	}
	dm.cache.Delete(domain)
}

// Len returns the number of remembered domains, expired ones included until
// the next cleanup.
func (dm *DomainMemory) Len() int {
	if dm == nil {
		return 0
	}
	return dm.cache.ItemCount()
}

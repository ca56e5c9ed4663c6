package capture

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
)

// Retirement thresholds for a pooled tab.
const (
	maxErrScore = 3.0
	maxUses     = 50
	maxPageAge  = 50 * time.Minute
)

// pageHealth scores one tab. A success lowers the error score by 0.5
// (never below 0), a failure raises it by 1.
type pageHealth struct {
	errScore float64
	uses     int
	created  time.Time
}

func (h *pageHealth) record(ok bool) {
	h.uses++
	if ok {
		h.errScore = max(0, h.errScore-0.5)
	} else {
		h.errScore++
	}
}

func (h *pageHealth) retire() bool {
	return h.errScore >= maxErrScore || h.uses >= maxUses || time.Since(h.created) >= maxPageAge
}

// pagePool is a rod.Pool that retires tabs which keep failing, are worn
// out by reuse, or have lived too long. A retired tab is closed and its
// slot handed back empty so the next Get creates a fresh one.
type pagePool struct {
	pool    rod.Pool[rod.Page]
	mu      sync.Mutex
	health  map[*rod.Page]*pageHealth
	retired atomic.Int64
}

func newPagePool(size int) *pagePool {
	return &pagePool{
		pool:   rod.NewPagePool(size),
		health: make(map[*rod.Page]*pageHealth),
	}
}

// Get borrows a tab, creating one when the slot is empty.
func (p *pagePool) Get(create func() (*rod.Page, error)) (*rod.Page, error) {
	page, err := p.pool.Get(func() (*rod.Page, error) {
		pg, err := create()
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.health[pg] = &pageHealth{created: time.Now()}
		p.mu.Unlock()
		return pg, nil
	})
	if err != nil {
		// The slot stays usable.
		p.pool.Put(nil)
		return nil, err
	}
	return page, nil
}

// Put returns a tab with the outcome of its last use.
func (p *pagePool) Put(page *rod.Page, ok bool) {
	p.mu.Lock()
	h, tracked := p.health[page]
	if !tracked {
		h = &pageHealth{created: time.Now()}
		p.health[page] = h
	}
	h.record(ok)
	retire := h.retire()
	if retire {
		delete(p.health, page)
	}
	p.mu.Unlock()

	if !retire {
		p.pool.Put(page)
		return
	}
	slog.Debug("retiring page", "errScore", h.errScore, "uses", h.uses)
	p.retired.Add(1)
	if err := page.Close(); err != nil {
		slog.Debug("closing retired page failed", "error", err)
	}
	p.pool.Put(nil)
}

// Retired counts tabs closed for health reasons.
func (p *pagePool) Retired() int { return int(p.retired.Load()) }

// Cleanup closes every idle tab.
func (p *pagePool) Cleanup() {
	p.pool.Cleanup(func(page *rod.Page) {
		_ = page.Close()
	})
	p.mu.Lock()
	clear(p.health)
	p.mu.Unlock()
}

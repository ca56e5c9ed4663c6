package engine

import (
	"context"
	"time"

	"github.com/use-agent/sitecheck/dom"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod").
	Name() string

	// Fetch retrieves the page for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to obtain a page.
type FetchRequest struct {
	URL      string
	Headers  map[string]string
	Timeout  time.Duration
	ProxyURL string
	Stealth  bool
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	Lang       string
	StatusCode int
	FinalURL   string
	EngineName string

	// Viewport is the window the page was rendered in. Zero for engines
	// that never render.
	Viewport dom.Size

	// Pending carries per-region await failures recorded during capture.
	Pending map[string]error
}

// Snapshot parses the fetched markup into a validation session.
func (r *FetchResult) Snapshot() (*dom.Snapshot, error) {
	return dom.Parse(r.HTML, dom.Meta{
		URL:      r.FinalURL,
		Title:    r.Title,
		Viewport: r.Viewport,
		Pending:  r.Pending,
	})
}

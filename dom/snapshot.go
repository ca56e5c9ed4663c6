// Package dom is the read-only DOM session the validators query.
//
// A Snapshot is one serialized page plus its metadata (URL, title, viewport).
// Snapshots produced by a live browser capture carry layout annotations
// (see AttrBox, AttrVisible, AttrStyle); snapshots parsed from plain HTML do
// not, and answer geometry questions with ok=false.
package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Meta describes where a snapshot came from.
type Meta struct {
	// URL is the final URL of the page after redirects.
	URL string

	// Title is the document title as reported by the browser. When empty,
	// the <title> element of the markup is used.
	Title string

	// Viewport is the window size the page was rendered at. Zero when the
	// page was never rendered.
	Viewport Size

	// Pending maps a region name to the error returned while the capture
	// step waited for that region to appear (typically a timeout).
	Pending map[string]error
}

// Snapshot is an immutable, queryable copy of one rendered page.
// It is safe for concurrent readers.
type Snapshot struct {
	doc    *goquery.Document
	source string
	meta   Meta
	order  map[*html.Node]int
	layout bool
}

// Parse builds a Snapshot from serialized markup.
func Parse(source string, meta Meta) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("dom: parse snapshot: %w", err)
	}

	s := &Snapshot{
		doc:    doc,
		source: source,
		meta:   meta,
		order:  make(map[*html.Node]int),
	}

	// Index every node in document order; the index drives ordering of
	// merged query results.
	i := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		s.order[n] = i
		i++
		if n.Type == html.ElementNode && !s.layout {
			for _, a := range n.Attr {
				if a.Key == AttrBox {
					s.layout = true
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	if s.meta.Title == "" {
		s.meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return s, nil
}

// MustParse is Parse for tests and fixtures.
func MustParse(source string, meta Meta) *Snapshot {
	s, err := Parse(source, meta)
	if err != nil {
		panic(err)
	}
	return s
}

// Root returns the document node. Queries run on it cover the whole page.
func (s *Snapshot) Root() *Node {
	return &Node{n: s.doc.Nodes[0], snap: s}
}

// Source returns the serialized markup the snapshot was parsed from.
func (s *Snapshot) Source() string { return s.source }

// URL returns the page URL.
func (s *Snapshot) URL() string { return s.meta.URL }

// Title returns the document title.
func (s *Snapshot) Title() string { return s.meta.Title }

// Viewport returns the size the page was rendered at.
func (s *Snapshot) Viewport() Size { return s.meta.Viewport }

// HasLayout reports whether the snapshot carries layout annotations.
func (s *Snapshot) HasLayout() bool { return s.layout }

// Pending returns the error recorded while waiting for region, or nil.
func (s *Snapshot) Pending(region string) error {
	if s.meta.Pending == nil {
		return nil
	}
	return s.meta.Pending[region]
}

// Query runs sel over the whole document.
func (s *Snapshot) Query(sel Selector) []*Node {
	return s.Root().Find(sel)
}

func (s *Snapshot) wrap(nodes []*html.Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &Node{n: n, snap: s})
	}
	return out
}

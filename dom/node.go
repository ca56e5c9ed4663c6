package dom

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is a read-only view of one element in a Snapshot.
type Node struct {
	n    *html.Node
	snap *Snapshot
}

// Tag returns the lower-cased tag name ("" for the document node).
func (e *Node) Tag() string {
	if e.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(e.n.Data)
}

// Attr returns the value of the named attribute.
func (e *Node) Attr(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or fallback when it is absent.
func (e *Node) AttrOr(name, fallback string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return fallback
}

// Attrs returns a copy of the element's attributes, without layout annotations.
func (e *Node) Attrs() map[string]string {
	out := make(map[string]string, len(e.n.Attr))
	for _, a := range e.n.Attr {
		if isAnnotation(a.Key) {
			continue
		}
		out[a.Key] = a.Val
	}
	return out
}

// breakTags render as their own line or cell, so their text does not run
// into that of their neighbours.
var breakTags = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "br": {},
	"caption": {}, "dd": {}, "div": {}, "dl": {}, "dt": {}, "fieldset": {},
	"figcaption": {}, "figure": {}, "footer": {}, "form": {}, "h1": {},
	"h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {}, "header": {}, "hr": {},
	"li": {}, "main": {}, "nav": {}, "ol": {}, "option": {}, "p": {},
	"pre": {}, "section": {}, "table": {}, "td": {}, "th": {}, "tr": {},
	"ul": {},
}

// Text returns the element's text content with whitespace collapsed.
// Text nodes are joined as rendered: inline markup does not split words,
// block elements and br do. Script, style, template and noscript content
// is excluded.
func (e *Node) Text() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		var brk bool
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "template", "noscript":
				return
			}
			_, brk = breakTags[n.Data]
		}
		if brk {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if brk {
			b.WriteByte(' ')
		}
	}
	walk(e.n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Box returns the element's bounding box. ok is false when the snapshot
// carries no layout for this element.
func (e *Node) Box() (Rect, bool) {
	v, ok := e.Attr(AttrBox)
	if !ok {
		return Rect{}, false
	}
	return parseBox(v)
}

// Visible reports whether the element is displayed. With layout annotations
// the browser's verdict is used; otherwise the element and its ancestors are
// checked for static hiding (hidden attribute, inline display:none or
// visibility:hidden, hidden inputs, non-rendered head content).
func (e *Node) Visible() bool {
	if v, ok := e.Attr(AttrVisible); ok {
		return v == "1"
	}
	for n := e.n; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		switch n.Data {
		case "head", "script", "style", "template", "noscript", "meta", "title", "link":
			return false
		}
		for _, a := range n.Attr {
			switch a.Key {
			case "hidden":
				return false
			case "type":
				if n.Data == "input" && strings.EqualFold(a.Val, "hidden") {
					return false
				}
			case "style":
				decl := parseDeclarations(a.Val)
				if strings.EqualFold(decl["display"], "none") ||
					strings.EqualFold(decl["visibility"], "hidden") {
					return false
				}
			}
		}
	}
	return true
}

// Enabled reports whether the element accepts interaction. Only form
// controls can be disabled; every other element is enabled.
func (e *Node) Enabled() bool {
	switch e.Tag() {
	case "button", "input", "select", "textarea", "option", "optgroup", "fieldset":
		_, disabled := e.Attr("disabled")
		return !disabled
	}
	return true
}

// Style returns a computed style property. Captured snapshots answer from
// the layout annotation; otherwise the inline style attribute is consulted.
// The empty string means unknown.
func (e *Node) Style(prop string) string {
	prop = strings.ToLower(prop)
	if v, ok := e.Attr(AttrStyle); ok {
		if val := parseDeclarations(v)[prop]; val != "" {
			return val
		}
	}
	if v, ok := e.Attr("style"); ok {
		return parseDeclarations(v)[prop]
	}
	return ""
}

// Find returns the descendants of e matching sel, in document order.
func (e *Node) Find(sel Selector) []*Node {
	matched := sel.matchAll(e.n)
	out := make([]*html.Node, 0, len(matched))
	seen := make(map[*html.Node]struct{}, len(matched))
	for _, m := range matched {
		if m == e.n || !isAncestor(e.n, m) {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	e.snap.sortNodes(out)
	return e.snap.wrap(out)
}

// Descendants returns every element below e in document order.
func (e *Node) Descendants() []*Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e.n)
	return e.snap.wrap(out)
}

// Children returns the element children of e.
func (e *Node) Children() []*Node {
	var out []*html.Node
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return e.snap.wrap(out)
}

// OuterHTML renders the element and its subtree.
func (e *Node) OuterHTML() string {
	s, err := goquery.OuterHtml(goquery.NewDocumentFromNode(e.n).Selection)
	if err != nil {
		return ""
	}
	return s
}

// Order is the element's position in document order. Lower comes first.
func (e *Node) Order() int { return e.snap.order[e.n] }

// Same reports whether both views point at the same element.
func (e *Node) Same(o *Node) bool { return o != nil && e.n == o.n }

// SortNodes orders nodes in document order and drops duplicates.
func SortNodes(nodes []*Node) []*Node {
	if len(nodes) == 0 {
		return nodes
	}
	seen := make(map[*html.Node]struct{}, len(nodes))
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.n]; dup {
			continue
		}
		seen[n.n] = struct{}{}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order() < out[j].Order() })
	return out
}

func (s *Snapshot) sortNodes(nodes []*html.Node) {
	sort.SliceStable(nodes, func(i, j int) bool { return s.order[nodes[i]] < s.order[nodes[j]] })
}

func isAncestor(anc, n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == anc {
			return true
		}
	}
	return false
}

func isAnnotation(key string) bool {
	return key == AttrBox || key == AttrVisible || key == AttrStyle
}

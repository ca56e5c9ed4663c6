package locator

import (
	"strings"

	"github.com/use-agent/sitecheck/dom"
)

// Strategy is one way of resolving a role to nodes. Strategies are pure:
// they read the tree under root and return matches in document order.
type Strategy interface {
	Name() string
	Select(root *dom.Node) []*dom.Node
}

// Normalize lower-cases s and collapses whitespace. Every keyword
// comparison goes through it, on both sides.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// containsAny reports whether the normalized haystack contains any of the
// keywords. Keywords are normalized on the fly.
func containsAny(haystack string, keywords []string) bool {
	h := Normalize(haystack)
	for _, kw := range keywords {
		if k := Normalize(kw); k != "" && strings.Contains(h, k) {
			return true
		}
	}
	return false
}

// tagMatches is true when tags is empty or contains the node's tag.
func tagMatches(n *dom.Node, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	tag := n.Tag()
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// filter walks every element under root and keeps the ones pred accepts.
func filter(root *dom.Node, pred func(*dom.Node) bool) []*dom.Node {
	var out []*dom.Node
	for _, n := range root.Descendants() {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}

// Tag matches elements by exact tag name.
type Tag struct {
	Tags []string
}

func (s Tag) Name() string { return "tag:" + strings.Join(s.Tags, ",") }

func (s Tag) Select(root *dom.Node) []*dom.Node {
	return filter(root, func(n *dom.Node) bool { return len(s.Tags) > 0 && tagMatches(n, s.Tags) })
}

// AttrContains matches elements whose named attribute contains any keyword
// after normalization. Tags optionally restricts the element kinds.
type AttrContains struct {
	Tags     []string
	Attrs    []string
	Keywords []string
}

func (s AttrContains) Name() string {
	return "attr-contains:" + strings.Join(s.Tags, ",") + "@" + strings.Join(s.Attrs, ",")
}

func (s AttrContains) Select(root *dom.Node) []*dom.Node {
	return filter(root, func(n *dom.Node) bool {
		if !tagMatches(n, s.Tags) {
			return false
		}
		for _, a := range s.Attrs {
			if v, ok := n.Attr(a); ok && containsAny(v, s.Keywords) {
				return true
			}
		}
		return false
	})
}

// AttrEquals matches elements whose attribute equals Value exactly.
type AttrEquals struct {
	Tags  []string
	Attr  string
	Value string
}

func (s AttrEquals) Name() string {
	return "attr-equals:" + strings.Join(s.Tags, ",") + "@" + s.Attr + "=" + s.Value
}

func (s AttrEquals) Select(root *dom.Node) []*dom.Node {
	return filter(root, func(n *dom.Node) bool {
		if !tagMatches(n, s.Tags) {
			return false
		}
		v, ok := n.Attr(s.Attr)
		return ok && v == s.Value
	})
}

// ClassKeyword matches elements whose class attribute contains a keyword.
// It is substring based, so "header" also hits "site-header__inner".
type ClassKeyword struct {
	Keywords []string
}

func (s ClassKeyword) Name() string { return "class:" + strings.Join(s.Keywords, ",") }

func (s ClassKeyword) Select(root *dom.Node) []*dom.Node {
	return AttrContains{Attrs: []string{"class"}, Keywords: s.Keywords}.Select(root)
}

// TextContains matches elements whose normalized text content contains a
// keyword. Without Tags every ancestor of a match matches too, so callers
// almost always restrict it to a leaf-ish tag like a or button.
type TextContains struct {
	Tags     []string
	Keywords []string
}

func (s TextContains) Name() string { return "text:" + strings.Join(s.Tags, ",") }

func (s TextContains) Select(root *dom.Node) []*dom.Node {
	return filter(root, func(n *dom.Node) bool {
		return tagMatches(n, s.Tags) && containsAny(n.Text(), s.Keywords)
	})
}

// Select runs a raw compiled selector (CSS or XPath).
type Select struct {
	Sel dom.Selector
}

func (s Select) Name() string { return s.Sel.String() }

func (s Select) Select(root *dom.Node) []*dom.Node { return root.Find(s.Sel) }

// Union merges several strategies into one step, the way an XPath union
// does: results are deduplicated and returned in document order.
type Union []Strategy

func (u Union) Name() string {
	names := make([]string, len(u))
	for i, s := range u {
		names[i] = s.Name()
	}
	return "union(" + strings.Join(names, " | ") + ")"
}

func (u Union) Select(root *dom.Node) []*dom.Node {
	var all []*dom.Node
	for _, s := range u {
		all = append(all, s.Select(root)...)
	}
	return dom.SortNodes(all)
}

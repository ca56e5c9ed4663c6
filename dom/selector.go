package dom

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// Selector is a compiled query over a snapshot. Two variants exist: CSS
// (cascadia) and XPath (antchfx/xpath). Both are compiled once, so running a
// Selector never fails.
type Selector interface {
	fmt.Stringer
	matchAll(root *html.Node) []*html.Node
}

type cssSelector struct {
	expr string
	sel  cascadia.Selector
}

// CSS compiles a CSS selector group such as "nav a, header a".
func CSS(expr string) (Selector, error) {
	sel, err := cascadia.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("dom: compile css %q: %w", expr, err)
	}
	return &cssSelector{expr: expr, sel: sel}, nil
}

// MustCSS is like CSS but panics on an invalid expression. Intended for
// package-level selector tables.
func MustCSS(expr string) Selector {
	s, err := CSS(expr)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *cssSelector) String() string { return "css(" + s.expr + ")" }

func (s *cssSelector) matchAll(root *html.Node) []*html.Node {
	return s.sel.MatchAll(root)
}

type xpathSelector struct {
	expr string
	x    *xpath.Expr
}

// XPath compiles an XPath 1.0 expression. Absolute expressions ("//a") are
// evaluated from the document root; results are still restricted to the
// descendants of the node they are run on.
func XPath(expr string) (Selector, error) {
	x, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("dom: compile xpath %q: %w", expr, err)
	}
	return &xpathSelector{expr: expr, x: x}, nil
}

// MustXPath is like XPath but panics on an invalid expression.
func MustXPath(expr string) Selector {
	s, err := XPath(expr)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *xpathSelector) String() string { return "xpath(" + s.expr + ")" }

func (s *xpathSelector) matchAll(root *html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range htmlquery.QuerySelectorAll(root, s.x) {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
	}
	return out
}

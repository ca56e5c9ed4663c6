package region

import (
	"fmt"
	"strings"

	"github.com/use-agent/sitecheck/dom"
	"github.com/use-agent/sitecheck/report"
	"github.com/use-agent/sitecheck/score"
)

// check records outcomes for one region.
type check struct {
	s      Session
	region string
	rep    *report.Report
	n      int
}

func (c *check) record(o report.Outcome) {
	c.n++
	c.rep.Record(o)
}

func (c *check) pass(cat report.Category, format string, args ...any) {
	c.record(report.Pass(c.region, cat, fmt.Sprintf(format, args...)))
}

func (c *check) fail(cat report.Category, format string, args ...any) {
	c.record(report.Fail(c.region, cat, fmt.Sprintf(format, args...)))
}

func (c *check) skip(cat report.Category, format string, args ...any) {
	c.record(report.Skip(c.region, cat, fmt.Sprintf(format, args...)))
}

// skipAll records one skip per category with the same reason.
func (c *check) skipAll(reason string, cats ...report.Category) {
	for _, cat := range cats {
		c.record(report.Skip(c.region, cat, reason))
	}
}

// layout reports whether geometry is known. When it is not, it records a
// skip for cat.
func (c *check) layout(cat report.Category) bool {
	if c.s.HasLayout() {
		return true
	}
	c.skip(cat, "layout unknown (page was not rendered)")
	return false
}

// box returns n's box or records a skip for cat when there is none.
func (c *check) box(n *dom.Node, cat report.Category) (dom.Rect, bool) {
	if !c.layout(cat) {
		return dom.Rect{}, false
	}
	b, ok := n.Box()
	if !ok {
		c.skip(cat, "no box recorded for <%s>", n.Tag())
	}
	return b, ok
}

// mentions scores the page source against one any-of keyword rule.
func (c *check) mentions(name string, keywords []string) score.Card {
	return score.Evaluate([]score.Rule{score.AnyKeyword(name, keywords...)}, score.NewSubject(c.s.Source()), 1)
}

// presence is the disjunctive presence ladder: a structural match wins,
// otherwise keyword evidence in the source still counts as present. It
// returns the first located node (nil when presence rests on keywords or
// failed) and whether the region is present at all.
func (c *check) presence(nodes []*dom.Node, strategy string, what string, fallback []string) (*dom.Node, bool) {
	if len(nodes) > 0 {
		c.record(report.Pass(c.region, report.Presence,
			fmt.Sprintf("%s located (%s)", what, strategy)).With("nodes", float64(len(nodes))))
		return nodes[0], true
	}
	if len(fallback) > 0 {
		if card := c.mentions(c.region, fallback); card.Passed() {
			c.pass(report.Presence, "no %s element, but the page mentions %s", what, quoteList(fallback))
			return nil, true
		}
	}
	if len(fallback) > 0 {
		c.fail(report.Presence, "no %s element and no mention of %s", what, quoteList(fallback))
	} else {
		c.fail(report.Presence, "no %s element", what)
	}
	return nil, false
}

// placeholderHrefs never count as a link target.
var placeholderHrefs = []string{"#", "javascript:void(0)", "javascript:void(0);", "javascript:;"}

// validHref reports whether n has a usable link target.
func validHref(n *dom.Node) bool {
	href, ok := n.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return false
	}
	for _, p := range placeholderHrefs {
		if strings.EqualFold(href, p) {
			return false
		}
	}
	return true
}

// labeled reports whether n has visible text or the named attribute.
func labeled(n *dom.Node, attr string) bool {
	if n.Text() != "" {
		return true
	}
	v, _ := n.Attr(attr)
	return strings.TrimSpace(v) != ""
}

func visibleOnly(nodes []*dom.Node) []*dom.Node {
	var out []*dom.Node
	for _, n := range nodes {
		if n.Visible() {
			out = append(out, n)
		}
	}
	return out
}

func count(nodes []*dom.Node, pred func(*dom.Node) bool) int {
	n := 0
	for _, e := range nodes {
		if pred(e) {
			n++
		}
	}
	return n
}

func quoteList(words []string) string {
	q := make([]string, len(words))
	for i, w := range words {
		q[i] = fmt.Sprintf("%q", w)
	}
	return strings.Join(q, ", ")
}

func px(f float64) string { return fmt.Sprintf("%gpx", f) }

package region

import (
	"github.com/use-agent/sitecheck/dom"
	"github.com/use-agent/sitecheck/locator"
	"github.com/use-agent/sitecheck/report"
	"github.com/use-agent/sitecheck/score"
)

func (v *Validator) locate(role string, root *dom.Node) (locator.Match, error) {
	return v.loc.Locate(role, root)
}

// header: located node near the top, visible, not a ghost; the page names
// the institution; a logo link, if any, is clickable.
func (v *Validator) header(c *check) error {
	t := v.profile.Thresholds

	m, err := v.locate(locator.RoleHeader, c.s.Root())
	if err != nil {
		return err
	}
	node, _ := c.presence(m.Nodes, m.Strategy, "header", v.profile.Institution.FullNames)

	if node != nil {
		if b, ok := c.box(node, report.Position); ok {
			c.record(report.Verdict(b.Y < t.HeaderMaxTop, c.region, report.Position,
				"header top at "+px(b.Y)+", must be above "+px(t.HeaderMaxTop)).With("y", b.Y))
		}

		c.record(report.Verdict(node.Visible(), c.region, report.Visibility, "header must be visible"))

		if b, ok := c.box(node, report.Dimensions); ok {
			big := b.Width > t.HeaderMinWidth && b.Height > t.HeaderMinHeight
			c.record(report.Verdict(big, c.region, report.Dimensions,
				"header is "+px(b.Width)+" x "+px(b.Height)+", must exceed "+px(t.HeaderMinWidth)+" x "+px(t.HeaderMinHeight)).
				With("width", b.Width).With("height", b.Height))
		}
	} else {
		c.skipAll("no header element to measure", report.Position, report.Visibility, report.Dimensions)
	}

	card := c.mentions("institution", v.profile.Institution.Tokens)
	if card.Passed() {
		c.pass(report.Content, "page mentions the institution (%s)", quoteList(v.profile.Institution.Tokens))
	} else {
		c.fail(report.Content, "page never mentions %s", quoteList(v.profile.Institution.Tokens))
	}

	logo, err := v.locate(locator.RoleLogoLink, c.s.Root())
	if err != nil {
		return err
	}
	if logo.Empty() {
		c.skip(report.Functionality, "no logo link")
		return nil
	}
	c.record(report.Verdict(logo.First().Enabled(), c.region, report.Functionality, "logo link must be enabled"))
	return nil
}

// navigation: visible nav links exist, carry a label, are enabled and point
// somewhere.
func (v *Validator) navigation(c *check) error {
	m, err := v.locate(locator.RoleNavLink, c.s.Root())
	if err != nil {
		return err
	}
	links := visibleOnly(m.Nodes)
	if len(links) == 0 {
		c.record(report.Fail(c.region, report.Presence, "no visible navigation links").
			With("links", float64(len(m.Nodes))))
		c.skipAll("no visible navigation links", report.Content, report.Functionality)
		return nil
	}
	c.record(report.Pass(c.region, report.Presence, "visible navigation links found").
		With("links", float64(len(links))))

	n := float64(len(links))
	withText := count(links, func(e *dom.Node) bool { return labeled(e, "aria-label") })
	c.record(report.Verdict(withText >= 1, c.region, report.Content,
		"navigation links need text or an aria-label").With("labeled", float64(withText)).With("links", n))

	need := min(v.profile.Thresholds.NavMinValidLinks, len(links))

	enabled := count(links, (*dom.Node).Enabled)
	c.record(report.Verdict(enabled >= need, c.region, report.Functionality,
		"navigation links must be enabled").With("enabled", float64(enabled)).With("required", float64(need)))

	hrefs := count(links, validHref)
	c.record(report.Verdict(hrefs >= need, c.region, report.Functionality,
		"navigation links must have a real href").With("valid_href", float64(hrefs)).With("required", float64(need)))
	return nil
}

// action: a call-to-action link ("learn more", "mehr erfahren") is shown.
func (v *Validator) action(c *check) error {
	m, err := v.locate(locator.RoleActionButton, c.s.Root())
	if err != nil {
		return err
	}
	node, ok := c.presence(m.Nodes, m.Strategy, "action link", nil)
	if !ok {
		c.skip(report.Visibility, "no action link")
		return nil
	}
	c.record(report.Verdict(node.Visible(), c.region, report.Visibility, "first action link must be visible"))
	return nil
}

// title: the document title is set and names the institution.
func (v *Validator) title(c *check) error {
	title := c.s.Title()
	if title == "" {
		c.fail(report.Presence, "page has no title")
		c.skip(report.Content, "page has no title")
		return nil
	}
	c.pass(report.Presence, "title %q", title)

	kws := append(append([]string(nil), v.profile.Institution.Tokens...), v.profile.Keywords.Title...)
	card := score.Evaluate([]score.Rule{score.AnyKeyword("title", kws...)}, score.NewSubject(title), 1)
	if card.Passed() {
		c.pass(report.Content, "title names the institution")
	} else {
		c.fail(report.Content, "title %q mentions none of %s", title, quoteList(kws))
	}
	return nil
}

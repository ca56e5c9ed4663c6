package region

import (
	"fmt"

	"github.com/use-agent/sitecheck/dom"
	"github.com/use-agent/sitecheck/locator"
	"github.com/use-agent/sitecheck/report"
	"github.com/use-agent/sitecheck/score"
)

var footerDownstream = []report.Category{
	report.Visibility, report.Position, report.Dimensions, report.Content,
	report.Structure, report.Organization, report.Functionality,
	report.Accessibility, report.Responsiveness,
}

// FooterRules is the footer content rule table: institution, copyright
// marker, year, contact and legal notice, one point each.
func (v *Validator) FooterRules() []score.Rule {
	p := v.profile
	return []score.Rule{
		score.AnyKeyword("institution", p.Institution.Tokens...),
		score.Marker("copyright", p.Keywords.Copyright...),
		score.AnyToken("year", p.FooterYears(v.now())...),
		score.AnyKeyword("contact", p.Keywords.Contact...),
		score.AnyKeyword("legal", p.Keywords.Legal...),
	}
}

// footerNode resolves the footer element. A capture-time timeout for the
// footer surfaces here as a presence failure.
func (v *Validator) footerNode(c *check) (*dom.Node, bool, error) {
	if err := c.s.Pending(Footer); err != nil {
		c.fail(report.Presence, "footer never appeared: %v", err)
		return nil, false, nil
	}
	m, err := v.locate(locator.RoleFooter, c.s.Root())
	if err != nil {
		return nil, false, err
	}
	node, ok := c.presence(m.Nodes, m.Strategy, "footer", v.profile.Keywords.FooterFallback)
	return node, ok, nil
}

// footer: the full structural ladder, from presence down to width
// relative to the viewport.
func (v *Validator) footer(c *check) error {
	t := v.profile.Thresholds

	node, present, err := v.footerNode(c)
	if err != nil {
		return err
	}
	switch {
	case !present:
		c.skipAll("footer absent", footerDownstream...)
		return nil
	case node == nil:
		c.skipAll("footer inferred from keywords only, no element to inspect", footerDownstream...)
		return nil
	}

	c.record(report.Verdict(node.Visible(), c.region, report.Visibility, "footer must be visible"))

	vp := c.s.Viewport()
	if b, ok := c.box(node, report.Position); ok {
		if vp.Height <= 0 {
			c.skip(report.Position, "viewport height unknown")
		} else {
			bound := vp.Height * t.FooterMinTopRatio
			c.record(report.Verdict(b.Y > bound, c.region, report.Position,
				fmt.Sprintf("footer top at %s, must be below %s", px(b.Y), px(bound))).With("y", b.Y))
		}
	}

	box, hasBox := c.box(node, report.Dimensions)
	if hasBox {
		big := box.Width > t.FooterMinWidth && box.Height > t.FooterMinHeight
		c.record(report.Verdict(big, c.region, report.Dimensions,
			fmt.Sprintf("footer is %s x %s, must exceed %s x %s", px(box.Width), px(box.Height), px(t.FooterMinWidth), px(t.FooterMinHeight))).
			With("width", box.Width).With("height", box.Height))
	}

	card := score.Evaluate(v.FooterRules(), score.NewSubject(node.Text()), t.FooterMinScore)
	reason := fmt.Sprintf("footer content score %s", card)
	if missing := card.Missing(); len(missing) > 0 && !card.Passed() {
		reason += fmt.Sprintf("; missing %s", quoteList(missing))
	}
	c.record(report.Verdict(card.Passed(), c.region, report.Content, reason).
		With("score", card.Score()).With("threshold", card.Threshold()))

	links, err := v.locate(locator.RoleFooterLink, node)
	if err != nil {
		return err
	}
	c.record(report.Verdict(!links.Empty(), c.region, report.Structure,
		"footer must contain at least one link").With("links", float64(len(links.Nodes))))

	sections, err := v.locate(locator.RoleFooterSection, node)
	if err != nil {
		return err
	}
	c.record(report.Verdict(!sections.Empty(), c.region, report.Organization,
		"footer must be organised in div, section or list blocks").With("sections", float64(len(sections.Nodes))))

	working := count(links.Nodes, func(e *dom.Node) bool {
		return e.Enabled() && validHref(e)
	})
	c.record(report.Verdict(working > 0, c.region, report.Functionality,
		"at least one footer link must be enabled with a real href").With("working", float64(working)))

	switch color := node.Style("color"); {
	case color != "":
		c.pass(report.Accessibility, "footer text color %s", color)
	case !c.s.HasLayout():
		c.skip(report.Accessibility, "computed style unknown (page was not rendered)")
	default:
		c.fail(report.Accessibility, "footer has no text color")
	}

	if hasBox {
		if vp.Width <= 0 {
			c.skip(report.Responsiveness, "viewport width unknown")
		} else {
			need := vp.Width * t.FooterMinWidthRatio
			c.record(report.Verdict(box.Width >= need, c.region, report.Responsiveness,
				fmt.Sprintf("footer is %s wide, must span at least %s (%g%% of the viewport)", px(box.Width), px(need), t.FooterMinWidthRatio*100)).
				With("width", box.Width).With("viewport_width", vp.Width))
		}
	} else if c.s.HasLayout() {
		c.skip(report.Responsiveness, "no box recorded for the footer")
	} else {
		c.skip(report.Responsiveness, "layout unknown (page was not rendered)")
	}
	return nil
}

// footerLinks: the footer carries a real link list, most of it labeled.
func (v *Validator) footerLinks(c *check) error {
	t := v.profile.Thresholds

	if err := c.s.Pending(Footer); err != nil {
		c.fail(report.Presence, "footer never appeared: %v", err)
		c.skipAll("footer absent", report.Structure, report.Content)
		return nil
	}
	f, err := v.locate(locator.RoleFooter, c.s.Root())
	if err != nil {
		return err
	}
	if f.Empty() {
		c.skipAll("footer absent", report.Structure, report.Content)
		return nil
	}

	m, err := v.locate(locator.RoleFooterLink, f.First())
	if err != nil {
		return err
	}
	n := len(m.Nodes)
	c.record(report.Verdict(n > t.FooterMinLinks, c.region, report.Structure,
		fmt.Sprintf("footer has %d links, needs more than %d", n, t.FooterMinLinks)).With("links", float64(n)))

	withLabel := count(m.Nodes, func(e *dom.Node) bool { return labeled(e, "title") })
	c.record(report.Verdict(withLabel >= t.FooterMinLabeledLinks, c.region, report.Content,
		fmt.Sprintf("%d footer links have text or a title, need %d", withLabel, t.FooterMinLabeledLinks)).
		With("labeled", float64(withLabel)))
	return nil
}

// social: at least one social network link, none of them empty.
func (v *Validator) social(c *check) error {
	m, err := v.locate(locator.RoleSocialLink, c.s.Root())
	if err != nil {
		return err
	}
	if _, ok := c.presence(m.Nodes, m.Strategy, "social media link", nil); !ok {
		c.skip(report.Functionality, "no social media links")
		return nil
	}
	valid := count(m.Nodes, validHref)
	c.record(report.Verdict(valid == len(m.Nodes), c.region, report.Functionality,
		fmt.Sprintf("%d of %d social links have a usable href", valid, len(m.Nodes))).
		With("valid_href", float64(valid)))
	return nil
}

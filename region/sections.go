package region

import (
	"strings"

	"github.com/use-agent/sitecheck/locator"
	"github.com/use-agent/sitecheck/report"
)

// keywordSection is a region whose only evidence is vocabulary in the page
// source.
func (c *check) keywordSection(what string, keywords []string) {
	card := c.mentions(c.region, keywords)
	if card.Passed() {
		c.pass(report.Presence, "page has a %s section (mentions one of %s)", what, quoteList(keywords))
		return
	}
	c.fail(report.Presence, "page has no %s section: none of %s found", what, quoteList(keywords))
}

func (v *Validator) events(c *check) error {
	c.keywordSection("events", v.profile.Keywords.Events)
	return nil
}

func (v *Validator) news(c *check) error {
	c.keywordSection("news", v.profile.Keywords.News)
	return nil
}

func (v *Validator) academics(c *check) error {
	c.keywordSection("academics", v.profile.Keywords.Academics)
	return nil
}

func (v *Validator) contact(c *check) error {
	c.keywordSection("contact", v.profile.ContactKeywords())
	return nil
}

// search: an input, a button, or at least the word.
func (v *Validator) search(c *check) error {
	inputs, err := v.locate(locator.RoleSearchInput, c.s.Root())
	if err != nil {
		return err
	}
	buttons, err := v.locate(locator.RoleSearchButton, c.s.Root())
	if err != nil {
		return err
	}

	nodes := inputs.Nodes
	strategy := inputs.Strategy
	if len(nodes) == 0 {
		nodes, strategy = buttons.Nodes, buttons.Strategy
	}
	if _, ok := c.presence(nodes, strategy, "search field or button", v.profile.Keywords.Search); ok {
		c.record(report.Pass(c.region, report.Structure, "search controls").
			With("inputs", float64(len(inputs.Nodes))).
			With("buttons", float64(len(buttons.Nodes))))
	} else {
		c.skip(report.Structure, "no search controls")
	}
	return nil
}

// responsive: a viewport meta tag that scales to the device width.
func (v *Validator) responsive(c *check) error {
	m, err := v.locate(locator.RoleViewportMeta, c.s.Root())
	if err != nil {
		return err
	}
	if m.Empty() {
		c.fail(report.Responsiveness, "no <meta name=\"viewport\"> tag")
		return nil
	}

	directive := v.profile.Thresholds.ViewportDirective
	content, ok := m.First().Attr("content")
	switch {
	case !ok || strings.TrimSpace(content) == "":
		c.fail(report.Responsiveness, "viewport meta tag has no content")
	case !strings.Contains(strings.ReplaceAll(content, " ", ""), directive):
		c.fail(report.Responsiveness, "viewport %q does not set %s", content, directive)
	default:
		c.pass(report.Responsiveness, "viewport %q", content)
	}
	return nil
}

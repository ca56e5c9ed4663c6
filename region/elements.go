package region

import (
	"fmt"
	"math"
	"strings"

	"github.com/use-agent/sitecheck/dom"
	"github.com/use-agent/sitecheck/locator"
	"github.com/use-agent/sitecheck/report"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".avif"}

// atLeast is the item count a ratio of n requires, rounded down and never
// below floor.
func atLeast(n int, ratio float64, floor int) int {
	return max(floor, int(math.Floor(float64(n)*ratio)))
}

func validSrc(n *dom.Node) bool {
	src, _ := n.Attr("src")
	src = strings.TrimSpace(src)
	return src != "" && src != "data:,"
}

// images: sources set, alt text on most, at least one visible and at least
// one of plausible size.
func (v *Validator) images(c *check) error {
	t := v.profile.Thresholds

	m, err := v.locate(locator.RoleImage, c.s.Root())
	if err != nil {
		return err
	}
	imgs := m.Nodes
	total := float64(len(imgs))
	if len(imgs) == 0 {
		c.fail(report.Presence, "page has no images")
		c.skipAll("no images", report.Loading, report.Accessibility, report.Visibility, report.Dimensions, report.Content)
		return nil
	}

	valid := count(imgs, validSrc)
	c.record(report.Verdict(valid > 0, c.region, report.Loading,
		fmt.Sprintf("%d of %d images have a usable src", valid, len(imgs))).
		With("valid_src", float64(valid)).With("images", total))

	withAlt := count(imgs, func(e *dom.Node) bool { _, ok := e.Attr("alt"); return ok })
	needAlt := atLeast(len(imgs), t.ImageMinAltRatio, 0)
	c.record(report.Verdict(withAlt >= needAlt, c.region, report.Accessibility,
		fmt.Sprintf("%d of %d images have alt text, need %d", withAlt, len(imgs), needAlt)).
		With("with_alt", float64(withAlt)).With("images", total))

	visible := visibleOnly(imgs)
	c.record(report.Verdict(len(visible) > 0, c.region, report.Visibility,
		fmt.Sprintf("%d of %d images visible", len(visible), len(imgs))).
		With("visible", float64(len(visible))))

	if c.layout(report.Dimensions) {
		sized := count(visible, func(e *dom.Node) bool {
			b, ok := e.Box()
			return ok && b.Width >= t.ImageMinWidth && b.Height >= t.ImageMinHeight
		})
		c.record(report.Verdict(sized > 0, c.region, report.Dimensions,
			fmt.Sprintf("%d visible images reach %s x %s", sized, px(t.ImageMinWidth), px(t.ImageMinHeight))).
			With("sized", float64(sized)))
	}

	typed := count(imgs, func(e *dom.Node) bool {
		src := strings.ToLower(e.AttrOr("src", ""))
		for _, ext := range imageExtensions {
			if strings.Contains(src, ext) {
				return true
			}
		}
		return false
	})
	if typed > 0 {
		c.record(report.Pass(c.region, report.Content, "image sources carry a known file type").
			With("typed", float64(typed)))
	} else {
		c.skip(report.Content, "no image source names a known file type")
	}
	return nil
}

// forms are optional. When inputs exist: text fields come with labels and
// the first field is enabled.
func (v *Validator) forms(c *check) error {
	root := c.s.Root()

	forms, err := v.locate(locator.RoleForm, root)
	if err != nil {
		return err
	}
	inputs, err := v.locate(locator.RoleFormInput, root)
	if err != nil {
		return err
	}
	if forms.Empty() && inputs.Empty() {
		c.skipAll("no forms or input fields on the page", report.Presence, report.Accessibility, report.Functionality)
		return nil
	}

	text, err := v.locate(locator.RoleTextInput, root)
	if err != nil {
		return err
	}
	buttons, err := v.locate(locator.RoleButton, root)
	if err != nil {
		return err
	}
	c.record(report.Pass(c.region, report.Presence, "forms or input fields present").
		With("forms", float64(len(forms.Nodes))).
		With("inputs", float64(len(inputs.Nodes))).
		With("text_inputs", float64(len(text.Nodes))).
		With("buttons", float64(len(buttons.Nodes))))

	if inputs.Empty() {
		c.skipAll("forms without input fields", report.Accessibility, report.Functionality)
		return nil
	}

	if text.Empty() {
		c.skip(report.Accessibility, "no text fields to label")
	} else {
		labels, err := v.locate(locator.RoleLabel, root)
		if err != nil {
			return err
		}
		c.record(report.Verdict(!labels.Empty(), c.region, report.Accessibility,
			fmt.Sprintf("%d text fields, %d labels", len(text.Nodes), len(labels.Nodes))).
			With("labels", float64(len(labels.Nodes))))
	}

	c.record(report.Verdict(inputs.First().Enabled(), c.region, report.Functionality,
		"first input field must be enabled"))
	return nil
}

// tables are optional. The first table must be visible, have header cells
// and at least a header row plus a data row.
func (v *Validator) tables(c *check) error {
	t := v.profile.Thresholds

	m, err := v.locate(locator.RoleTable, c.s.Root())
	if err != nil {
		return err
	}
	if m.Empty() {
		c.skipAll("no tables on the page", report.Presence, report.Visibility, report.Structure, report.Accessibility)
		return nil
	}
	table := m.First()
	c.record(report.Pass(c.region, report.Presence, "table present").With("tables", float64(len(m.Nodes))))

	c.record(report.Verdict(table.Visible(), c.region, report.Visibility, "first table must be visible"))

	th, err := v.locate(locator.RoleTableHeader, table)
	if err != nil {
		return err
	}
	rows, err := v.locate(locator.RoleTableRow, table)
	if err != nil {
		return err
	}
	n := len(rows.Nodes)
	var problems []string
	if th.Empty() {
		problems = append(problems, "first table must have header cells (th)")
	}
	if n < t.TableMinRows {
		problems = append(problems, fmt.Sprintf("first table has %d rows, needs %d (header plus data)", n, t.TableMinRows))
	}
	reason := fmt.Sprintf("first table has header cells and %d rows", n)
	if len(problems) > 0 {
		reason = strings.Join(problems, "; ")
	}
	c.record(report.Verdict(len(problems) == 0, c.region, report.Structure, reason).
		With("th", float64(len(th.Nodes))).
		With("rows", float64(n)))

	caption, err := v.locate(locator.RoleTableCaption, table)
	if err != nil {
		return err
	}
	if caption.Empty() {
		c.skip(report.Accessibility, "first table has no caption")
	} else {
		c.pass(report.Accessibility, "first table has a caption")
	}
	return nil
}

// lists: some list exists; the first unordered list has enough items and
// most of them carry content; an ordered list, if any, has enough items.
func (v *Validator) lists(c *check) error {
	t := v.profile.Thresholds
	root := c.s.Root()

	ul, err := v.locate(locator.RoleListUnordered, root)
	if err != nil {
		return err
	}
	ol, err := v.locate(locator.RoleListOrdered, root)
	if err != nil {
		return err
	}
	if ul.Empty() && ol.Empty() {
		c.fail(report.Presence, "page has no ul or ol list")
		c.skipAll("no lists", report.Structure, report.Content)
		return nil
	}
	c.record(report.Pass(c.region, report.Presence, "lists present").
		With("ul", float64(len(ul.Nodes))).With("ol", float64(len(ol.Nodes))))

	if ul.Empty() {
		c.skipAll("no unordered list", report.Structure, report.Content)
	} else {
		items, err := v.locate(locator.RoleListItem, ul.First())
		if err != nil {
			return err
		}
		n := len(items.Nodes)
		c.record(report.Verdict(n >= t.ListMinItems, c.region, report.Structure,
			fmt.Sprintf("first ul has %d items, needs %d", n, t.ListMinItems)).With("items", float64(n)))

		filled := count(items.Nodes, func(e *dom.Node) bool {
			return e.Text() != "" || len(e.Children()) > 0
		})
		need := atLeast(n, t.ListMinContentRatio, 1)
		c.record(report.Verdict(filled >= need, c.region, report.Content,
			fmt.Sprintf("%d of %d ul items have content, need %d", filled, n, need)).
			With("filled", float64(filled)).With("items", float64(n)))
	}

	if ol.Empty() {
		c.skip(report.Organization, "no ordered list")
		return nil
	}
	items, err := v.locate(locator.RoleListItem, ol.First())
	if err != nil {
		return err
	}
	n := len(items.Nodes)
	c.record(report.Verdict(n >= t.ListMinItems, c.region, report.Organization,
		fmt.Sprintf("first ol has %d items, needs %d", n, t.ListMinItems)).With("items", float64(n)))
	return nil
}

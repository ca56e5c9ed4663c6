package capture

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/sitecheck/dom"
	"github.com/use-agent/sitecheck/models"
)

// annotatedStyles is the computed-style subset copied into data-sc-style.
var annotatedStyles = []string{"color", "background-color", "display", "visibility", "position", "font-size"}

// annotateJS writes the layout annotations onto every element and returns
// the number of elements annotated. Boxes are in document coordinates.
const annotateJS = `(box, vis, sty, props) => {
	const round = v => Math.round(v * 100) / 100;
	const all = document.querySelectorAll('*');
	for (const el of all) {
		const r = el.getBoundingClientRect();
		const x = r.left + window.scrollX;
		const y = r.top + window.scrollY;
		el.setAttribute(box, [x, y, r.width, r.height].map(round).join(','));

		const cs = window.getComputedStyle(el);
		const shown = cs.display !== 'none'
			&& cs.visibility !== 'hidden'
			&& parseFloat(cs.opacity || '1') > 0
			&& el.getClientRects().length > 0;
		el.setAttribute(vis, shown ? '1' : '0');

		el.setAttribute(sty, props.map(p => p + ':' + cs.getPropertyValue(p)).join(';'));
	}
	return all.length;
}`

// annotate runs annotateJS on the page.
func annotate(p *rod.Page) (int, error) {
	res, err := p.Eval(annotateJS, dom.AttrBox, dom.AttrVisible, dom.AttrStyle, annotatedStyles)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

// consentPattern builds the JS regex literal matching any consent word,
// case-insensitively: /(akzeptieren|accept)/i.
func consentPattern(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	return "/(" + strings.Join(quoted, "|") + ")/i"
}

// dismissConsent clicks the first button whose text reads like a cookie
// consent acceptance. Any failure, including no such button within wait,
// is a best-effort error.
func dismissConsent(p *rod.Page, words []string, wait time.Duration) error {
	if len(words) == 0 {
		return nil
	}
	btn, err := p.Timeout(wait).ElementR("button", consentPattern(words))
	if err != nil {
		return models.BestEffort("find consent button", err)
	}
	if err := btn.CancelTimeout().Click(proto.InputMouseButtonLeft, 1); err != nil {
		return models.BestEffort("click consent button", err)
	}
	return nil
}

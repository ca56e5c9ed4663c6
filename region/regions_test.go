package region

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/sitecheck/report"
)

func TestHeader_DisjunctivePresence(t *testing.T) {
	tests := []struct {
		name string
		page string
		want report.Status
	}{
		{"structure only", `<html><body><header>Menu</header><p>hello</p></body></html>`, report.StatusPass},
		{"keywords only", `<html><body><div>Willkommen an der RWTH Aachen</div></body></html>`, report.StatusPass},
		{"second full name", `<html><body><p>Rheinisch-Westfälische Technische Hochschule</p></body></html>`, report.StatusPass},
		{"neither", `<html><body><div>Hello world</div></body></html>`, report.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := run(t, tt.page, Header)
			assert.Equal(t, tt.want, outcome(t, rep, Header, report.Presence).Status)
		})
	}
}

func TestHeader_KeywordOnlyPresenceSkipsNodeChecks(t *testing.T) {
	rep := run(t, `<html><body><div>RWTH Aachen</div></body></html>`, Header)

	for _, cat := range []report.Category{report.Position, report.Visibility, report.Dimensions} {
		assert.Equal(t, report.StatusSkip, outcome(t, rep, Header, cat).Status, cat)
	}
	assert.Equal(t, report.StatusPass, outcome(t, rep, Header, report.Content).Status)
}

func TestHeader_DimensionFloor(t *testing.T) {
	tests := []struct {
		w, h float64
		want report.Status
	}{
		{40, 15, report.StatusFail},
		{60, 25, report.StatusPass},
		{50, 25, report.StatusFail}, // the floor is exclusive
		{60, 20, report.StatusFail},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%gx%g", tt.w, tt.h), func(t *testing.T) {
			page := fmt.Sprintf(`<html><body><header data-sc-box="0,10,%g,%g" data-sc-visible="1">RWTH</header></body></html>`, tt.w, tt.h)
			rep := run(t, page, Header)
			o := outcome(t, rep, Header, report.Dimensions)
			assert.Equal(t, tt.want, o.Status, o.Reason)
			assert.Equal(t, tt.w, o.Evidence["width"])
		})
	}
}

func TestHeader_Position(t *testing.T) {
	low := `<html><body><header data-sc-box="0,250,1200,80" data-sc-visible="1">RWTH</header></body></html>`
	rep := run(t, low, Header)

	o := outcome(t, rep, Header, report.Position)
	assert.Equal(t, report.StatusFail, o.Status)
	assert.Equal(t, 250.0, o.Evidence["y"])
}

func TestFooter_ContentScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want report.Status
	}{
		{"institution and copyright", "RWTH ©", report.StatusPass},
		{"institution only", "RWTH", report.StatusFail},
		{"legal and contact in german", "Impressum Kontakt", report.StatusPass},
		{"year and copyright word", "Copyright 2025", report.StatusPass},
		{"stale year only", "2019", report.StatusFail},
		{"words split by inline markup", "Copy<b>right</b> RW<span>TH</span>", report.StatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := `<html><body><footer data-sc-box="0,900,1920,200" data-sc-visible="1">` + tt.text + `</footer></body></html>`
			rep := run(t, page, Footer)
			o := outcome(t, rep, Footer, report.Content)
			assert.Equal(t, tt.want, o.Status, o.Reason)
		})
	}
}

func TestFooter_FallbackLocators(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"role contentinfo", `<html><body><div role="contentinfo">x</div></body></html>`},
		{"id", `<html><body><section id="page-footer">x</section></body></html>`},
		{"class", `<html><body><div class="Footer-Wrapper">x</div></body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := run(t, tt.page, Footer)
			o := outcome(t, rep, Footer, report.Presence)
			assert.Equal(t, report.StatusPass, o.Status)
			assert.Equal(t, 1.0, o.Evidence["nodes"])
		})
	}
}

func TestFooter_KeywordOnlyPresence(t *testing.T) {
	rep := run(t, `<html><body><div><a href="/impressum">Impressum</a></div></body></html>`, Footer)

	assert.Equal(t, report.StatusPass, outcome(t, rep, Footer, report.Presence).Status)
	assert.Equal(t, report.StatusSkip, outcome(t, rep, Footer, report.Content).Status)
	assert.True(t, rep.AllPassed())
}

func TestFooter_GeometryAgainstViewport(t *testing.T) {
	// viewport is 1920x1080: top must exceed 540, width must reach 1536
	page := `<html><body><footer data-sc-box="0,400,1000,40" data-sc-visible="1">RWTH ©</footer></body></html>`
	rep := run(t, page, Footer)

	assert.Equal(t, report.StatusFail, outcome(t, rep, Footer, report.Position).Status)
	assert.Equal(t, report.StatusFail, outcome(t, rep, Footer, report.Dimensions).Status)
	assert.Equal(t, report.StatusFail, outcome(t, rep, Footer, report.Responsiveness).Status)
	assert.Equal(t, report.StatusFail, outcome(t, rep, Footer, report.Structure).Status)
	assert.Equal(t, report.StatusFail, outcome(t, rep, Footer, report.Organization).Status)
	assert.Equal(t, report.StatusFail, outcome(t, rep, Footer, report.Accessibility).Status)
}

func TestFooter_PlaceholderLinksAreNotFunctional(t *testing.T) {
	tests := []struct {
		name        string
		links       string
		want        report.Status
		wantWorking float64
	}{
		{"placeholders only", `<a href="#">A</a><a href="javascript:void(0)">B</a><a href="  ">C</a>`, report.StatusFail, 0},
		{"one real link", `<a href="#">A</a><a href="/impressum">Impressum</a>`, report.StatusPass, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := `<html><body><footer data-sc-box="0,900,1920,200" data-sc-visible="1"><div>RWTH © ` + tt.links + `</div></footer></body></html>`
			rep := run(t, page, Footer)
			o := outcome(t, rep, Footer, report.Functionality)
			assert.Equal(t, tt.want, o.Status, o.Reason)
			assert.Equal(t, tt.wantWorking, o.Evidence["working"])
		})
	}
}

func TestFooterLinks(t *testing.T) {
	tests := []struct {
		name      string
		links     string
		structure report.Status
		content   report.Status
	}{
		{"four labeled", `<a href="/1">a</a><a href="/2">b</a><a href="/3" title="c"></a><a href="/4">d</a>`, report.StatusPass, report.StatusPass},
		{"three links", `<a href="/1">a</a><a href="/2">b</a><a href="/3">c</a>`, report.StatusFail, report.StatusPass},
		{"mostly unlabeled", `<a href="/1">a</a><a href="/2"></a><a href="/3"></a><a href="/4">d</a>`, report.StatusPass, report.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := run(t, `<html><body><footer>`+tt.links+`</footer></body></html>`, FooterLinks)
			assert.Equal(t, tt.structure, outcome(t, rep, FooterLinks, report.Structure).Status)
			assert.Equal(t, tt.content, outcome(t, rep, FooterLinks, report.Content).Status)
		})
	}
}

func TestTables_Rows(t *testing.T) {
	tests := []struct {
		name string
		rows string
		want report.Status
	}{
		{"header row only", `<tr><th>h</th></tr>`, report.StatusFail},
		{"header and data row", `<tr><th>h</th></tr><tr><td>d</td></tr>`, report.StatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := run(t, `<html><body><table>`+tt.rows+`</table></body></html>`, Tables)
			o := outcome(t, rep, Tables, report.Structure)
			assert.Equal(t, tt.want, o.Status, o.Reason)
			assert.Equal(t, 1.0, o.Evidence["th"])
			assert.Empty(t, rep.ByCategory(report.Content))
			assert.Equal(t, report.StatusSkip, outcome(t, rep, Tables, report.Accessibility).Status)
		})
	}
}

func TestTables_NoHeaderCells(t *testing.T) {
	rep := run(t, `<html><body><table><tr><td>a</td></tr><tr><td>b</td></tr></table></body></html>`, Tables)
	o := outcome(t, rep, Tables, report.Structure)
	assert.Equal(t, report.StatusFail, o.Status)
	assert.Contains(t, o.Reason, "(th)")
	assert.Equal(t, 2.0, o.Evidence["rows"])
}

func TestOptionalRegionsSkipWhenAbsent(t *testing.T) {
	rep := run(t, `<html><body><p>nothing here</p></body></html>`, Tables, Forms)

	assert.Empty(t, rep.Failures())
	assert.Equal(t, report.StatusSkip, outcome(t, rep, Tables, report.Presence).Status)
	assert.Equal(t, report.StatusSkip, outcome(t, rep, Forms, report.Presence).Status)
}

func TestLists_ContentRatio(t *testing.T) {
	tests := []struct {
		name  string
		items string
		want  report.Status
	}{
		{"two of four filled", `<li>a</li><li><img src="x.png"></li><li></li><li> </li>`, report.StatusPass},
		{"one of four filled", `<li>a</li><li></li><li></li><li></li>`, report.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := run(t, `<html><body><ul>`+tt.items+`</ul></body></html>`, Lists)
			o := outcome(t, rep, Lists, report.Content)
			assert.Equal(t, tt.want, o.Status, o.Reason)
			assert.Equal(t, 4.0, o.Evidence["items"])
			assert.Equal(t, report.StatusPass, outcome(t, rep, Lists, report.Structure).Status)
		})
	}
}

func TestLists_SingleItemAndOrdered(t *testing.T) {
	rep := run(t, `<html><body><ul><li>only</li></ul><ol><li>1</li></ol></body></html>`, Lists)

	assert.Equal(t, report.StatusFail, outcome(t, rep, Lists, report.Structure).Status)
	assert.Equal(t, report.StatusPass, outcome(t, rep, Lists, report.Content).Status)
	assert.Equal(t, report.StatusFail, outcome(t, rep, Lists, report.Organization).Status)
}

func TestLists_NoneAtAll(t *testing.T) {
	rep := run(t, `<html><body><p>x</p></body></html>`, Lists)
	assert.Equal(t, report.StatusFail, outcome(t, rep, Lists, report.Presence).Status)
}

func TestNavigation(t *testing.T) {
	tests := []struct {
		name  string
		links string
		href  report.Status
	}{
		{"two real links", `<a href="/a">A</a><a href="/b">B</a><a href="#">C</a>`, report.StatusPass},
		{"placeholders only", `<a href="#">A</a><a href="javascript:void(0)">B</a>`, report.StatusFail},
		{"single real link", `<a href="/a">A</a>`, report.StatusPass},
		{"single empty href", `<a href=" ">A</a>`, report.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := run(t, `<html><body><nav>`+tt.links+`</nav></body></html>`, Navigation)

			var found bool
			for _, o := range rep.ByRegion(Navigation) {
				if _, ok := o.Evidence["valid_href"]; ok {
					found = true
					assert.Equal(t, tt.href, o.Status, o.Reason)
				}
			}
			assert.True(t, found, "no href outcome")
		})
	}
}

func TestNavigation_HiddenLinksDoNotCount(t *testing.T) {
	rep := run(t, `<html><body><nav style="display:none"><a href="/a">A</a></nav></body></html>`, Navigation)
	assert.Equal(t, report.StatusFail, outcome(t, rep, Navigation, report.Presence).Status)
}

func TestKeywordSections(t *testing.T) {
	tests := []struct {
		region string
		page   string
		want   report.Status
	}{
		{Events, `<p>Veranstaltungskalender</p>`, report.StatusPass},
		{Events, `<p>Termine</p>`, report.StatusFail},
		{News, `<h2>NACHRICHTEN</h2>`, report.StatusPass},
		{Academics, `<a>Studiengänge</a>`, report.StatusPass},
		{Academics, `<a>Forschung</a>`, report.StatusFail},
		{Contact, `<a href="mailto:info@rwth-aachen.de">Mail</a>`, report.StatusPass},
		{Contact, `<p>Templergraben 55, 52062 Aachen</p>`, report.StatusPass},
		{Contact, `<p>Templergraben 55</p>`, report.StatusFail},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.region, i), func(t *testing.T) {
			rep := run(t, `<html><body>`+tt.page+`</body></html>`, tt.region)
			o := outcome(t, rep, tt.region, report.Presence)
			assert.Equal(t, tt.want, o.Status, o.Reason)
		})
	}
}

func TestKeywordSection_ReasonNamesKeywords(t *testing.T) {
	rep := run(t, `<html><body><p>nichts</p></body></html>`, Academics)
	o := outcome(t, rep, Academics, report.Presence)
	assert.Contains(t, o.Reason, `"fakultät"`)
	assert.Contains(t, o.Reason, `"studiengänge"`)
}

func TestResponsive(t *testing.T) {
	tests := []struct {
		name string
		head string
		want report.Status
	}{
		{"device width", `<meta name="viewport" content="width=device-width, initial-scale=1">`, report.StatusPass},
		{"spaced directive", `<meta name="viewport" content="width = device-width">`, report.StatusPass},
		{"fixed width", `<meta name="viewport" content="width=1024">`, report.StatusFail},
		{"missing", ``, report.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := run(t, `<html><head>`+tt.head+`</head><body></body></html>`, Responsive)
			assert.Equal(t, tt.want, outcome(t, rep, Responsive, report.Responsiveness).Status)
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		title    string
		presence report.Status
		content  report.Status
	}{
		{"RWTH Aachen University", report.StatusPass, report.StatusPass},
		{"Rheinisch-Westfälische Technische Hochschule", report.StatusPass, report.StatusPass},
		{"Startseite", report.StatusPass, report.StatusFail},
		{"", report.StatusFail, report.StatusSkip},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			rep := run(t, `<html><head><title>`+tt.title+`</title></head><body></body></html>`, Title)
			assert.Equal(t, tt.presence, outcome(t, rep, Title, report.Presence).Status)
			assert.Equal(t, tt.content, outcome(t, rep, Title, report.Content).Status)
		})
	}
}

func TestImages(t *testing.T) {
	page := `<html><body data-sc-box="0,0,1,1">
		<img src="data:," alt="" data-sc-box="0,0,10,10" data-sc-visible="1">
		<img src="/a.webp" data-sc-box="0,0,10,10" data-sc-visible="1">
		<img src="/b.png" data-sc-box="0,0,300,200" data-sc-visible="0">
	</body></html>`
	rep := run(t, page, Images)

	assert.Equal(t, report.StatusPass, outcome(t, rep, Images, report.Loading).Status)
	assert.Equal(t, report.StatusPass, outcome(t, rep, Images, report.Accessibility).Status)
	assert.Equal(t, report.StatusPass, outcome(t, rep, Images, report.Visibility).Status)
	o := outcome(t, rep, Images, report.Dimensions)
	assert.Equal(t, report.StatusFail, o.Status, "the only large image is hidden")
	assert.Equal(t, report.StatusPass, outcome(t, rep, Images, report.Content).Status)
}

func TestImages_None(t *testing.T) {
	rep := run(t, `<html><body></body></html>`, Images)
	assert.Equal(t, report.StatusFail, outcome(t, rep, Images, report.Presence).Status)
	assert.Len(t, rep.Failures(), 1)
}

func TestForms(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		accessibility report.Status
		functionality report.Status
	}{
		{"labeled text field", `<form><label>Name</label><input type="text"></form>`, report.StatusPass, report.StatusPass},
		{"unlabeled text field", `<form><input type="email"></form>`, report.StatusFail, report.StatusPass},
		{"disabled first input", `<input type="checkbox" disabled><input type="text"><label>x</label>`, report.StatusPass, report.StatusFail},
		{"only a select", `<select><option>a</option></select>`, report.StatusSkip, report.StatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := run(t, `<html><body>`+tt.body+`</body></html>`, Forms)
			assert.Equal(t, report.StatusPass, outcome(t, rep, Forms, report.Presence).Status)
			assert.Equal(t, tt.accessibility, outcome(t, rep, Forms, report.Accessibility).Status)
			assert.Equal(t, tt.functionality, outcome(t, rep, Forms, report.Functionality).Status)
		})
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name string
		body string
		want report.Status
	}{
		{"search input", `<input type="search">`, report.StatusPass},
		{"placeholder", `<input placeholder="Suche nach Personen">`, report.StatusPass},
		{"button only", `<button title="Search"></button>`, report.StatusPass},
		{"word only", `<p>use the search</p>`, report.StatusPass},
		{"nothing", `<p>hallo</p>`, report.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := run(t, `<html><body>`+tt.body+`</body></html>`, Search)
			assert.Equal(t, tt.want, outcome(t, rep, Search, report.Presence).Status)
		})
	}
}

func TestSocialAndAction(t *testing.T) {
	rep := run(t, `<html><body>
		<a href="https://www.instagram.com/rwth">Instagram</a>
		<a href="/x" style="visibility:hidden">Read more</a>
	</body></html>`, Social, Action)

	assert.Equal(t, report.StatusPass, outcome(t, rep, Social, report.Presence).Status)
	assert.Equal(t, report.StatusPass, outcome(t, rep, Social, report.Functionality).Status)
	assert.Equal(t, report.StatusPass, outcome(t, rep, Action, report.Presence).Status)
	assert.Equal(t, report.StatusFail, outcome(t, rep, Action, report.Visibility).Status)
}

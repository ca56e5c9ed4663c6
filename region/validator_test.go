package region

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/dom"
	"github.com/use-agent/sitecheck/locator"
	"github.com/use-agent/sitecheck/report"
)

const goodPage = `<!DOCTYPE html>
<html lang="de"><head>
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>RWTH Aachen University | Startseite</title>
</head>
<body data-sc-box="0,0,1920,3000" data-sc-visible="1">
<header data-sc-box="0,0,1920,120" data-sc-visible="1">
  <a href="/" data-sc-box="20,20,200,80" data-sc-visible="1"><img src="/logo.svg" alt="RWTH Logo" data-sc-box="20,20,200,80" data-sc-visible="1"></a>
  <nav>
    <a href="/studium">Studium</a>
    <a href="/forschung">Forschung</a>
    <a href="#">Menü</a>
  </nav>
  <form role="search"><label for="q">Suche</label><input id="q" type="search" placeholder="Suche"><button>Suchen</button></form>
</header>
<main>
  <h2>Aktuelles</h2>
  <ul><li><a href="/news/1">Meldung</a></li><li>Veranstaltung</li><li> </li></ul>
  <a href="/mehr">Mehr erfahren</a>
  <table><caption>Termine</caption><tr><th>Datum</th></tr><tr><td>1.1.</td></tr></table>
  <ol><li>eins</li><li>zwei</li></ol>
  <p>Studium an der Fakultät</p>
</main>
<footer data-sc-box="0,2500,1920,400" data-sc-visible="1" data-sc-style="color:rgb(255, 255, 255)">
  <div>
    <ul>
      <li><a href="/kontakt">Kontakt</a></li>
      <li><a href="/impressum">Impressum</a></li>
      <li><a href="/datenschutz">Datenschutz</a></li>
      <li><a href="https://www.facebook.com/RWTHAachenUniversity" title="Facebook"></a></li>
    </ul>
    <p>© 2026 RWTH Aachen University · info@rwth-aachen.de</p>
  </div>
</footer>
</body></html>`

var (
	viewport   = dom.Size{Width: 1920, Height: 1080}
	annotation = regexp.MustCompile(`\s+data-sc-[a-z]+="[^"]*"`)
)

func newValidator(opts ...Option) *Validator {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) }),
	}
	return New(config.DefaultProfile(), append(base, opts...)...)
}

func snapshot(t *testing.T, src string) *dom.Snapshot {
	t.Helper()
	s, err := dom.Parse(src, dom.Meta{URL: "https://www.rwth-aachen.de/", Viewport: viewport})
	require.NoError(t, err)
	return s
}

func run(t *testing.T, src string, regions ...string) *report.Report {
	t.Helper()
	rep, err := newValidator().Run(context.Background(), snapshot(t, src), regions...)
	require.NoError(t, err)
	return rep
}

// outcome returns the single outcome of region/category, failing the test
// if there is not exactly one.
func outcome(t *testing.T, rep *report.Report, region string, cat report.Category) report.Outcome {
	t.Helper()
	var got []report.Outcome
	for _, o := range rep.ByRegion(region) {
		if o.Category == cat {
			got = append(got, o)
		}
	}
	require.Len(t, got, 1, "%s/%s outcomes: %+v", region, cat, got)
	return got[0]
}

func describe(outs []report.Outcome) string {
	var b strings.Builder
	for _, o := range outs {
		b.WriteString(o.Region + " " + string(o.Category) + ": " + o.Reason + "\n")
	}
	return b.String()
}

func TestRun_WellFormedPagePassesEverything(t *testing.T) {
	rep := run(t, goodPage)

	assert.True(t, rep.AllPassed(), describe(rep.Failures()))
	assert.Empty(t, rep.Skipped(), describe(rep.Skipped()))

	regions := map[string]bool{}
	for _, o := range rep.Outcomes() {
		regions[o.Region] = true
	}
	for _, r := range All() {
		assert.True(t, regions[r], "no outcome for region %s", r)
	}
}

func TestRun_WithoutLayoutSkipsGeometry(t *testing.T) {
	// Strip every data-sc-* annotation, as a plain HTTP fetch would deliver.
	plain := annotation.ReplaceAllString(goodPage, "")
	s := snapshot(t, plain)
	require.False(t, s.HasLayout())

	rep, err := newValidator().Run(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, rep.AllPassed(), describe(rep.Failures()))
	assert.Equal(t, report.StatusSkip, outcome(t, rep, Header, report.Position).Status)
	assert.Equal(t, report.StatusSkip, outcome(t, rep, Header, report.Dimensions).Status)
	assert.Equal(t, report.StatusSkip, outcome(t, rep, Footer, report.Responsiveness).Status)
	assert.Equal(t, report.StatusSkip, outcome(t, rep, Footer, report.Accessibility).Status)
	assert.Equal(t, report.StatusSkip, outcome(t, rep, Images, report.Dimensions).Status)
	assert.Equal(t, report.StatusPass, outcome(t, rep, Footer, report.Content).Status)
}

func TestRun_SelectedRegionsInOrder(t *testing.T) {
	rep := run(t, goodPage, Title, Events)

	outs := rep.Outcomes()
	require.NotEmpty(t, outs)
	assert.Equal(t, Title, outs[0].Region)
	assert.Equal(t, Events, outs[len(outs)-1].Region)
	assert.Empty(t, rep.ByRegion(Header))
}

func TestRun_UnknownRegion(t *testing.T) {
	_, err := newValidator().Run(context.Background(), snapshot(t, goodPage), "sidebar")
	assert.ErrorContains(t, err, "sidebar")
}

func TestRun_CancelledBetweenRegions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := newValidator().Run(ctx, snapshot(t, goodPage))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Empty(t, rep.Outcomes())
}

func TestRun_RegionErrorStaysLocal(t *testing.T) {
	v := newValidator(WithLocator(locator.New(nil)))

	rep, err := v.Run(context.Background(), snapshot(t, goodPage), Header, Events)
	require.NoError(t, err)

	header := rep.ByRegion(Header)
	require.Len(t, header, 1)
	assert.Equal(t, report.StatusFail, header[0].Status)
	assert.Contains(t, header[0].Reason, "unknown role")

	assert.Equal(t, report.StatusPass, outcome(t, rep, Events, report.Presence).Status)
}

func TestRun_FooterTimeoutFailsOnlyFooterPresence(t *testing.T) {
	s, err := dom.Parse(goodPage, dom.Meta{
		Viewport: viewport,
		Pending:  map[string]error{Footer: errors.New("COLLABORATOR_TIMEOUT: timed out waiting for footer")},
	})
	require.NoError(t, err)

	rep, err := newValidator().Run(context.Background(), s)
	require.NoError(t, err)

	p := outcome(t, rep, Footer, report.Presence)
	assert.Equal(t, report.StatusFail, p.Status)
	assert.Contains(t, p.Reason, "timed out waiting for footer")
	assert.Equal(t, report.StatusSkip, outcome(t, rep, Footer, report.Content).Status)
	assert.Equal(t, report.StatusFail, outcome(t, rep, FooterLinks, report.Presence).Status)

	for _, f := range rep.Failures() {
		assert.Contains(t, []string{Footer, FooterLinks}, f.Region, "failure leaked into %s: %s", f.Region, f.Reason)
	}
}

func TestRun_NoFooterAnywhere(t *testing.T) {
	page := `<html><head><title>RWTH</title></head><body>
		<header>RWTH Aachen</header>
		<div class="content"><a href="/a">A</a></div>
	</body></html>`
	rep := run(t, page, Footer, FooterLinks)

	assert.Equal(t, report.StatusFail, outcome(t, rep, Footer, report.Presence).Status)
	for _, cat := range footerDownstream {
		assert.Equal(t, report.StatusSkip, outcome(t, rep, Footer, cat).Status, cat)
	}
	assert.Equal(t, report.StatusSkip, outcome(t, rep, FooterLinks, report.Structure).Status)
	assert.Len(t, rep.Failures(), 1)
}

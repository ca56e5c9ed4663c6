package capture

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/sitecheck/dom"
	"github.com/use-agent/sitecheck/engine"
	"github.com/use-agent/sitecheck/locator"
	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/region"
)

// footerSelector is what the footer await waits for. It mirrors the
// footer role's strategies.
const footerSelector = `footer, [role="contentinfo"], div[id*="footer" i], section[id*="footer" i], div[class*="footer" i], section[class*="footer" i]`

// consentWait bounds the search for a consent button.
const consentWait = 2 * time.Second

// Capture renders req.URL and returns the annotated markup. It satisfies
// engine.CaptureFunc.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard          – hard deadline on the entire capture
//  2. Acquire page           – borrow a tab from the pool (or a proxied context)
//  3. DEFER: cleanup         – about:blank + return to pool with its health
//  4. Stealth injection      – before navigation
//  5. Viewport + headers     – window size, extra headers
//  6. Hijack mount           – block fonts/media (before navigation)
//  7. Navigate               – bounded by the navigation timeout
//  8. Await body             – hard: failure fails the capture
//  9. Dismiss consent        – best effort
//  10. Await footer          – per region: failure is recorded, not raised
//  11. Annotate + extract    – layout annotations, HTML, title, status
func (c *Capturer) Capture(ctx context.Context, req *engine.FetchRequest) (result *engine.FetchResult, err error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.captureCfg.DefaultTimeout
	}
	if timeout > c.captureCfg.MaxTimeout {
		timeout = c.captureCfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// ── 2. Acquire page ───────────────────────────────────────────────
	c.activePages.Add(1)
	defer c.activePages.Add(-1)

	var page *rod.Page
	if req.ProxyURL != "" {
		var release func()
		page, release, err = c.proxiedPage(req.ProxyURL)
		if err != nil {
			return nil, err
		}
		defer release()
	} else {
		page, err = c.pool.Get(func() (*rod.Page, error) {
			return c.browser.Page(proto.TargetCreateTarget{})
		})
		if err != nil {
			return nil, models.NewCheckError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
		}

		// ── 3. Cleanup: blank the tab, return it with its health ─────
		defer func() {
			if navErr := page.Navigate("about:blank"); navErr != nil {
				slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
			}
			c.pool.Put(page, err == nil)
		}()
	}

	// ── 4. Stealth injection ──────────────────────────────────────────
	if req.Stealth || c.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	// ── 5. Viewport and extra headers ─────────────────────────────────
	vp := dom.Size{Width: float64(c.captureCfg.ViewportWidth), Height: float64(c.captureCfg.ViewportHeight)}
	if vpErr := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             c.captureCfg.ViewportWidth,
		Height:            c.captureCfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); vpErr != nil {
		return nil, categorizeError(vpErr, "failed to set viewport")
	}
	if headers := extraHeaders(req); len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}

	// ── 6. Hijack router ──────────────────────────────────────────────
	if router := setupHijack(page, c.captureCfg.BlockedResourceTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// ── 7. Navigate ───────────────────────────────────────────────────
	if navErr := p.Timeout(c.captureCfg.NavigationTimeout).Navigate(req.URL); navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}

	// ── 8. Await body (hard) ──────────────────────────────────────────
	if _, bodyErr := p.Timeout(c.captureCfg.BodyTimeout).Element("body"); bodyErr != nil {
		return nil, categorizeError(bodyErr, "page body never appeared")
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}

	// ── 9. Consent dialog (best effort) ───────────────────────────────
	if c.captureCfg.DismissConsent {
		if consentErr := dismissConsent(p, locator.ConsentWords(), consentWait); consentErr != nil {
			if !models.IsBestEffort(consentErr) {
				return nil, consentErr
			}
			slog.Debug("consent dismissal skipped", "url", req.URL, "error", consentErr)
		}
	}

	// ── 10. Await footer (per region) ─────────────────────────────────
	pending := map[string]error{}
	if _, footErr := p.Timeout(c.captureCfg.RegionTimeout).Element(footerSelector); footErr != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(ctx.Err(), "capture deadline exceeded")
		}
		slog.Info("footer never appeared", "url", req.URL, "timeout", c.captureCfg.RegionTimeout)
		pending[region.Footer] = models.CollaboratorTimeout(region.Footer, footErr)
	}

	// ── 11. Annotate and extract ──────────────────────────────────────
	n, annErr := annotate(p)
	if annErr != nil {
		return nil, categorizeError(annErr, "failed to annotate layout")
	}
	slog.Debug("layout annotated", "url", req.URL, "elements", n)

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		Lang:       evalStringOrEmpty(p, `() => document.documentElement.lang || ""`),
		StatusCode: navigationStatus(p),
		FinalURL:   finalURL,
		EngineName: "rod",
		Viewport:   vp,
		Pending:    pending,
	}, nil
}

// proxiedPage opens a tab in a fresh browser context routed through proxy.
// The context is disposed by release.
func (c *Capturer) proxiedPage(proxy string) (*rod.Page, func(), error) {
	bc, err := proto.TargetCreateBrowserContext{ProxyServer: proxy, DisposeOnDetach: true}.Call(c.browser)
	if err != nil {
		return nil, nil, models.NewCheckError(models.ErrCodeBrowserCrash, "failed to create proxied browser context", err)
	}
	page, err := c.browser.Page(proto.TargetCreateTarget{BrowserContextID: bc.BrowserContextID})
	if err != nil {
		_ = proto.TargetDisposeBrowserContext{BrowserContextID: bc.BrowserContextID}.Call(c.browser)
		return nil, nil, models.NewCheckError(models.ErrCodeBrowserCrash, "failed to open proxied page", err)
	}
	release := func() {
		_ = page.Close()
		if err := (proto.TargetDisposeBrowserContext{BrowserContextID: bc.BrowserContextID}).Call(c.browser); err != nil {
			slog.Warn("dispose proxied browser context failed", "error", err)
		}
	}
	return page, release, nil
}

// extraHeaders merges the request headers over a search-engine Referer.
func extraHeaders(req *engine.FetchRequest) map[string]string {
	out := make(map[string]string, len(req.Headers)+1)
	if _, ok := req.Headers["Referer"]; !ok {
		if u, err := url.Parse(req.URL); err == nil && u.Hostname() != "" {
			out["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
		}
	}
	for k, v := range req.Headers {
		out[k] = v
	}
	return out
}

// navigationStatus reads the main document's HTTP status from the
// Navigation Timing API, without CDP network listeners. 0 when unknown.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed CheckErrors so the API layer
// can map them to HTTP status codes.
func categorizeError(err error, msg string) *models.CheckError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewCheckError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewCheckError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewCheckError(models.ErrCodeNavigation, msg, err)
	}
}

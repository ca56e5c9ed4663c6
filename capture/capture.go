// Package capture renders a page in headless Chrome and turns it into an
// annotated dom.Snapshot: every element carries its box, visibility and a
// subset of its computed style, so validation can run without the browser.
package capture

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/models"
)

// Capturer manages the global browser lifecycle and the page pool.
// It is safe for concurrent use.
type Capturer struct {
	browser     *rod.Browser
	pool        *pagePool
	browserCfg  config.BrowserConfig
	captureCfg  config.CaptureConfig
	pid         int
	activePages atomic.Int32
	startTime   time.Time
}

// New launches a headless browser and initialises the reusable page pool.
func New(browserCfg config.BrowserConfig, captureCfg config.CaptureConfig) (*Capturer, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("hide-scrollbars"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewCheckError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "pid", l.PID())

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewCheckError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	slog.Info("page pool created", "maxPages", browserCfg.MaxPages)

	return &Capturer{
		browser:    browser,
		pool:       newPagePool(browserCfg.MaxPages),
		browserCfg: browserCfg,
		captureCfg: captureCfg,
		pid:        l.PID(),
		startTime:  time.Now(),
	}, nil
}

// Stats returns a snapshot of the pool's current state.
func (c *Capturer) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:     c.browserCfg.MaxPages,
		ActivePages:  int(c.activePages.Load()),
		RetiredPages: c.pool.Retired(),
		BrowserPID:   c.pid,
	}
}

// Uptime reports how long the browser has been running.
func (c *Capturer) Uptime() time.Duration { return time.Since(c.startTime) }

// Close drains the page pool and kills the browser process.
func (c *Capturer) Close() {
	slog.Info("capture shutting down: draining page pool")
	c.pool.Cleanup()
	slog.Info("capture shutting down: closing browser")
	if err := c.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("capture shutdown complete")
}

package cli

import (
	"log/slog"
	"time"

	"github.com/use-agent/sitecheck/api/handler"
	"github.com/use-agent/sitecheck/capture"
	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/engine"
	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/region"
)

// domainMemoryTTL is how long the dispatcher remembers a domain's winner.
const domainMemoryTTL = 24 * time.Hour

// runtime owns the fetch engines and, when one was launched, the browser.
type runtime struct {
	capturer *capture.Capturer
	fetchers handler.Fetchers
}

// newRuntime builds the engines. The http engine is always present; the
// browser is launched only when withBrowser is set. "auto" needs both
// the browser and cfg.Engine.EnableMultiEngine.
func newRuntime(cfg *config.Config, withBrowser bool) (*runtime, error) {
	httpEngine := engine.NewHTTPEngine(cfg.Engine.HTTPTimeout)
	rt := &runtime{fetchers: handler.Fetchers{"http": httpEngine}}
	if !withBrowser {
		return rt, nil
	}

	cp, err := capture.New(cfg.Browser, cfg.Capture)
	if err != nil {
		return nil, err
	}
	rt.capturer = cp

	rodEngine := engine.NewRodEngine(cp.Capture, false)
	rt.fetchers["browser"] = rodEngine

	if cfg.Engine.EnableMultiEngine {
		engines := []engine.Engine{httpEngine, rodEngine, engine.NewRodEngine(cp.Capture, true)}
		dispatcher := engine.NewDispatcher(engines, cfg.Engine.EscalationDelays, engine.NewDomainMemory(domainMemoryTTL))
		rt.fetchers["auto"] = dispatcher
		slog.Info("multi-engine dispatcher enabled",
			"engines", dispatcher.Engines(),
			"delays", cfg.Engine.EscalationDelays,
		)
	}
	return rt, nil
}

// poolStats is nil without a browser.
func (rt *runtime) poolStats() func() models.PoolStats {
	if rt.capturer == nil {
		return nil
	}
	return rt.capturer.Stats
}

func (rt *runtime) Close() {
	if rt.capturer != nil {
		rt.capturer.Close()
	}
}

// newValidator loads the profile at path (or the built-in one).
func newValidator(path string) (*region.Validator, error) {
	p, err := config.LoadProfile(path)
	if err != nil {
		return nil, err
	}
	slog.Info("site profile loaded", "name", p.Name, "path", path)
	return region.New(*p, region.WithLogger(slog.Default())), nil
}

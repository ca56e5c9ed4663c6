package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Dispatcher coordinates engines with staged escalation. It starts the
// cheapest engine first and brings in heavier ones after their delay, or at
// once when every engine before them has already failed.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *DomainMemory
}

// NewDispatcher creates a Dispatcher. engines[i] starts escalationDelays[i]
// after the race begins; missing delays count as zero. memory may be nil.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *DomainMemory) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
	}
}

// Name identifies the dispatcher as an engine.
func (d *Dispatcher) Name() string { return "auto" }

// Fetch lets a Dispatcher stand in wherever an Engine is expected.
func (d *Dispatcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	return d.Dispatch(ctx, req)
}

// Engines lists the engine names in escalation order.
func (d *Dispatcher) Engines() []string {
	names := make([]string, len(d.engines))
	for i, e := range d.engines {
		names[i] = e.Name()
	}
	return names
}

// Dispatch returns the first successful result. If all engines fail, the
// error joins every engine's failure.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(d.engines) == 0 {
		return nil, fmt.Errorf("dispatcher: no engines configured")
	}
	domain := extractDomain(req.URL)

	if remembered := d.memory.Get(domain); remembered != "" {
		for _, eng := range d.engines {
			if eng.Name() != remembered {
				continue
			}
			slog.Debug("domain memory hit", "domain", domain, "engine", remembered)
			result, err := eng.Fetch(ctx, req)
			if err == nil {
				return result, nil
			}
			slog.Info("remembered engine failed, running full race",
				"domain", domain, "engine", remembered, "error", err)
			d.memory.Delete(domain)
			break
		}
	}

	return d.race(ctx, req, domain)
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, domain string) (*FetchResult, error) {
	type raceResult struct {
		result *FetchResult
		err    error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	n := len(d.engines)
	results := make(chan raceResult, n)
	failed := make([]chan struct{}, n)
	for i := range failed {
		failed[i] = make(chan struct{})
	}

	var wg sync.WaitGroup
	for i, eng := range d.engines {
		wg.Add(1)
		go func(i int, e Engine, delay time.Duration) {
			defer wg.Done()

			if i > 0 && delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-raceCtx.Done():
					close(failed[i])
					return
				case <-timer.C:
				case <-allClosed(raceCtx, failed[:i]):
				}
			}

			select {
			case <-raceCtx.Done():
				close(failed[i])
				return
			default:
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := e.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
				close(failed[i])
			}
			results <- raceResult{result: result, err: err}
		}(i, eng, d.escalationDelays[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var errs []error
	for rr := range results {
		if rr.err != nil {
			errs = append(errs, rr.err)
			continue
		}
		raceCancel()
		slog.Info("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		d.memory.Set(domain, rr.result.EngineName)
		return rr.result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, errors.Join(errs...)
}

// allClosed returns a channel that is closed once every channel in chans is.
// The helper goroutine exits early when ctx ends.
func allClosed(ctx context.Context, chans []chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for _, c := range chans {
			select {
			case <-c:
			case <-ctx.Done():
				return
			}
		}
		close(done)
	}()
	return done
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

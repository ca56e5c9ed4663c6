package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitecheck/cache"
	"github.com/use-agent/sitecheck/dom"
	"github.com/use-agent/sitecheck/engine"
	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/region"
	"github.com/use-agent/sitecheck/report"
	"github.com/use-agent/sitecheck/webhook"
)

// Fetchers maps a fetch mode ("browser", "http", "auto") to the engine
// serving it. Modes without an engine are rejected.
type Fetchers map[string]engine.Engine

// Validate returns a handler for POST /api/v1/validate.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup (max_age > 0 only).
//  3. Fetch the page with the requested engine   (records capture_ms)
//  4. Run the validator on the snapshot           (records validation_ms)
//  5. Render, cache, notify the webhook, respond 200 whatever the verdict.
func Validate(fetchers Fetchers, v *region.Validator, cc *cache.Cache, wh *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ValidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewCheckError(models.ErrCodeInvalidInput, err.Error(), err), models.TimingInfo{})
			return
		}
		req.Defaults()
		if err := checkRegions(req.Regions); err != nil {
			respondError(c, err, models.TimingInfo{})
			return
		}
		fetcher, ok := fetchers[req.FetchMode]
		if !ok {
			respondError(c, models.NewCheckError(models.ErrCodeInvalidInput,
				fmt.Sprintf("fetch mode %q is not enabled on this server", req.FetchMode), nil), models.TimingInfo{})
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.URL, v.Profile().Name, req.FetchMode+"/"+req.Format, req.Regions)
		maxAge := time.Duration(req.MaxAge) * time.Second
		if cc != nil && maxAge > 0 {
			if cached, hit := cc.Get(cacheKey, maxAge); hit {
				out := *cached
				out.CacheStatus = "hit"
				out.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, out)
				return
			}
		}

		// ── 3. Fetch ────────────────────────────────────────────────
		captureStart := time.Now()
		result, err := fetcher.Fetch(c.Request.Context(), &engine.FetchRequest{
			URL:      req.URL,
			Headers:  req.Headers,
			Timeout:  time.Duration(req.Timeout) * time.Second,
			ProxyURL: req.ProxyURL,
		})
		captureMs := time.Since(captureStart).Milliseconds()
		if err != nil {
			notifyFailed(wh, &req, err)
			respondError(c, err, models.TimingInfo{
				TotalMs:   time.Since(totalStart).Milliseconds(),
				CaptureMs: captureMs,
			})
			return
		}
		snap, err := result.Snapshot()
		if err != nil {
			notifyFailed(wh, &req, err)
			respondError(c, err, models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds(), CaptureMs: captureMs})
			return
		}

		// ── 4. Validate ─────────────────────────────────────────────
		validationStart := time.Now()
		rep, err := v.Run(c.Request.Context(), snap, req.Regions...)
		validationMs := time.Since(validationStart).Milliseconds()
		if err != nil {
			err = runError(err)
			notifyFailed(wh, &req, err)
			respondError(c, err, models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				CaptureMs:    captureMs,
				ValidationMs: validationMs,
			})
			return
		}

		// ── 5. Render and respond ───────────────────────────────────
		resp, err := buildResponse(rep, req.Format)
		if err != nil {
			respondError(c, err, models.TimingInfo{})
			return
		}
		resp.Layout = snap.HasLayout()
		resp.StatusCode = result.StatusCode
		resp.FinalURL = result.FinalURL
		resp.EngineUsed = result.EngineName
		resp.Timing = models.TimingInfo{
			TotalMs:      time.Since(totalStart).Milliseconds(),
			CaptureMs:    captureMs,
			ValidationMs: validationMs,
		}

		if cc != nil && maxAge > 0 {
			resp.CacheStatus = "miss"
			cc.Set(cacheKey, resp)
		}

		notify(wh, &req, webhook.EventCompleted, resp.Passed, resp)

		c.JSON(http.StatusOK, resp)
	}
}

// ValidateHTML returns a handler for POST /api/v1/validate/html. The
// caller supplies the markup; layout checks run only if it carries data-sc-*
// annotations.
func ValidateHTML(v *region.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ValidateHTMLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewCheckError(models.ErrCodeInvalidInput, err.Error(), err), models.TimingInfo{})
			return
		}
		req.Defaults()
		if err := checkRegions(req.Regions); err != nil {
			respondError(c, err, models.TimingInfo{})
			return
		}

		snap, err := dom.Parse(req.HTML, dom.Meta{
			URL:      req.URL,
			Viewport: dom.Size{Width: float64(req.ViewportWidth), Height: float64(req.ViewportHeight)},
		})
		if err != nil {
			respondError(c, models.NewCheckError(models.ErrCodeInvalidInput, "unparseable HTML", err), models.TimingInfo{})
			return
		}

		validationStart := time.Now()
		rep, err := v.Run(c.Request.Context(), snap, req.Regions...)
		if err != nil {
			respondError(c, runError(err), models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()})
			return
		}
		resp, err := buildResponse(rep, req.Format)
		if err != nil {
			respondError(c, err, models.TimingInfo{})
			return
		}
		resp.Layout = snap.HasLayout()
		resp.FinalURL = req.URL
		resp.EngineUsed = "html"
		resp.Timing = models.TimingInfo{
			TotalMs:      time.Since(totalStart).Milliseconds(),
			ValidationMs: time.Since(validationStart).Milliseconds(),
		}
		c.JSON(http.StatusOK, resp)
	}
}

// notify posts an event to the request's webhook_url, if one was given.
func notify(wh *webhook.Notifier, req *models.ValidateRequest, typ string, passed bool, data any) {
	if wh == nil || req.WebhookURL == "" {
		return
	}
	wh.DeliverAsync(req.WebhookURL, &webhook.Event{
		Type:      typ,
		URL:       req.URL,
		Passed:    passed,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
}

// notifyFailed reports a validation that could not complete.
func notifyFailed(wh *webhook.Notifier, req *models.ValidateRequest, err error) {
	notify(wh, req, webhook.EventFailed, false, asCheckError(err).ToDetail())
}

func checkRegions(regions []string) error {
	for _, r := range regions {
		if !region.Known(r) {
			return models.NewCheckError(models.ErrCodeInvalidInput, fmt.Sprintf("unknown region %q", r), nil)
		}
	}
	return nil
}

// runError maps a validator error: an interrupted run is a timeout,
// anything else is internal.
func runError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewCheckError(models.ErrCodeTimeout, "validation interrupted", err)
	}
	return models.NewCheckError(models.ErrCodeInternal, "validation failed", err)
}

func buildResponse(rep *report.Report, format string) (*models.ValidateResponse, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, models.NewCheckError(models.ErrCodeInternal, "encode report", err)
	}
	resp := &models.ValidateResponse{
		Success: true,
		Passed:  rep.AllPassed(),
		Report:  raw,
	}
	if format == "markdown" {
		md, err := rep.Markdown()
		if err != nil {
			return nil, models.NewCheckError(models.ErrCodeInternal, "render report", err)
		}
		resp.Markdown = md
	}
	return resp, nil
}

// respondError maps a CheckError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	checkErr := asCheckError(err)
	c.JSON(mapErrorToStatus(checkErr), models.ValidateResponse{
		Success: false,
		Error:   checkErr.ToDetail(),
		Timing:  timing,
	})
}

func asCheckError(err error) *models.CheckError {
	var checkErr *models.CheckError
	if !errors.As(err, &checkErr) {
		checkErr = models.NewCheckError(models.ErrCodeInternal, err.Error(), err)
	}
	return checkErr
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.CheckError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}

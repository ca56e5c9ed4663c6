package models

import "encoding/json"

// ValidateResponse is the response for the validate endpoints.
type ValidateResponse struct {
	// Success indicates whether capture and validation ran. It says nothing
	// about the verdict; see Passed.
	Success bool `json:"success"`

	// Passed is true when no check failed.
	Passed bool `json:"passed"`

	// StatusCode is the HTTP status code of the validated page (0 for
	// caller-supplied HTML).
	StatusCode int `json:"status_code,omitempty"`

	// FinalURL is the URL after following all redirects.
	FinalURL string `json:"final_url,omitempty"`

	// Report is the full validation report.
	Report json.RawMessage `json:"report,omitempty"`

	// Markdown is the rendered report, set when format is "markdown".
	Markdown string `json:"markdown,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the report was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Layout is true when the snapshot carried rendered geometry. Without it
	// position, dimension and responsiveness checks are skipped and
	// visibility is judged from the markup alone.
	Layout bool `json:"layout"`

	// EngineUsed indicates which engine produced the snapshot
	// ("http", "rod", "html").
	EngineUsed string `json:"engine_used,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// CaptureMs is the time spent obtaining and annotating the page.
	CaptureMs int64 `json:"capture_ms"`

	// ValidationMs is the time spent running the checks.
	ValidationMs int64 `json:"validation_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages     int `json:"max_pages"`
	ActivePages  int `json:"active_pages"`
	RetiredPages int `json:"retired_pages"`
	BrowserPID   int `json:"browser_pid"`
}

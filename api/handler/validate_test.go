package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sitecheck/cache"
	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/engine"
	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/region"
	"github.com/use-agent/sitecheck/report"
	"github.com/use-agent/sitecheck/webhook"
)

const rwthPage = `<html><head><title>RWTH Aachen University</title></head><body><p>Willkommen</p></body></html>`

type stubEngine struct {
	html  string
	err   error
	calls atomic.Int32
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &engine.FetchResult{
		HTML:       s.html,
		StatusCode: 200,
		FinalURL:   req.URL,
		EngineName: s.Name(),
	}, nil
}

func newTestRouter(fetchers Fetchers, cc *cache.Cache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	v := region.New(config.DefaultProfile())
	r := gin.New()
	r.POST("/validate", Validate(fetchers, v, cc, nil))
	r.POST("/validate/html", ValidateHTML(v))
	r.GET("/health", Health(func() models.PoolStats { return models.PoolStats{MaxPages: 5, ActivePages: 5} }, time.Now()))
	return r
}

func post(t *testing.T, r http.Handler, path string, body any) (*httptest.ResponseRecorder, models.ValidateResponse) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp models.ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestValidate_Passes(t *testing.T) {
	stub := &stubEngine{html: rwthPage}
	r := newTestRouter(Fetchers{"browser": stub}, nil)

	w, resp := post(t, r, "/validate", map[string]any{
		"url":     "https://www.rwth-aachen.de/",
		"regions": []string{"title"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.True(t, resp.Passed)
	assert.Equal(t, "stub", resp.EngineUsed)
	assert.Equal(t, 200, resp.StatusCode)
	assert.False(t, resp.Layout, "plain markup carries no geometry")
	assert.Empty(t, resp.Markdown)

	var rep report.Report
	require.NoError(t, json.Unmarshal(resp.Report, &rep))
	assert.Len(t, rep.ByRegion(region.Title), 2)
}

func TestValidate_FailingVerdictIsStill200(t *testing.T) {
	stub := &stubEngine{html: `<html><head><title>Example</title></head><body></body></html>`}
	r := newTestRouter(Fetchers{"browser": stub}, nil)

	w, resp := post(t, r, "/validate", map[string]any{
		"url":     "https://example.org/",
		"regions": []string{"title"},
		"format":  "markdown",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.False(t, resp.Passed)
	assert.Contains(t, resp.Markdown, "title")
}

func TestValidate_BadRequests(t *testing.T) {
	r := newTestRouter(Fetchers{"browser": &stubEngine{html: rwthPage}}, nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing url", map[string]any{}},
		{"invalid url", map[string]any{"url": "not a url"}},
		{"unknown region", map[string]any{"url": "https://a.de/", "regions": []string{"sidebar"}}},
		{"disabled fetch mode", map[string]any{"url": "https://a.de/", "fetch_mode": "http"}},
		{"bad format", map[string]any{"url": "https://a.de/", "format": "pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := post(t, r, "/validate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, models.ErrCodeInvalidInput, resp.Error.Code)
		})
	}
}

func TestValidate_FetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"timeout", models.NewCheckError(models.ErrCodeTimeout, "slow", nil), http.StatusGatewayTimeout, models.ErrCodeTimeout},
		{"navigation", models.NewCheckError(models.ErrCodeNavigation, "dns", nil), http.StatusBadGateway, models.ErrCodeNavigation},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, models.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(Fetchers{"browser": &stubEngine{err: tt.err}}, nil)
			w, resp := post(t, r, "/validate", map[string]any{"url": "https://a.de/"})
			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestValidate_Cache(t *testing.T) {
	stub := &stubEngine{html: rwthPage}
	r := newTestRouter(Fetchers{"browser": stub}, cache.New(10, time.Minute))
	body := map[string]any{"url": "https://www.rwth-aachen.de/", "regions": []string{"title"}, "max_age": 60}

	_, first := post(t, r, "/validate", body)
	assert.Equal(t, "miss", first.CacheStatus)

	_, second := post(t, r, "/validate", body)
	assert.Equal(t, "hit", second.CacheStatus)
	assert.True(t, second.Passed)
	assert.Equal(t, int32(1), stub.calls.Load())

	_, _ = post(t, r, "/validate", map[string]any{"url": "https://www.rwth-aachen.de/", "regions": []string{"title"}})
	assert.Equal(t, int32(2), stub.calls.Load(), "requests without max_age bypass the cache")
}

func TestValidate_Webhook(t *testing.T) {
	tests := []struct {
		name       string
		stub       *stubEngine
		wantType   string
		wantPassed bool
	}{
		{"completed", &stubEngine{html: rwthPage}, webhook.EventCompleted, true},
		{"fetch failed", &stubEngine{err: models.NewCheckError(models.ErrCodeNavigation, "dns", nil)}, webhook.EventFailed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make(chan webhook.Event, 1)
			hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var ev webhook.Event
				if err := json.NewDecoder(r.Body).Decode(&ev); err == nil {
					got <- ev
				}
			}))
			defer hook.Close()

			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.POST("/validate", Validate(Fetchers{"browser": tt.stub}, region.New(config.DefaultProfile()), nil, webhook.New("", time.Second)))

			_, _ = post(t, r, "/validate", map[string]any{
				"url":         "https://www.rwth-aachen.de/",
				"regions":     []string{"title"},
				"webhook_url": hook.URL,
			})

			select {
			case ev := <-got:
				assert.Equal(t, tt.wantType, ev.Type)
				assert.Equal(t, tt.wantPassed, ev.Passed)
				assert.Equal(t, "https://www.rwth-aachen.de/", ev.URL)
			case <-time.After(5 * time.Second):
				t.Fatal("no webhook event delivered")
			}
		})
	}
}

func TestValidateHTML(t *testing.T) {
	r := newTestRouter(nil, nil)

	w, resp := post(t, r, "/validate/html", map[string]any{
		"html":    rwthPage,
		"regions": []string{"title", "header"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "html", resp.EngineUsed)

	var rep report.Report
	require.NoError(t, json.Unmarshal(resp.Report, &rep))
	assert.NotEmpty(t, rep.ByRegion(region.Header))

	w, _ = post(t, r, "/validate/html", map[string]any{"regions": []string{"title"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateHTML_LayoutFlag(t *testing.T) {
	r := newTestRouter(nil, nil)
	annotated := `<html><head><title>RWTH</title></head><body>` +
		`<header data-sc-box="0,0,1920,120" data-sc-visible="1">RWTH Aachen University</header></body></html>`

	_, resp := post(t, r, "/validate/html", map[string]any{"html": annotated, "regions": []string{"header"}})
	assert.True(t, resp.Layout)

	var rep report.Report
	require.NoError(t, json.Unmarshal(resp.Report, &rep))
	for _, o := range rep.ByRegion(region.Header) {
		if o.Category == report.Dimensions {
			assert.Equal(t, report.StatusPass, o.Status, o.Reason)
		}
	}
}

func TestHealth_Degraded(t *testing.T) {
	r := newTestRouter(nil, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, Version, resp.Version)
}

package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	name  string
	delay time.Duration
	err   error
	calls atomic.Int32
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls.Add(1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.delay):
	}
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{HTML: "<html></html>", FinalURL: req.URL, EngineName: f.name}, nil
}

func TestDispatch_FirstEngineWins(t *testing.T) {
	fast := &fakeEngine{name: "http"}
	slow := &fakeEngine{name: "rod"}
	d := NewDispatcher([]Engine{fast, slow}, []time.Duration{0, time.Minute}, nil)

	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.rwth-aachen.de/"})
	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
	assert.Zero(t, slow.calls.Load(), "the browser must not start")
}

func TestDispatch_FailureEscalatesWithoutWaiting(t *testing.T) {
	failing := &fakeEngine{name: "http", err: ErrNeedsRendering}
	browser := &fakeEngine{name: "rod"}
	d := NewDispatcher([]Engine{failing, browser}, []time.Duration{0, time.Minute}, nil)

	start := time.Now()
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.rwth-aachen.de/"})
	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestDispatch_AllFail(t *testing.T) {
	e1 := errors.New("tls handshake")
	e2 := errors.New("browser gone")
	d := NewDispatcher([]Engine{
		&fakeEngine{name: "http", err: e1},
		&fakeEngine{name: "rod", err: e2},
	}, []time.Duration{0, 0}, nil)

	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.org"})
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
}

func TestDispatch_NoEngines(t *testing.T) {
	_, err := NewDispatcher(nil, nil, nil).Dispatch(context.Background(), &FetchRequest{URL: "https://example.org"})
	assert.Error(t, err)
}

func TestDispatch_RemembersWinner(t *testing.T) {
	mem := NewDomainMemory(time.Minute)
	failing := &fakeEngine{name: "http", err: ErrNeedsRendering}
	browser := &fakeEngine{name: "rod"}
	d := NewDispatcher([]Engine{failing, browser}, []time.Duration{0, 0}, mem)

	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.rwth-aachen.de/a"})
	require.NoError(t, err)
	assert.Equal(t, "rod", mem.Get("www.rwth-aachen.de"))

	callsBefore := failing.calls.Load()
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.rwth-aachen.de/b"})
	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Equal(t, callsBefore, failing.calls.Load(), "remembered engine goes first and alone")
}

func TestDomainMemory_NilSafe(t *testing.T) {
	var dm *DomainMemory
	dm.Set("a", "rod")
	assert.Equal(t, "", dm.Get("a"))
	assert.Zero(t, dm.Len())
}

func TestRodEngine(t *testing.T) {
	var seen FetchRequest
	e := NewRodEngine(func(_ context.Context, req *FetchRequest) (*FetchResult, error) {
		seen = *req
		return &FetchResult{HTML: "<p></p>"}, nil
	}, true)

	req := &FetchRequest{URL: "https://example.org"}
	res, err := e.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "rod-stealth", res.EngineName)
	assert.True(t, seen.Stealth)
	assert.False(t, req.Stealth, "caller's request is not mutated")

	_, err = NewRodEngine(nil, false).Fetch(context.Background(), req)
	assert.ErrorContains(t, err, "rod")
}

func TestHTTPEngine(t *testing.T) {
	article := `<html lang="de"><head><title>RWTH Aachen University</title></head><body><main><p>` +
		strings.Repeat("Die RWTH Aachen ist eine Technische Hochschule. ", 10) +
		`</p></main><footer>© RWTH</footer></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/empty":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><div id="app"></div><script src="/app.js"></script></body></html>`))
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(article))
		}
	}))
	defer srv.Close()

	e := NewHTTPEngine(5 * time.Second)

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, "RWTH Aachen University", res.Title)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "http", res.EngineName)

	s, err := res.Snapshot()
	require.NoError(t, err)
	assert.False(t, s.HasLayout())
	assert.Equal(t, srv.URL+"/", s.URL())

	_, err = e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/empty"})
	assert.ErrorIs(t, err, ErrNeedsRendering)

	_, err = e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/json"})
	assert.ErrorContains(t, err, "non-html")

	_, err = e.Fetch(context.Background(), &FetchRequest{URL: srv.URL, ProxyURL: "http://proxy:3128"})
	assert.Error(t, err)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{`<html><head><title> RWTH </title></head></html>`, "RWTH"},
		{`<html><head><title></title></head></html>`, ""},
		{`<p>no title</p>`, ""},
	}
	for _, tt := range tests {
		if got := extractTitle(tt.in); got != tt.want {
			t.Errorf("extractTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

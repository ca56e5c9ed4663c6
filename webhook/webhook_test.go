package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_Signed(t *testing.T) {
	type received struct {
		sig  string
		body []byte
	}
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{sig: r.Header.Get(SignatureHeader), body: body}
	}))
	defer srv.Close()

	n := New("s3cret", time.Second)
	err := n.Deliver(context.Background(), srv.URL, &Event{Type: EventCompleted, URL: "https://www.rwth-aachen.de/", Passed: true})
	require.NoError(t, err)

	r := <-got
	var gotEvent Event
	require.NoError(t, json.Unmarshal(r.body, &gotEvent))
	assert.Equal(t, Sign("s3cret", r.body), r.sig)
	assert.Equal(t, EventCompleted, gotEvent.Type)
	assert.True(t, gotEvent.Passed)
}

func TestDeliver_UnsignedWithoutSecret(t *testing.T) {
	var gotSig atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig.Store(r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	require.NoError(t, New("", time.Second).Deliver(context.Background(), srv.URL, &Event{Type: EventFailed}))
	assert.Equal(t, "", gotSig.Load())
}

func TestDeliverAsync_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	n := New("", time.Second)
	n.retries = []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}

	select {
	case err := <-n.DeliverAsync(srv.URL, &Event{Type: EventCompleted}):
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not finish")
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliverAsync_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New("", time.Second)
	n.retries = []time.Duration{0, 0}

	err := <-n.DeliverAsync(srv.URL, &Event{Type: EventCompleted})
	assert.ErrorContains(t, err, "status 500")
}

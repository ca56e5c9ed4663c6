package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event types.
const (
	EventCompleted = "validation.completed"
	EventFailed    = "validation.failed"
)

// SignatureHeader carries "sha256=<hex>" of the body when a secret is set.
const SignatureHeader = "X-Sitecheck-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	Passed    bool   `json:"passed"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Notifier delivers events. The zero value is not usable; use New.
type Notifier struct {
	secret  string
	client  *http.Client
	retries []time.Duration
}

// New creates a Notifier. Each attempt is bounded by timeout.
func New(secret string, timeout time.Duration) *Notifier {
	return &Notifier{
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
		retries: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends an event synchronously.
func (n *Notifier) Deliver(ctx context.Context, url string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Sitecheck-Webhook/1.0")
	if n.secret != "" {
		req.Header.Set(SignatureHeader, Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends an event in the background, retrying after 1s, 5s
// and 30s. The returned channel receives the final error (nil on success)
// and is then closed.
func (n *Notifier) DeliverAsync(url string, event *Event) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		var err error
		for attempt, delay := range n.retries {
			if delay > 0 {
				time.Sleep(delay)
			}
			err = n.Deliver(context.Background(), url, event)
			if err == nil {
				slog.Info("webhook delivered", "url", url, "event", event.Type, "attempt", attempt+1)
				done <- nil
				return
			}
			slog.Warn("webhook delivery failed", "url", url, "event", event.Type, "attempt", attempt+1, "error", err)
		}
		slog.Error("webhook delivery exhausted all retries", "url", url, "event", event.Type)
		done <- err
	}()
	return done
}

// Package analytics is the behavioral analytics notifier. Events are
// fire-and-observe: every failure is logged and swallowed, so a collector
// outage can never fail or slow a registration.
package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/estate-intake/internal/config"
	"github.com/ignite/estate-intake/internal/pkg/logger"
)

const (
	capturePath   = "/capture/"
	identifyEvent = "$identify"
	anonymousID   = "anonymous"
)

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client sends capture/identify calls to a PostHog-compatible collector.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient HTTPDoer
}

// NewClient creates a new analytics client. An empty API key leaves the
// client in skip mode.
func NewClient(cfg config.AnalyticsConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// IsConfigured returns true if the collector API key is set.
func (c *Client) IsConfigured() bool { return c.apiKey != "" }

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client HTTPDoer) { c.httpClient = client }

type captureMessage struct {
	APIKey     string         `json:"api_key"`
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  string         `json:"timestamp"`
	UUID       string         `json:"uuid"`
}

// Capture emits one server-side event correlated with the visitor's
// client-side identity. An empty distinctID falls back to the anonymous
// sentinel.
func (c *Client) Capture(distinctID, event string, props map[string]any) {
	if !c.IsConfigured() {
		logger.Warn("analytics: api key not configured, dropping event", "event", event)
		return
	}
	c.post(captureMessage{
		APIKey:     c.apiKey,
		Event:      event,
		DistinctID: orAnonymous(distinctID),
		Properties: props,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		UUID:       uuid.NewString(),
	})
}

// Identify attaches person properties to the visitor's distinct id.
func (c *Client) Identify(distinctID string, set map[string]any) {
	if !c.IsConfigured() {
		logger.Warn("analytics: api key not configured, dropping identify")
		return
	}
	c.post(captureMessage{
		APIKey:     c.apiKey,
		Event:      identifyEvent,
		DistinctID: orAnonymous(distinctID),
		Properties: map[string]any{"$set": set},
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		UUID:       uuid.NewString(),
	})
}

func (c *Client) post(msg captureMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		logger.Error("analytics: marshal event", "event", msg.Event, "err", err.Error())
		return
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint+capturePath, bytes.NewReader(body))
	if err != nil {
		logger.Error("analytics: create request", "event", msg.Event, "err", err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("analytics: capture request failed", "event", msg.Event, "err", err.Error())
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		logger.Error("analytics: collector rejected event",
			"event", msg.Event, "status", fmt.Sprintf("%d", resp.StatusCode))
	}
}

func orAnonymous(distinctID string) string {
	if distinctID == "" {
		return anonymousID
	}
	return distinctID
}

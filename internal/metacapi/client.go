// Package metacapi relays conversion events to Meta's server-side
// Conversions API, complementing the browser pixel. The shared event id
// lets Meta merge the pixel and server reports of the same conversion
// into one. All sends are best-effort.
package metacapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/estate-intake/internal/config"
	"github.com/ignite/estate-intake/internal/intake"
	"github.com/ignite/estate-intake/internal/pkg/logger"
)

const defaultBaseURL = "https://graph.facebook.com"

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts server events to graph.facebook.com/{version}/{pixel}/events.
type Client struct {
	pixelID       string
	accessToken   string
	testEventCode string
	apiVersion    string
	baseURL       string
	httpClient    HTTPDoer
	now           func() time.Time
}

// NewClient creates a new Conversions API client. An empty access token
// leaves the client in skip mode; that is a degraded deployment, not an
// error.
func NewClient(cfg config.MetaCAPIConfig) *Client {
	return &Client{
		pixelID:       cfg.PixelID,
		accessToken:   cfg.AccessToken,
		testEventCode: cfg.TestEventCode,
		apiVersion:    cfg.APIVersion,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: cfg.Timeout()},
		now:           time.Now,
	}
}

// IsConfigured returns true if the access token is set.
func (c *Client) IsConfigured() bool { return c.accessToken != "" }

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client HTTPDoer) { c.httpClient = client }

// SetBaseURL overrides the Graph API endpoint (useful for testing).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type serverEvent struct {
	EventName      string         `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id"`
	ActionSource   string         `json:"action_source"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       userData       `json:"user_data"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
}

type userData struct {
	Email           string `json:"em,omitempty"`
	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
	Country         string `json:"country,omitempty"`
}

type eventsRequest struct {
	Data          []serverEvent `json:"data"`
	AccessToken   string        `json:"access_token"`
	TestEventCode string        `json:"test_event_code,omitempty"`
}

type eventsResponse struct {
	EventsReceived int `json:"events_received"`
}

// Send relays one conversion. The registrant email is hashed before the
// payload is built; the plaintext address never appears in the outbound
// body. Failures are logged and swallowed.
func (c *Client) Send(ctx context.Context, conv intake.Conversion) {
	if !c.IsConfigured() {
		logger.Warn("meta capi: access token not configured, skipping event", "event_name", conv.EventName)
		return
	}
	if conv.EventID == "" {
		// Without the browser token the pixel and server events cannot
		// be merged, so sending would double-count the conversion.
		logger.Warn("meta capi: missing event id, skipping event", "event_name", conv.EventName)
		return
	}

	ev := serverEvent{
		EventName:      conv.EventName,
		EventTime:      c.now().Unix(),
		EventID:        conv.EventID,
		ActionSource:   "website",
		EventSourceURL: conv.SourceURL,
		UserData: userData{
			Email:           HashValue(conv.Email),
			ClientIPAddress: conv.IPAddress,
			ClientUserAgent: conv.UserAgent,
		},
		CustomData: conv.CustomData,
	}
	// Meta expects a lowercase 2-letter ISO code; the Unknown sentinel is
	// omitted entirely.
	if conv.Country != "" && conv.Country != intake.UnknownCountry {
		ev.UserData.Country = strings.ToLower(conv.Country)
	}

	body, err := json.Marshal(eventsRequest{
		Data:          []serverEvent{ev},
		AccessToken:   c.accessToken,
		TestEventCode: c.testEventCode,
	})
	if err != nil {
		logger.Error("meta capi: marshal event", "err", err.Error())
		return
	}

	endpoint := fmt.Sprintf("%s/%s/%s/events", c.baseURL, c.apiVersion, c.pixelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Error("meta capi: create request", "err", err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("meta capi: request failed", "event_id", conv.EventID, "err", err.Error())
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		logger.Error("meta capi: events rejected",
			"event_id", conv.EventID, "status", resp.StatusCode, "body", string(respBody))
		return
	}

	var parsed eventsResponse
	if err := json.Unmarshal(respBody, &parsed); err == nil {
		logger.Debug("meta capi: event sent",
			"event_name", conv.EventName, "event_id", conv.EventID,
			"events_received", parsed.EventsReceived)
	}
}

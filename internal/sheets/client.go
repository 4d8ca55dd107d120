// Package sheets is the registration store client: it appends one row per
// accepted lead to a shared Google Sheet, authenticated with a
// service-account JWT grant.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"github.com/ignite/estate-intake/internal/config"
	"github.com/ignite/estate-intake/internal/intake"
)

const (
	defaultBaseURL   = "https://sheets.googleapis.com"
	spreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"
)

// ErrNotConfigured is returned when the service-account credentials or
// spreadsheet id are missing. Without the durable store a registration
// cannot be accepted, so this aborts the whole request.
var ErrNotConfigured = errors.New("sheets: service account credentials not configured")

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client appends registration rows to a Google Sheet.
type Client struct {
	email         string
	privateKey    string
	spreadsheetID string
	appendRange   string
	baseURL       string
	timeout       time.Duration

	mu         sync.Mutex
	httpClient HTTPDoer
}

// NewClient creates a new Sheets store client. The authenticated HTTP
// client is built lazily on first use and reused across requests.
func NewClient(cfg config.SheetsConfig) *Client {
	return &Client{
		email:         cfg.ServiceAccountEmail,
		privateKey:    cfg.PrivateKey,
		spreadsheetID: cfg.SpreadsheetID,
		appendRange:   cfg.Range,
		baseURL:       defaultBaseURL,
		timeout:       cfg.Timeout(),
	}
}

// IsConfigured returns true if credentials and spreadsheet id are set.
func (c *Client) IsConfigured() bool {
	return c.email != "" && c.privateKey != "" && c.spreadsheetID != ""
}

// SetHTTPClient sets a custom HTTP client, bypassing the OAuth transport
// (useful for testing).
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpClient = client
}

// SetBaseURL overrides the Sheets API endpoint (useful for testing).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

func (c *Client) client() HTTPDoer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		conf := &jwt.Config{
			Email:      c.email,
			PrivateKey: []byte(ParsePrivateKey(c.privateKey)),
			Scopes:     []string{spreadsheetScope},
			TokenURL:   google.JWTTokenURL,
		}
		// Token refresh runs on a background context so the cached
		// client outlives the request that first built it.
		cl := conf.Client(context.Background())
		cl.Timeout = c.timeout
		c.httpClient = cl
	}
	return c.httpClient
}

type appendRequest struct {
	Values [][]string `json:"values"`
}

// Append writes one row [email, timestamp, utm campaign, country] to the
// configured range. The Sheets API inserts appended rows atomically, so
// concurrent registrations never clobber each other; this client adds no
// locking of its own and never retries.
func (c *Client) Append(ctx context.Context, rec intake.Record) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	row := []string{rec.Email, rec.Timestamp, rec.UTMCampaign, rec.Country}
	body, err := json.Marshal(appendRequest{Values: [][]string{row}})
	if err != nil {
		return fmt.Errorf("sheets: marshal append request: %w", err)
	}

	endpoint := fmt.Sprintf(
		"%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(c.appendRange),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sheets: create append request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("sheets: append request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sheets: append error (status %d): %s", resp.StatusCode, string(respBody))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}

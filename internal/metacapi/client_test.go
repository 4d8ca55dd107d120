package metacapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/estate-intake/internal/config"
	"github.com/ignite/estate-intake/internal/intake"
)

func testConfig() config.MetaCAPIConfig {
	return config.MetaCAPIConfig{
		PixelID:        "pixel-1",
		AccessToken:    "token-abc",
		APIVersion:     "v21.0",
		TimeoutSeconds: 5,
	}
}

// decoded payload shapes; maps keep absent-field assertions honest.
type capturedRequest struct {
	path string
	body map[string]any
}

func newCaptureServer(t *testing.T, captured *[]capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*captured = append(*captured, capturedRequest{path: r.URL.Path, body: body})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"events_received":1}`))
	}))
}

func firstEvent(t *testing.T, req capturedRequest) map[string]any {
	t.Helper()
	data, ok := req.body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	ev, ok := data[0].(map[string]any)
	require.True(t, ok)
	return ev
}

func sha256hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestSendHashesEmail(t *testing.T) {
	var captured []capturedRequest
	server := newCaptureServer(t, &captured)
	defer server.Close()

	client := NewClient(testConfig())
	client.SetBaseURL(server.URL)
	client.SetHTTPClient(server.Client())

	client.Send(context.Background(), intake.Conversion{
		EventName: "Lead",
		EventID:   "evt-1",
		Email:     "person@example.com",
	})

	require.Len(t, captured, 1)
	assert.Equal(t, "/v21.0/pixel-1/events", captured[0].path)
	assert.Equal(t, "token-abc", captured[0].body["access_token"])

	ev := firstEvent(t, captured[0])
	assert.Equal(t, "Lead", ev["event_name"])
	assert.Equal(t, "evt-1", ev["event_id"])
	assert.Equal(t, "website", ev["action_source"])

	userData, ok := ev["user_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, sha256hex("person@example.com"), userData["em"])
	assert.NotContains(t, userData["em"], "@", "raw email must never leave the process")
}

func TestSendNormalizesEmailBeforeHashing(t *testing.T) {
	var captured []capturedRequest
	server := newCaptureServer(t, &captured)
	defer server.Close()

	client := NewClient(testConfig())
	client.SetBaseURL(server.URL)
	client.SetHTTPClient(server.Client())

	client.Send(context.Background(), intake.Conversion{
		EventName: "Lead",
		EventID:   "evt-1",
		Email:     "  Person@Example.COM  ",
	})

	require.Len(t, captured, 1)
	userData := firstEvent(t, captured[0])["user_data"].(map[string]any)
	assert.Equal(t, sha256hex("person@example.com"), userData["em"])
}

func TestSendCountryHandling(t *testing.T) {
	tests := []struct {
		name        string
		country     string
		wantPresent bool
		want        string
	}{
		{"known country lowercased", "NZ", true, "nz"},
		{"already lowercase", "de", true, "de"},
		{"unknown sentinel omitted", intake.UnknownCountry, false, ""},
		{"empty omitted", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured []capturedRequest
			server := newCaptureServer(t, &captured)
			defer server.Close()

			client := NewClient(testConfig())
			client.SetBaseURL(server.URL)
			client.SetHTTPClient(server.Client())

			client.Send(context.Background(), intake.Conversion{
				EventName: "Lead",
				EventID:   "evt-1",
				Email:     "person@example.com",
				Country:   tt.country,
			})

			require.Len(t, captured, 1)
			userData := firstEvent(t, captured[0])["user_data"].(map[string]any)
			got, present := userData["country"]
			assert.Equal(t, tt.wantPresent, present)
			if tt.wantPresent {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSendIncludesTestEventCode(t *testing.T) {
	var captured []capturedRequest
	server := newCaptureServer(t, &captured)
	defer server.Close()

	cfg := testConfig()
	cfg.TestEventCode = "TEST123"
	client := NewClient(cfg)
	client.SetBaseURL(server.URL)
	client.SetHTTPClient(server.Client())

	client.Send(context.Background(), intake.Conversion{EventName: "Lead", EventID: "evt-1", Email: "a@b.co"})

	require.Len(t, captured, 1)
	assert.Equal(t, "TEST123", captured[0].body["test_event_code"])
}

func TestSendOmitsTestEventCodeWhenUnset(t *testing.T) {
	var captured []capturedRequest
	server := newCaptureServer(t, &captured)
	defer server.Close()

	client := NewClient(testConfig())
	client.SetBaseURL(server.URL)
	client.SetHTTPClient(server.Client())

	client.Send(context.Background(), intake.Conversion{EventName: "Lead", EventID: "evt-1", Email: "a@b.co"})

	require.Len(t, captured, 1)
	_, present := captured[0].body["test_event_code"]
	assert.False(t, present)
}

func TestSendSkippedWithoutAccessToken(t *testing.T) {
	var captured []capturedRequest
	server := newCaptureServer(t, &captured)
	defer server.Close()

	cfg := testConfig()
	cfg.AccessToken = ""
	client := NewClient(cfg)
	client.SetBaseURL(server.URL)
	client.SetHTTPClient(server.Client())

	// Must not panic, must not call out.
	client.Send(context.Background(), intake.Conversion{EventName: "Lead", EventID: "evt-1", Email: "a@b.co"})

	assert.Empty(t, captured)
}

func TestSendSkippedWithoutEventID(t *testing.T) {
	var captured []capturedRequest
	server := newCaptureServer(t, &captured)
	defer server.Close()

	client := NewClient(testConfig())
	client.SetBaseURL(server.URL)
	client.SetHTTPClient(server.Client())

	client.Send(context.Background(), intake.Conversion{EventName: "Lead", Email: "a@b.co"})

	assert.Empty(t, captured)
}

func TestSendSwallowsRemoteErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad token"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig())
	client.SetBaseURL(server.URL)
	client.SetHTTPClient(server.Client())

	// Must not panic or surface anything.
	client.Send(context.Background(), intake.Conversion{EventName: "Lead", EventID: "evt-1", Email: "a@b.co"})
}

func TestHashValue(t *testing.T) {
	assert.Equal(t, sha256hex("person@example.com"), HashValue("Person@Example.COM"))
	assert.Equal(t, HashValue("a@b.co"), HashValue(" A@B.CO "), "hash is deterministic under normalization")
	assert.Len(t, HashValue("a@b.co"), 64)
}

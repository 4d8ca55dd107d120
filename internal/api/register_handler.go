package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/estate-intake/internal/intake"
	"github.com/ignite/estate-intake/internal/pkg/httputil"
)

// retryMessage is the only failure detail a client ever sees for server
// side problems.
const retryMessage = "Failed to register. Please try again."

type registerPayload struct {
	Email       any    `json:"email"`
	UTMCampaign string `json:"utmCampaign"`
	EventID     string `json:"eventId"`
}

// HandleRegister handles POST /api/register: decode, run the pipeline,
// map the outcome to a client-facing result.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		// An unreadable body carries no email at all.
		httputil.BadRequest(w, "Email is required")
		return
	}

	req := intake.Request{
		Email:       payload.Email,
		UTMCampaign: payload.UTMCampaign,
		EventID:     payload.EventID,
		Meta: intake.RequestMeta{
			DistinctID: r.Header.Get("X-Distinct-Id"),
			IPAddress:  realIP(r),
			UserAgent:  r.UserAgent(),
			SourceURL:  r.Referer(),
			Country:    countryCode(r),
		},
	}

	if err := h.svc.Register(r.Context(), req); err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			httputil.BadRequest(w, verr.Message)
			return
		}
		httputil.Error(w, http.StatusInternalServerError, retryMessage)
		return
	}

	httputil.OK(w, httputil.SuccessResponse{Success: true, Message: "Registration successful"})
}

// countryCode reads the edge geolocation header, falling back to the
// Unknown sentinel when absent (e.g. local development).
func countryCode(r *http.Request) string {
	if v := r.Header.Get("X-Vercel-Ip-Country"); v != "" {
		return v
	}
	if v := r.Header.Get("X-Country-Code"); v != "" {
		return v
	}
	return intake.UnknownCountry
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

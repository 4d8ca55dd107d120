package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/estate-intake/internal/pkg/logger"
)

// Store is the required durable sink; its failure fails the request.
type Store interface {
	Append(ctx context.Context, rec Record) error
}

// Analytics is the fire-and-observe event collector. Implementations
// swallow their own failures; calls never return errors.
type Analytics interface {
	Capture(distinctID, event string, props map[string]any)
	Identify(distinctID string, set map[string]any)
}

// ConversionRelay forwards a conversion event to the ad platform,
// best-effort.
type ConversionRelay interface {
	Send(ctx context.Context, conv Conversion)
}

// ErrInternal marks an unexpected pipeline failure recovered at the
// orchestrator boundary.
var ErrInternal = errors.New("intake: registration pipeline failure")

// Service orchestrates the intake pipeline:
// validate → append (required) → notify + relay (best-effort).
type Service struct {
	store     Store
	analytics Analytics
	relay     ConversionRelay
	dispatch  Dispatcher
	now       func() time.Time
}

// NewService creates the pipeline with its three sinks. Construct once at
// process start and inject; the collaborators carry no per-request state.
func NewService(store Store, analytics Analytics, relay ConversionRelay) *Service {
	return &Service{
		store:     store,
		analytics: analytics,
		relay:     relay,
		dispatch:  AsyncDispatch,
		now:       time.Now,
	}
}

// SetDispatcher replaces the best-effort dispatch policy (useful for testing).
func (s *Service) SetDispatcher(d Dispatcher) { s.dispatch = d }

// SetClock replaces the timestamp source (useful for testing).
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Register runs the pipeline for one submission.
//
// A *ValidationError return means the input never reached any sink. Any
// other error means the durable append failed (or something unexpected
// happened) after a registration_failed event was dispatched. Analytics
// and relay calls are dispatched only after the append attempt concluded;
// they report outcomes, not intents, and never gate the return.
func (s *Service) Register(ctx context.Context, req Request) (err error) {
	distinctID := req.Meta.DistinctID
	if distinctID == "" {
		distinctID = AnonymousDistinctID
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("registration pipeline panic", "panic", fmt.Sprintf("%v", r))
			s.dispatch("analytics.exception", func(ctx context.Context) {
				s.analytics.Capture(distinctID, EventException, map[string]any{
					"$exception_message": fmt.Sprintf("%v", r),
					"$exception_type":    "panic",
				})
			})
			err = ErrInternal
		}
	}()

	email, err := ValidateEmail(req.Email)
	if err != nil {
		return err
	}

	country := req.Meta.Country
	if country == "" {
		country = UnknownCountry
	}

	rec := Record{
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Timestamp:   s.now().UTC().Format(time.RFC3339),
		UTMCampaign: req.UTMCampaign,
		Country:     country,
	}

	if appendErr := s.store.Append(ctx, rec); appendErr != nil {
		logger.Error("registration append failed", "email", rec.Email, "err", appendErr.Error())
		s.dispatch("analytics.registration_failed", func(ctx context.Context) {
			s.analytics.Capture(distinctID, EventRegistrationFailed, map[string]any{
				"error": appendErr.Error(),
				"stage": "store_append",
			})
		})
		return fmt.Errorf("append registration: %w", appendErr)
	}

	props := map[string]any{
		"email_domain": emailDomain(rec.Email),
		"country":      rec.Country,
	}
	if req.UTMCampaign != "" {
		props["utm_campaign"] = req.UTMCampaign
	}
	s.dispatch("analytics.registration_submitted", func(ctx context.Context) {
		s.analytics.Capture(distinctID, EventRegistrationSubmitted, props)
		s.analytics.Identify(distinctID, map[string]any{
			"email":         rec.Email,
			"registered_at": rec.Timestamp,
		})
	})

	// Relay only when the browser supplied a dedup token. Inventing one
	// server-side would break pixel/server event correlation.
	if req.EventID != "" {
		conv := Conversion{
			EventName: LeadEventName,
			EventID:   req.EventID,
			Email:     rec.Email,
			IPAddress: req.Meta.IPAddress,
			UserAgent: req.Meta.UserAgent,
			Country:   rec.Country,
			SourceURL: req.Meta.SourceURL,
		}
		if req.UTMCampaign != "" {
			conv.CustomData = map[string]any{"utm_campaign": req.UTMCampaign}
		}
		s.dispatch("metacapi.lead", func(ctx context.Context) {
			s.relay.Send(ctx, conv)
		})
	}

	logger.Info("registration accepted", "email", rec.Email, "country", rec.Country)
	return nil
}

func emailDomain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[i+1:]
	}
	return ""
}

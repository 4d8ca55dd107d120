package intake

// Sentinels for absent transport context.
const (
	UnknownCountry      = "Unknown"
	AnonymousDistinctID = "anonymous"
)

// Server-side analytics event vocabulary.
const (
	EventRegistrationSubmitted = "registration_submitted"
	EventRegistrationFailed    = "registration_failed"
	EventException             = "$exception"
)

// LeadEventName is the conversion event relayed to the ad platform.
const LeadEventName = "Lead"

// Request is one enquiry-form submission plus its transport context.
// Email stays untyped until the validator has looked at it.
type Request struct {
	Email       any
	UTMCampaign string
	EventID     string // client dedup token; empty means "skip ad relay"
	Meta        RequestMeta
}

// RequestMeta carries the transport-layer context of a submission.
// All fields are optional.
type RequestMeta struct {
	DistinctID string
	IPAddress  string
	UserAgent  string
	SourceURL  string
	Country    string
}

// Record is the durable registration row. Created once per validated
// submission, appended once, never mutated.
type Record struct {
	Email       string // trimmed + lowercased
	Timestamp   string // RFC3339, server clock, UTC
	UTMCampaign string
	Country     string
}

// Conversion is one server-side ad-conversion event. Email is the
// normalized plaintext address; the relay hashes it before anything
// leaves the process.
type Conversion struct {
	EventName  string
	EventID    string
	Email      string
	IPAddress  string
	UserAgent  string
	Country    string
	SourceURL  string
	CustomData map[string]any
}

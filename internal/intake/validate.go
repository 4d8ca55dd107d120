package intake

import "regexp"

// ValidationError is a client-caused input rejection. Message is safe to
// return to the browser.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	errEmailRequired = &ValidationError{Field: "email", Message: "Email is required"}
	errEmailInvalid  = &ValidationError{Field: "email", Message: "Invalid email format"}
)

// Permissive local@domain.tld shape: one @, no whitespace, at least one
// dot after the @. A UX gate, not a deliverability check.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks a raw submitted value. On success it returns the
// string unmodified; normalization happens downstream. No side effects.
func ValidateEmail(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", errEmailRequired
	}
	if !emailPattern.MatchString(s) {
		return "", errEmailInvalid
	}
	return s, nil
}

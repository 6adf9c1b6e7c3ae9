package mateauth

import "errors"

// Sentinel errors for the recoverable conditions surfaced to handlers.
// Anything else coming out of a store is a persistence fault and is passed
// through unchanged.
var (
	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login failure. It deliberately does
	// not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoActiveSession is returned when a profile operation runs without a
	// logged-in session.
	ErrNoActiveSession = errors.New("no active session")

	// ErrMateNotFound is returned by stores when no record matches.
	ErrMateNotFound = errors.New("mate not found")

	// ErrNilProfile is returned when a federated login arrives without a profile.
	ErrNilProfile = errors.New("no federated profile supplied")
)

// Error codes used in JSON error payloads
const (
	ErrCodeInvalidCreds   = "invalid_credentials"
	ErrCodeEmailExists    = "email_exists"
	ErrCodeInvalidEmail   = "invalid_email"
	ErrCodeMissingField   = "missing_field"
	ErrCodeWeakPassword   = "weak_password"
	ErrCodeNotLoggedIn    = "not_logged_in"
	ErrCodeMissingProfile = "missing_profile"
)

// AuthError is a structured authentication error with a machine-readable code
// and the form field it relates to.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates a new AuthError
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

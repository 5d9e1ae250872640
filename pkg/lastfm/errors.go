package lastfm

import (
	"errors"
	"fmt"
)

// Error represents a failed Last.fm API call.
//
// It is returned when the API answers with a non-success HTTP status,
// with a JSON error envelope, or with a body that cannot be decoded.
// StatusCode is the HTTP status of the response, Code and Message are
// filled in from the error envelope when one was present.
type Error struct {
	StatusCode int    // HTTP status code of the response
	Code       int    // Last.fm error code (0 if none was returned)
	Message    string // Error message from Last.fm
	Err        error  // Underlying cause, if any
}

// Error returns the error message.
func (e *Error) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("lastfm: error %d: %s", e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("lastfm: status %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("lastfm: unexpected status code: %d", e.StatusCode)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the target error is a Last.fm error with the same code.
//
// This allows errors.Is() to work with *Error types.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != 0 {
		return e.Code == t.Code
	}
	return t.StatusCode != 0 && e.StatusCode == t.StatusCode
}

// Temporary returns true if Last.fm reported the service as temporarily
// unavailable.
//
// The following Last.fm error codes are considered temporary:
//   - 11: Service Offline - temporarily unavailable
//   - 16: Service Temporarily Unavailable
func (e *Error) Temporary() bool {
	switch e.Code {
	case ErrCodeServiceOffline, ErrCodeTempUnavailable:
		return true
	default:
		return false
	}
}

// Last.fm error codes the read-only chart and user methods can return.
const (
	ErrCodeInvalidService      = 2
	ErrCodeInvalidMethod       = 3
	ErrCodeInvalidFormat       = 5
	ErrCodeInvalidParameters   = 6
	ErrCodeInvalidResourceSpec = 7
	ErrCodeOperationFailed     = 8
	ErrCodeInvalidAPIKey       = 10
	ErrCodeServiceOffline      = 11
	ErrCodeTempUnavailable     = 16
	ErrCodeRateLimitExceeded   = 29
)

// Predefined errors for common cases.
var (
	// ErrUserNotFound is wrapped by *Error when the requested user does
	// not exist.
	ErrUserNotFound = errors.New("lastfm: user not found")

	// ErrDecode is wrapped by *Error when a response body does not match
	// the expected schema.
	ErrDecode = errors.New("lastfm: malformed response")

	// ErrInvalidMethod is returned by ParseMethod for unknown values.
	ErrInvalidMethod = errors.New("lastfm: invalid method")

	// ErrInvalidPeriod is returned by ParsePeriod for unknown values.
	ErrInvalidPeriod = errors.New("lastfm: invalid period")
)

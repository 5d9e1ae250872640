package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// errorEnvelope is the JSON body Last.fm sends for failed calls.
type errorEnvelope struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 16 << 20

// call makes a single GET request to the Last.fm API and decodes the
// JSON response into out.
//
// It handles:
// - Request construction with the api_key and format query parameters
// - Error envelopes and non-success HTTP statuses
// - Decoding failures, reported as *Error wrapping ErrDecode
// - Context cancellation
//
// There is no retry: a failed call is reported to the caller as is.
func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("lastfm: invalid base URL: %w", err)
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("method", method)
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	c.logDebugf("lastfm: calling %s", method)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", redact(err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", redact(err))
	}

	if apiErr := parseErrorEnvelope(resp.StatusCode, body); apiErr != nil {
		c.logDebugf("lastfm: %s failed: %v", method, apiErr)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %v", ErrDecode, err),
		}
	}

	c.logDebugf("lastfm: %s succeeded", method)
	return nil
}

// parseErrorEnvelope returns a non-nil *Error if the response describes
// a failure, either through its HTTP status or through a JSON error
// envelope on an otherwise successful response.
func parseErrorEnvelope(status int, body []byte) *Error {
	var env errorEnvelope
	hasEnvelope := json.Unmarshal(body, &env) == nil && env.Error != 0

	if status == http.StatusOK && !hasEnvelope {
		return nil
	}

	apiErr := &Error{StatusCode: status}
	if hasEnvelope {
		apiErr.Code = env.Error
		apiErr.Message = env.Message
	}

	if isUserNotFound(status, apiErr) {
		apiErr.Err = ErrUserNotFound
	}

	return apiErr
}

// isUserNotFound recognises the "no such user" answer. Last.fm uses
// error 6 (invalid parameters) for it, usually with a 404 status.
func isUserNotFound(status int, e *Error) bool {
	if e.Code == ErrCodeInvalidParameters && strings.Contains(strings.ToLower(e.Message), "user not found") {
		return true
	}
	return status == http.StatusNotFound && (e.Code == 0 || e.Code == ErrCodeInvalidParameters)
}

var apiKeyPattern = regexp.MustCompile(`api_key=[^&\s"]+`)

// redact strips the API key from errors that embed the request URL,
// such as *url.Error.
func redact(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "api_key=") {
		return err
	}
	return &redactedError{
		msg: apiKeyPattern.ReplaceAllString(msg, "api_key=REDACTED"),
		err: err,
	}
}

// redactedError keeps the original error reachable through errors.Is/As
// while hiding sensitive query parameters from its message.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/jfmyers9/songstitch/internal/collage"
	"github.com/jfmyers9/songstitch/pkg/lastfm"
)

// StatusClientClosedRequest is logged when the client went away before
// the collage was ready.
const StatusClientClosedRequest = 499

// ErrTooManyCells is returned when rows*columns exceeds the configured limit.
var ErrTooManyCells = errors.New("too many cells")

// errUpstream marks failures of the chart lookup.
var errUpstream = errors.New("upstream")

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify maps an error to an HTTP status and a machine readable code.
func classify(err error) (int, string) {
	var reqErr *RequestError
	var apiErr *lastfm.Error
	var netErr net.Error
	var encErr *collage.EncodeError

	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrTooManyCells):
		return http.StatusBadRequest, "too_many_cells"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "client_closed_request"
	case errors.As(err, &encErr):
		return http.StatusInternalServerError, "internal_error"
	case !errors.Is(err, errUpstream):
		return http.StatusInternalServerError, "internal_error"
	case errors.Is(err, lastfm.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.As(err, &apiErr) && apiErr.Temporary():
		return http.StatusServiceUnavailable, "upstream_unavailable"
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return http.StatusGatewayTimeout, "upstream_timeout"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

// upstreamFailure tags err as a chart lookup failure.
func upstreamFailure(err error) error {
	return fmt.Errorf("%w: %w", errUpstream, err)
}

// writeError logs err and answers with its status and a JSON body.
// Nothing is written for clients that already went away.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	logger := hlog.FromRequest(r)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Str("code", code).Msg("Collage request failed")

	if status == StatusClientClosedRequest {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code})
}

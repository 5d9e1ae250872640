package lastfm

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{StatusCode: 404, Code: ErrCodeInvalidParameters, Message: "User not found", Err: ErrUserNotFound})

	if !errors.Is(err, &Error{Code: ErrCodeInvalidParameters}) {
		t.Error("expected match on code")
	}
	if errors.Is(err, &Error{Code: ErrCodeInvalidAPIKey}) {
		t.Error("expected no match on a different code")
	}
	if !errors.Is(err, &Error{StatusCode: 404}) {
		t.Error("expected match on status code")
	}
	if !errors.Is(err, ErrUserNotFound) {
		t.Error("expected match on wrapped sentinel")
	}
}

func TestError_Temporary(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{ErrCodeServiceOffline, true},
		{ErrCodeTempUnavailable, true},
		{ErrCodeRateLimitExceeded, false},
		{ErrCodeInvalidParameters, false},
		{0, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("code %d", tt.code), func(t *testing.T) {
			e := &Error{Code: tt.code}
			if got := e.Temporary(); got != tt.want {
				t.Errorf("Temporary() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	cause := errors.New(`Get "https://ws.audioscrobbler.com/2.0/?api_key=secret123&format=json": dial tcp: timeout`)

	err := redact(cause)
	if got := err.Error(); got != `Get "https://ws.audioscrobbler.com/2.0/?api_key=REDACTED&format=json": dial tcp: timeout` {
		t.Errorf("unexpected message %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("expected original error to stay reachable")
	}

	plain := errors.New("connection refused")
	if redact(plain) != plain {
		t.Error("expected errors without a key to pass through unchanged")
	}
	if redact(nil) != nil {
		t.Error("expected nil to stay nil")
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"album", MethodAlbum, false},
		{"artist", MethodArtist, false},
		{"track", MethodTrack, false},
		{"Album", "", true},
		{"", "", true},
		{"tag", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMethod) {
					t.Errorf("expected ErrInvalidMethod, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMethod(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	for _, p := range []string{"7day", "1month", "3month", "6month", "12month", "overall"} {
		got, err := ParsePeriod(p)
		if err != nil {
			t.Errorf("ParsePeriod(%q) returned error: %v", p, err)
		}
		if string(got) != p {
			t.Errorf("ParsePeriod(%q) = %q", p, got)
		}
	}

	for _, p := range []string{"", "1week", "OVERALL", "24month"} {
		if _, err := ParsePeriod(p); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("ParsePeriod(%q) expected ErrInvalidPeriod, got %v", p, err)
		}
	}
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for missing APIKey")
	}

	c, err := NewClient(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("expected default base URL, got %s", c.BaseURL())
	}
	if c.User() == nil {
		t.Error("expected user service")
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"github.com/jfmyers9/songstitch/internal/collage"
	"github.com/jfmyers9/songstitch/pkg/lastfm"
)

type fakeSource struct {
	tiles []collage.Tile
	err   error
	calls atomic.Int32

	gotMethod lastfm.Method
	gotCount  int
}

func (s *fakeSource) Tiles(ctx context.Context, method lastfm.Method, username string, period lastfm.Period, count int) ([]collage.Tile, error) {
	s.calls.Add(1)
	s.gotMethod = method
	s.gotCount = count
	if s.err != nil {
		return nil, s.err
	}
	return s.tiles, nil
}

type fakeComposer struct {
	err   error
	calls atomic.Int32
}

func (c *fakeComposer) Compose(ctx context.Context, tiles []collage.Tile, grid collage.Grid, display collage.Display) (*image.RGBA, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	img := image.NewRGBA(grid.Bounds())
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 0xff})
	return img, nil
}

func newTestServer(source TileSource, composer Composer) *Server {
	return New(source, composer, Options{Limits: DefaultCellLimits, Logger: zerolog.Nop()})
}

func TestCollage_Success(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		contentType string
		format      string
	}{
		{"png", baseQuery, "image/png", "png"},
		{"webp", baseQuery + "&webp=true", "image/webp", "webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{tiles: make([]collage.Tile, 12)}
			srv := newTestServer(source, &fakeComposer{})

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collage?"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("expected Content-Type %s, got %s", tt.contentType, ct)
			}
			if cl := rec.Header().Get("Content-Length"); cl != fmt.Sprint(rec.Body.Len()) {
				t.Errorf("Content-Length %s does not match body length %d", cl, rec.Body.Len())
			}

			img, format, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
			if err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if format != tt.format {
				t.Errorf("expected %s body, got %s", tt.format, format)
			}
			if img.Bounds() != image.Rect(0, 0, 1200, 900) {
				t.Errorf("unexpected bounds %v", img.Bounds())
			}

			if source.gotCount != 12 {
				t.Errorf("expected 12 tiles requested, got %d", source.gotCount)
			}
			if source.gotMethod != lastfm.MethodAlbum {
				t.Errorf("expected album method, got %s", source.gotMethod)
			}
		})
	}
}

func TestCollage_Errors(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		sourceErr   error
		composeErr  error
		wantStatus  int
		wantCode    string
		wantCompose bool
	}{
		{
			name:       "bad query",
			query:      "username=rj&method=album&period=7day&rows=0&columns=3",
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name:       "too many cells",
			query:      "username=rj&method=album&period=7day&rows=20&columns=21",
			wantStatus: http.StatusBadRequest,
			wantCode:   "too_many_cells",
		},
		{
			name:       "too many track cells",
			query:      "username=rj&method=track&period=7day&rows=10&columns=11",
			wantStatus: http.StatusBadRequest,
			wantCode:   "too_many_cells",
		},
		{
			name:       "bad text location",
			query:      baseQuery + "&textlocation=middle",
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name:       "user not found",
			query:      baseQuery,
			sourceErr:  &lastfm.Error{StatusCode: 404, Code: 6, Message: "User not found", Err: lastfm.ErrUserNotFound},
			wantStatus: http.StatusNotFound,
			wantCode:   "user_not_found",
		},
		{
			name:       "upstream status",
			query:      baseQuery,
			sourceErr:  &lastfm.Error{StatusCode: 500},
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream_error",
		},
		{
			name:       "upstream malformed",
			query:      baseQuery,
			sourceErr:  &lastfm.Error{StatusCode: 200, Err: lastfm.ErrDecode},
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream_error",
		},
		{
			name:       "upstream offline",
			query:      baseQuery,
			sourceErr:  &lastfm.Error{StatusCode: 503, Code: lastfm.ErrCodeServiceOffline, Message: "Service Offline"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "upstream_unavailable",
		},
		{
			name:       "upstream timeout",
			query:      baseQuery,
			sourceErr:  fmt.Errorf("http request failed: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "upstream_timeout",
		},
		{
			name:        "encode failure",
			query:       baseQuery,
			composeErr:  &collage.EncodeError{Format: collage.FormatPNG, Err: errors.New("boom")},
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal_error",
			wantCompose: true,
		},
		{
			name:        "compose failure",
			query:       baseQuery,
			composeErr:  errors.New("font exploded"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal_error",
			wantCompose: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{tiles: make([]collage.Tile, 12), err: tt.sourceErr}
			composer := &fakeComposer{err: tt.composeErr}
			srv := newTestServer(source, composer)

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collage?"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("expected JSON error body, got %s", ct)
			}

			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, body.Code)
			}
			if body.Error == "" {
				t.Error("expected an error message")
			}

			composed := composer.calls.Load() > 0
			if composed != tt.wantCompose {
				t.Errorf("compositor invoked = %v, want %v", composed, tt.wantCompose)
			}
		})
	}
}

func TestCollage_ScalesOutput(t *testing.T) {
	tests := []struct {
		query string
		want  image.Rectangle
	}{
		{"&width=600", image.Rect(0, 0, 600, 450)},
		{"&height=300", image.Rect(0, 0, 400, 300)},
		{"&width=100&height=100", image.Rect(0, 0, 100, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			srv := newTestServer(&fakeSource{tiles: make([]collage.Tile, 12)}, &fakeComposer{})

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collage?"+baseQuery+tt.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}

			cfg, _, err := image.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
			if err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if got := image.Rect(0, 0, cfg.Width, cfg.Height); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCollage_WideGrid(t *testing.T) {
	source := &fakeSource{tiles: make([]collage.Tile, 20)}
	srv := newTestServer(source, &fakeComposer{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collage?username=rj&method=album&period=7day&rows=1&columns=20", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a 1x20 grid, got %d: %s", rec.Code, rec.Body.String())
	}
	if source.gotCount != 20 {
		t.Errorf("expected 20 tiles requested, got %d", source.gotCount)
	}
}

func TestCellLimits(t *testing.T) {
	tests := []struct {
		name   string
		method lastfm.Method
		grid   collage.Grid
		ok     bool
	}{
		{"albums at limit", lastfm.MethodAlbum, collage.Grid{Rows: 20, Columns: 20}, true},
		{"albums over limit", lastfm.MethodAlbum, collage.Grid{Rows: 20, Columns: 21}, false},
		{"single row", lastfm.MethodArtist, collage.Grid{Rows: 1, Columns: 400}, true},
		{"tracks over limit", lastfm.MethodTrack, collage.Grid{Rows: 11, Columns: 10}, false},
		{"huge sides", lastfm.MethodAlbum, collage.Grid{Rows: 1 << 40, Columns: 1 << 40}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DefaultCellLimits.Check(tt.method, tt.grid)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrTooManyCells) {
				t.Errorf("expected ErrTooManyCells, got %v", err)
			}
		})
	}

	if err := (CellLimits{}).Check(lastfm.MethodAlbum, collage.Grid{Rows: 50, Columns: 50}); err != nil {
		t.Errorf("expected zero limits to disable the check, got %v", err)
	}
}

func TestCollage_UpstreamFailureSkipsCompositor(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":8,"message":"Operation failed"}`))
	}))
	defer upstream.Close()

	client, err := lastfm.NewClient(lastfm.Config{APIKey: "secret-key", BaseURL: upstream.URL})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	composer := &fakeComposer{}
	srv := newTestServer(collage.NewSource(client, collage.SourceOptions{}), composer)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collage?"+baseQuery, nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
	if n := composer.calls.Load(); n != 0 {
		t.Errorf("expected compositor not to run, ran %d times", n)
	}
	if strings.Contains(rec.Body.String(), "secret-key") {
		t.Errorf("api key leaked into response: %s", rec.Body.String())
	}
}

func TestCollage_ClientGone(t *testing.T) {
	composer := &fakeComposer{}
	h := NewCollageHandler(&fakeSource{tiles: make([]collage.Tile, 12)}, composer, DefaultCellLimits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/collage?"+baseQuery, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != StatusClientClosedRequest {
		t.Errorf("expected 499, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %d bytes", rec.Body.Len())
	}
}

func TestClassify(t *testing.T) {
	timeout := &url.Error{Op: "Get", URL: "https://ws.audioscrobbler.com/2.0/", Err: &net.DNSError{IsTimeout: true}}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"request", &RequestError{Param: "rows", Err: errRequired}, 400},
		{"cells", fmt.Errorf("%w: 400", ErrTooManyCells), 400},
		{"cancelled upstream", upstreamFailure(context.Canceled), 499},
		{"net timeout", upstreamFailure(timeout), 504},
		{"not found", upstreamFailure(lastfm.ErrUserNotFound), 404},
		{"temporary", upstreamFailure(&lastfm.Error{Code: lastfm.ErrCodeTempUnavailable}), 503},
		{"generic upstream", upstreamFailure(errors.New("connection reset")), 502},
		{"internal", errors.New("unexpected"), 500},
		{"encode", &collage.EncodeError{Err: errors.New("x")}, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := classify(tt.err); status != tt.status {
				t.Errorf("classify(%v) = %d, want %d", tt.err, status, tt.status)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeSource{}, &fakeComposer{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestStaticFiles(t *testing.T) {
	srv := newTestServer(&fakeSource{}, &fakeComposer{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/collage"`) {
		t.Error("expected the collage form")
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(&fakeSource{}, &fakeComposer{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Header().Get("Request-Id") == "" {
		t.Error("expected a Request-Id header")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeSource{}, &fakeComposer{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/collage?"+baseQuery, nil))

	if rec.Code == http.StatusOK {
		t.Errorf("expected POST to be rejected, got %d", rec.Code)
	}
}

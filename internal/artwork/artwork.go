// Package artwork downloads and decodes cover images for collage cells.
package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	// Decoders for the formats Last.fm serves.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/jfmyers9/songstitch/pkg/lastfm"
)

const (
	// DefaultTimeout bounds a single download when no HTTP client is given.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBytes is the largest artwork body accepted by default.
	DefaultMaxBytes = 10 << 20

	// DefaultUserAgent is sent with artwork and artist page requests.
	DefaultUserAgent = "songstitch/1.0"
)

// Options configures a Fetcher or ArtistResolver.
type Options struct {
	HTTPClient *http.Client  // Optional: defaults to a client with Timeout
	Timeout    time.Duration // Optional: used only when HTTPClient is nil
	UserAgent  string        // Optional: defaults to DefaultUserAgent
	MaxBytes   int64         // Optional: body size limit, defaults to DefaultMaxBytes
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) userAgent() string {
	if o.UserAgent == "" {
		return DefaultUserAgent
	}
	return o.UserAgent
}

// LookupError reports that an image list carries no variant of the
// requested size at all. This is a malformed upstream response rather
// than an album without artwork.
type LookupError struct {
	Size string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("artwork: no %q image variant", e.Size)
}

// FetchError reports a failed download or decode of one artwork URL.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("artwork: fetch %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("artwork: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads artwork. It holds no mutable state and is safe for
// concurrent use.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts Options) *Fetcher {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		client:    opts.httpClient(),
		userAgent: opts.userAgent(),
		maxBytes:  maxBytes,
	}
}

// Artwork returns the decoded variant of the given size.
//
// It returns (nil, nil) when the variant exists but has no URL, which is
// how Last.fm marks albums without artwork. A missing variant is a
// *LookupError. Download and decode failures are *FetchError.
func (f *Fetcher) Artwork(ctx context.Context, images lastfm.Images, size string) (*image.RGBA, error) {
	u, ok := images.Lookup(size)
	if !ok {
		return nil, &LookupError{Size: size}
	}
	if u == "" {
		return nil, nil
	}
	return f.Fetch(ctx, u)
}

// Fetch downloads the image at url with a single GET and returns it as
// an opaque RGBA buffer. Transparent areas are flattened onto black.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*image.RGBA, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("body exceeds %d bytes", f.maxBytes)}
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	return Flatten(img), nil
}

// Flatten copies img onto an opaque black RGBA buffer whose bounds start
// at the origin.
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

package artwork

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ArtistImageBaseURL serves Last.fm artist images by id.
const ArtistImageBaseURL = "https://lastfm.freetls.fastly.net/i/u/300x300/"

// ErrNoArtistImage is returned when an artist page lists no images.
var ErrNoArtistImage = errors.New("artwork: no artist image found")

// ArtistResolver finds a real image for an artist.
//
// The chart API only returns placeholder artist images, so the resolver
// reads the artist's image gallery page and builds the URL of its first
// image.
type ArtistResolver struct {
	client    *http.Client
	userAgent string
	imageBase string
}

// NewArtistResolver creates an ArtistResolver. MaxBytes is ignored.
func NewArtistResolver(opts Options) *ArtistResolver {
	return &ArtistResolver{
		client:    opts.httpClient(),
		userAgent: opts.userAgent(),
		imageBase: ArtistImageBaseURL,
	}
}

// Resolve returns the image URL for the artist page at artistURL.
func (r *ArtistResolver) Resolve(ctx context.Context, artistURL string) (string, error) {
	if artistURL == "" {
		return "", ErrNoArtistImage
	}
	pageURL := strings.TrimRight(artistURL, "/") + "/+images"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	href := doc.Find(".image-list-item-wrapper").First().Find("a").First().AttrOr("href", "")
	if href == "" {
		return "", ErrNoArtistImage
	}

	id := path.Base(href)
	if id == "." || id == "/" {
		return "", ErrNoArtistImage
	}
	return r.imageBase + id, nil
}

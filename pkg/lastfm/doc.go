// Package lastfm provides a client library for the Last.fm API 2.0.
//
// # Overview
//
// This package implements the read-only chart calls a collage renderer
// needs: a user's top albums, artists and tracks for a period. It
// provides a small, type-safe API with context support and structured
// errors. Calls are made exactly once; there is no retry or caching.
//
// # Quick Start
//
//	import "github.com/jfmyers9/songstitch/pkg/lastfm"
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey: "your-api-key",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	albums, err := client.User().TopAlbums(ctx, "rj", lastfm.PeriodSevenDays, 9)
//
// # Methods and Periods
//
// Chart kinds and time ranges are closed sets. Use ParseMethod and
// ParsePeriod to validate user input:
//
//	period, err := lastfm.ParsePeriod(r.URL.Query().Get("period"))
//	if errors.Is(err, lastfm.ErrInvalidPeriod) {
//	    // reject the request
//	}
//
// # Artwork
//
// Every entry carries its artwork variants as Images. Lookup tells a
// missing variant apart from a variant without a URL:
//
//	url, ok := album.Images.Lookup(lastfm.SizeExtraLarge)
//	switch {
//	case !ok:
//	    // the response carried no "extralarge" entry
//	case url == "":
//	    // Last.fm has no artwork of that size
//	}
//
// # Error Handling
//
// Any failed call (non-200 status, error envelope, undecodable body) is
// reported as *Error:
//
//	_, err := client.User().TopAlbums(ctx, user, period, 9)
//	var lastfmErr *lastfm.Error
//	switch {
//	case errors.Is(err, lastfm.ErrUserNotFound):
//	    // 404
//	case errors.As(err, &lastfmErr) && lastfmErr.Temporary():
//	    // service offline
//	}
//
// Transport errors are returned wrapped, with the API key removed from
// their message.
//
// # Configuration
//
// Point BaseURL at a proxy or an httptest server, and bound calls with
// the HTTP client's timeout. Logger receives debug lines for each call:
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey:     os.Getenv("LASTFM_API_KEY"),
//	    BaseURL:    os.Getenv("LASTFM_ENDPOINT"),
//	    HTTPClient: &http.Client{Timeout: 15 * time.Second},
//	    Logger:     debugLogger{},
//	})
//
// # Last.fm API Documentation
//
// https://www.last.fm/api/show/user.getTopAlbums
package lastfm

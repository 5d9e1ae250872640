package lastfm

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// UserService provides the user chart operations of the Last.fm API.
type UserService struct {
	client *Client
}

// TopAlbums returns the user's most played albums for the period, in
// rank order. At most limit albums are requested.
//
// A non-success response is returned as *Error. Unknown users unwrap to
// ErrUserNotFound.
//
// Example:
//
//	albums, err := client.User().TopAlbums(ctx, "rj", lastfm.PeriodOverall, 9)
//	if errors.Is(err, lastfm.ErrUserNotFound) {
//	    // ...
//	}
func (s *UserService) TopAlbums(ctx context.Context, username string, period Period, limit int) ([]Album, error) {
	var resp topAlbumsResponse
	if err := s.top(ctx, MethodAlbum, username, period, limit, &resp); err != nil {
		return nil, err
	}
	if resp.TopAlbums == nil {
		return nil, missingChart("topalbums")
	}
	return resp.TopAlbums.Albums, nil
}

// TopArtists returns the user's most played artists for the period.
func (s *UserService) TopArtists(ctx context.Context, username string, period Period, limit int) ([]Artist, error) {
	var resp topArtistsResponse
	if err := s.top(ctx, MethodArtist, username, period, limit, &resp); err != nil {
		return nil, err
	}
	if resp.TopArtists == nil {
		return nil, missingChart("topartists")
	}
	return resp.TopArtists.Artists, nil
}

// TopTracks returns the user's most played tracks for the period.
func (s *UserService) TopTracks(ctx context.Context, username string, period Period, limit int) ([]Track, error) {
	var resp topTracksResponse
	if err := s.top(ctx, MethodTrack, username, period, limit, &resp); err != nil {
		return nil, err
	}
	if resp.TopTracks == nil {
		return nil, missingChart("toptracks")
	}
	return resp.TopTracks.Tracks, nil
}

func (s *UserService) top(ctx context.Context, method Method, username string, period Period, limit int, out interface{}) error {
	if username == "" {
		return fmt.Errorf("lastfm: username is required")
	}
	if limit < 1 {
		return fmt.Errorf("lastfm: limit must be positive, got %d", limit)
	}
	if _, err := ParsePeriod(string(period)); err != nil {
		return err
	}

	apiMethod, err := method.apiMethod()
	if err != nil {
		return err
	}

	params := url.Values{
		"user":   {username},
		"period": {string(period)},
		"limit":  {strconv.Itoa(limit)},
	}

	return s.client.call(ctx, apiMethod, params, out)
}

// missingChart reports a 200 response that lacks the expected chart object.
func missingChart(key string) error {
	return &Error{
		StatusCode: 200,
		Err:        fmt.Errorf("%w: missing %q object", ErrDecode, key),
	}
}

package collage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jfmyers9/songstitch/pkg/lastfm"
)

// ArtistResolver finds a real image URL for an artist page.
type ArtistResolver interface {
	Resolve(ctx context.Context, artistURL string) (string, error)
}

// SourceOptions configures a Source.
type SourceOptions struct {
	// Optional: resolves artist images for artist charts. Without it
	// artist tiles keep the images returned by the chart.
	Artists ArtistResolver

	// Optional: concurrent artist page lookups, 0 means one per artist.
	MaxConcurrent int

	Logger zerolog.Logger
}

// Source loads the tiles of a collage from Last.fm.
type Source struct {
	client        *lastfm.Client
	artists       ArtistResolver
	maxConcurrent int
	logger        zerolog.Logger
}

// NewSource creates a Source backed by client.
func NewSource(client *lastfm.Client, opts SourceOptions) *Source {
	return &Source{
		client:        client,
		artists:       opts.Artists,
		maxConcurrent: opts.MaxConcurrent,
		logger:        opts.Logger.With().Str("component", "source").Logger(),
	}
}

// Tiles returns up to count tiles of the user's chart for method and
// period, in rank order. Upstream failures are returned unchanged.
func (s *Source) Tiles(ctx context.Context, method lastfm.Method, username string, period lastfm.Period, count int) ([]Tile, error) {
	user := s.client.User()

	switch method {
	case lastfm.MethodAlbum:
		albums, err := user.TopAlbums(ctx, username, period, count)
		if err != nil {
			return nil, err
		}
		return TilesFromAlbums(albums), nil

	case lastfm.MethodArtist:
		artists, err := user.TopArtists(ctx, username, period, count)
		if err != nil {
			return nil, err
		}
		tiles := TilesFromArtists(artists)
		if s.artists != nil {
			s.resolveArtists(ctx, artists, tiles)
		}
		return tiles, nil

	case lastfm.MethodTrack:
		tracks, err := user.TopTracks(ctx, username, period, count)
		if err != nil {
			return nil, err
		}
		return TilesFromTracks(tracks), nil

	default:
		return nil, fmt.Errorf("%w: %q", lastfm.ErrInvalidMethod, method)
	}
}

// resolveArtists replaces the placeholder images of artist tiles with
// the first image of each artist's gallery. An artist whose gallery
// cannot be read gets no artwork.
func (s *Source) resolveArtists(ctx context.Context, artists []lastfm.Artist, tiles []Tile) {
	if len(artists) == 0 {
		return
	}

	limit := s.maxConcurrent
	if limit <= 0 || limit > len(artists) {
		limit = len(artists)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range artists {
		g.Go(func() error {
			tiles[i].Images = lastfm.Images{{URL: s.resolveOne(ctx, artists[i]), Size: ArtworkSize}}
			return nil
		})
	}
	_ = g.Wait()
}

// resolveOne looks up one artist's image URL. Every failure, panics
// included, is logged and reported as an empty URL.
func (s *Source) resolveOne(ctx context.Context, artist lastfm.Artist) (u string) {
	logger := s.logger.With().Str("artist", artist.Name).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Artist image lookup panicked")
			u = ""
		}
	}()

	u, err := s.artists.Resolve(ctx, artist.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("Artist image unavailable")
		return ""
	}
	return u
}

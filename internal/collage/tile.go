package collage

import "github.com/jfmyers9/songstitch/pkg/lastfm"

// Tile is the content of one collage cell.
type Tile struct {
	Artist    string
	Title     string // album or track name, empty for artist collages
	Playcount string
	Images    lastfm.Images
}

// TilesFromAlbums converts a top albums chart into tiles, keeping rank order.
func TilesFromAlbums(albums []lastfm.Album) []Tile {
	tiles := make([]Tile, len(albums))
	for i, a := range albums {
		tiles[i] = Tile{
			Artist:    a.Artist.Name,
			Title:     a.Name,
			Playcount: a.Playcount,
			Images:    a.Images,
		}
	}
	return tiles
}

// TilesFromArtists converts a top artists chart into tiles.
func TilesFromArtists(artists []lastfm.Artist) []Tile {
	tiles := make([]Tile, len(artists))
	for i, a := range artists {
		tiles[i] = Tile{
			Artist:    a.Name,
			Playcount: a.Playcount,
			Images:    a.Images,
		}
	}
	return tiles
}

// TilesFromTracks converts a top tracks chart into tiles.
func TilesFromTracks(tracks []lastfm.Track) []Tile {
	tiles := make([]Tile, len(tracks))
	for i, t := range tracks {
		tiles[i] = Tile{
			Artist:    t.Artist.Name,
			Title:     t.Name,
			Playcount: t.Playcount,
			Images:    t.Images,
		}
	}
	return tiles
}

package server

import (
	"fmt"

	"github.com/jfmyers9/songstitch/internal/collage"
	"github.com/jfmyers9/songstitch/pkg/lastfm"
)

// CellLimits caps the number of cells of a collage per chart.
type CellLimits struct {
	Albums  int
	Artists int
	Tracks  int
}

// DefaultCellLimits matches what the hosted service allows.
var DefaultCellLimits = CellLimits{Albums: 400, Artists: 400, Tracks: 100}

// For returns the limit for method, 0 when there is none.
func (l CellLimits) For(method lastfm.Method) int {
	switch method {
	case lastfm.MethodAlbum:
		return l.Albums
	case lastfm.MethodArtist:
		return l.Artists
	case lastfm.MethodTrack:
		return l.Tracks
	default:
		return 0
	}
}

// Check returns ErrTooManyCells when grid has more cells than method
// allows. A limit <= 0 disables the check.
func (l CellLimits) Check(method lastfm.Method, grid collage.Grid) error {
	limit := l.For(method)
	if limit <= 0 {
		return nil
	}
	// Each side is checked first so Cells cannot overflow.
	if grid.Rows > limit || grid.Columns > limit || grid.Cells() > limit {
		return fmt.Errorf("%w: %dx%d requested, %s collages are limited to %d", ErrTooManyCells, grid.Rows, grid.Columns, method, limit)
	}
	return nil
}

// Package collage renders grid collages of cover artwork with text labels.
package collage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/jfmyers9/songstitch/pkg/lastfm"
)

const (
	// CellSize is the width and height of one grid cell in pixels.
	CellSize = 300

	// ArtworkSize is the image variant requested for every cell.
	ArtworkSize = lastfm.SizeExtraLarge

	// DefaultFontSize is the label size used when Display.FontSize is unset.
	DefaultFontSize = 18
)

// ErrInvalidGrid is returned for grids with fewer than one row or column.
var ErrInvalidGrid = errors.New("collage: rows and columns must be at least 1")

// Grid is the shape of a collage.
type Grid struct {
	Rows    int
	Columns int
}

// Cells returns the number of cells in the grid.
func (g Grid) Cells() int {
	return g.Rows * g.Columns
}

// Validate reports whether the grid can be drawn.
func (g Grid) Validate() error {
	if g.Rows < 1 || g.Columns < 1 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidGrid, g.Rows, g.Columns)
	}
	return nil
}

// Bounds returns the canvas rectangle for the grid.
func (g Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, CellSize*g.Columns, CellSize*g.Rows)
}

// Cell returns the rectangle of cell i. Cells are laid out left to right,
// top to bottom.
func (g Grid) Cell(i int) image.Rectangle {
	x := CellSize * (i % g.Columns)
	y := CellSize * (i / g.Columns)
	return image.Rect(x, y, x+CellSize, y+CellSize)
}

// Display selects what is drawn on top of the artwork.
type Display struct {
	Artist    bool
	Title     bool
	Playcount bool
	FontSize  float64
	Bold      bool
	Grayscale bool

	// Compact stacks the drawn lines without gaps for disabled or
	// empty ones. Otherwise each line keeps its fixed slot.
	Compact bool

	// Location anchors the label block, top left when empty.
	Location LabelLocation
}

// DefaultDisplay draws all three label lines in the regular face, each
// in its fixed slot from the top left corner.
func DefaultDisplay() Display {
	return Display{
		Artist:    true,
		Title:     true,
		Playcount: true,
		FontSize:  DefaultFontSize,
		Location:  LocationTopLeft,
	}
}

// ArtworkFetcher retrieves the artwork of a tile. A nil image with a nil
// error means the tile has no artwork.
type ArtworkFetcher interface {
	Artwork(ctx context.Context, images lastfm.Images, size string) (*image.RGBA, error)
}

// CompositorOptions configures a Compositor.
type CompositorOptions struct {
	MaxConcurrent int           // Optional: concurrent fetches, 0 means one per cell
	FetchTimeout  time.Duration // Optional: deadline for each fetch, 0 means none
	Logger        zerolog.Logger
}

// Compositor assembles collages. It holds only read-only state and is
// safe for concurrent use; every call to Compose owns its canvas.
type Compositor struct {
	fetcher       ArtworkFetcher
	fonts         *Fonts
	maxConcurrent int
	fetchTimeout  time.Duration
	logger        zerolog.Logger
}

// NewCompositor creates a Compositor.
func NewCompositor(fetcher ArtworkFetcher, fonts *Fonts, opts CompositorOptions) *Compositor {
	return &Compositor{
		fetcher:       fetcher,
		fonts:         fonts,
		maxConcurrent: opts.MaxConcurrent,
		fetchTimeout:  opts.FetchTimeout,
		logger:        opts.Logger.With().Str("component", "collage").Logger(),
	}
}

// Compose draws tiles onto a black canvas of grid's size.
//
// Tile i lands in cell i; tiles beyond the grid are ignored and cells
// without a tile stay black. Artwork for all drawn tiles is fetched
// concurrently. A tile whose artwork cannot be fetched for any reason,
// including a panic in the fetcher, keeps a black cell but still gets
// its labels.
func (c *Compositor) Compose(ctx context.Context, tiles []Tile, grid Grid, display Display) (*image.RGBA, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if display.FontSize <= 0 {
		display.FontSize = DefaultFontSize
	}

	face, err := c.fonts.Face(display.FontSize, display.Bold)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	if len(tiles) > grid.Cells() {
		tiles = tiles[:grid.Cells()]
	}

	start := time.Now()
	covers := c.fetchAll(ctx, tiles)

	canvas := image.NewRGBA(grid.Bounds())
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)

	for i, tile := range tiles {
		rect := grid.Cell(i)
		if cover := covers[i]; cover != nil {
			cover = resize(cover, CellSize)
			draw.Draw(canvas, rect, cover, cover.Bounds().Min, draw.Src)
		}

		cell := canvas.SubImage(rect).(*image.RGBA)
		drawLabels(cell, face, labels(tile, display), display.FontSize, display.Location)
	}

	if display.Grayscale {
		grayscale(canvas)
	}

	c.log(ctx).Debug().
		Int("rows", grid.Rows).
		Int("columns", grid.Columns).
		Int("tiles", len(tiles)).
		Dur("duration", time.Since(start)).
		Msg("Collage composed")

	return canvas, nil
}

// fetchAll fetches the artwork of every tile. The result has one entry
// per tile, nil where no artwork is available.
func (c *Compositor) fetchAll(ctx context.Context, tiles []Tile) []*image.RGBA {
	covers := make([]*image.RGBA, len(tiles))
	if len(tiles) == 0 {
		return covers
	}

	limit := c.maxConcurrent
	if limit <= 0 || limit > len(tiles) {
		limit = len(tiles)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range tiles {
		g.Go(func() error {
			covers[i] = c.fetchOne(ctx, i, tiles[i])
			return nil
		})
	}
	_ = g.Wait()

	return covers
}

// fetchOne fetches one tile's artwork. Every failure, panics included,
// is logged and reported as no artwork.
func (c *Compositor) fetchOne(ctx context.Context, i int, tile Tile) (cover *image.RGBA) {
	logger := c.log(ctx).With().Int("cell", i).Str("artist", tile.Artist).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Artwork fetch panicked")
			cover = nil
		}
	}()

	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	img, err := c.fetcher.Artwork(ctx, tile.Images, ArtworkSize)
	if err != nil {
		logger.Warn().Err(err).Msg("Artwork unavailable")
		return nil
	}
	return img
}

// log returns the request logger from ctx, or the compositor's own
// logger when ctx carries none.
func (c *Compositor) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &c.logger
}

// resize scales img to a size x size square with nearest-neighbour
// sampling. Images that already have that size are returned as is.
func resize(img *image.RGBA, size int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Scale resizes a finished collage to width x height. When one of them
// is zero it follows from the other and the aspect ratio. img is
// returned as is when both are zero or it already has that size.
func Scale(img *image.RGBA, width, height int) *image.RGBA {
	b := img.Bounds()
	switch {
	case width <= 0 && height <= 0:
		return img
	case height <= 0:
		height = max(1, width*b.Dy()/b.Dx())
	case width <= 0:
		width = max(1, height*b.Dx()/b.Dy())
	}
	if b.Dx() == width && b.Dy() == height {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// grayscale converts img in place, keeping it opaque.
func grayscale(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.RGBAAt(x, y)).(color.Gray)
			img.SetRGBA(x, y, color.RGBA{R: g.Y, G: g.Y, B: g.Y, A: 0xff})
		}
	}
}

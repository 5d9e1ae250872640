package collage

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	// labelInset is the distance of the label block from the cell's
	// edges.
	labelInset = 10

	// labelLeading is added to the font size to get the line pitch.
	labelLeading = 1
)

var (
	shadowColor = image.NewUniform(color.Black)
	textColor   = image.NewUniform(color.White)
)

// LabelLocation is the corner or edge of a cell the labels are anchored to.
type LabelLocation string

const (
	LocationTopLeft      LabelLocation = "topleft"
	LocationTopCentre    LabelLocation = "topcentre"
	LocationTopRight     LabelLocation = "topright"
	LocationBottomLeft   LabelLocation = "bottomleft"
	LocationBottomCentre LabelLocation = "bottomcentre"
	LocationBottomRight  LabelLocation = "bottomright"
)

// ErrInvalidLocation is returned for an unknown label location.
var ErrInvalidLocation = errors.New("invalid label location")

// ParseLabelLocation validates s.
func ParseLabelLocation(s string) (LabelLocation, error) {
	switch l := LabelLocation(s); l {
	case LocationTopLeft, LocationTopCentre, LocationTopRight,
		LocationBottomLeft, LocationBottomCentre, LocationBottomRight:
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLocation, s)
}

func (l LabelLocation) bottom() bool {
	return l == LocationBottomLeft || l == LocationBottomCentre || l == LocationBottomRight
}

// x returns the left edge of a line textWidth wide in a cell cellWidth wide.
func (l LabelLocation) x(cellWidth, textWidth int) int {
	switch l {
	case LocationTopCentre, LocationBottomCentre:
		return (cellWidth - textWidth) / 2
	case LocationTopRight, LocationBottomRight:
		return cellWidth - labelInset - textWidth
	default:
		return labelInset
	}
}

// labels returns the text lines drawn on a tile's cell, top to bottom.
// An empty string is a slot with nothing drawn in it.
//
// Without Compact the artist, title and play count keep their own
// slot whether or not they are drawn. With Compact only the enabled
// non-empty lines are returned.
func labels(t Tile, d Display) []string {
	slots := []struct {
		on   bool
		text string
	}{
		{d.Artist, t.Artist},
		{d.Title, t.Title},
		{d.Playcount, t.Playcount},
	}
	if t.Playcount != "" {
		slots[2].text = "Plays: " + t.Playcount
	}

	lines := make([]string, 0, len(slots))
	for _, s := range slots {
		switch {
		case s.on && s.text != "":
			lines = append(lines, s.text)
		case !d.Compact:
			lines = append(lines, "")
		}
	}
	return lines
}

// lineTop returns the offset of the top of line i from the cell origin.
// At size 18 the lines start at 10, 29 and 48.
func lineTop(i int, size float64) int {
	return labelInset + int(math.Round(float64(i)*(size+labelLeading)))
}

// lineTopFromBottom mirrors lineTop for a block of n lines resting on
// the bottom edge of a cell cellHeight tall.
func lineTopFromBottom(i, n int, size float64, cellHeight int) int {
	return cellHeight - labelInset - int(math.Round(float64(n-i)*(size+labelLeading)))
}

// drawLabels writes lines into cell with a one pixel drop shadow.
// Drawing is clipped to the cell's bounds.
func drawLabels(cell draw.Image, face font.Face, lines []string, size float64, loc LabelLocation) {
	b := cell.Bounds()
	ascent := face.Metrics().Ascent.Ceil()

	d := &font.Drawer{Dst: cell, Face: face}
	for i, line := range lines {
		if line == "" {
			continue
		}

		top := lineTop(i, size)
		if loc.bottom() {
			top = lineTopFromBottom(i, len(lines), size, b.Dy())
		}
		x := b.Min.X + loc.x(b.Dx(), d.MeasureString(line).Ceil())
		baseline := b.Min.Y + top + ascent

		d.Src = shadowColor
		d.Dot = fixed.P(x+1, baseline+1)
		d.DrawString(line)

		d.Src = textColor
		d.Dot = fixed.P(x, baseline)
		d.DrawString(line)
	}
}

package collage

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Fonts holds the parsed label typefaces. It is immutable after
// LoadFonts and safe to share between concurrent compositions.
type Fonts struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// LoadFonts parses the bundled regular and bold faces.
func LoadFonts() (*Fonts, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("collage: failed to parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("collage: failed to parse bold font: %w", err)
	}
	return &Fonts{regular: regular, bold: bold}, nil
}

// Face returns a new face at the given size. Faces are not safe for
// concurrent use, so each composition asks for its own and closes it.
func (f *Fonts) Face(size float64, bold bool) (font.Face, error) {
	tf := f.regular
	if bold {
		tf = f.bold
	}
	face, err := opentype.NewFace(tf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("collage: failed to create font face: %w", err)
	}
	return face, nil
}

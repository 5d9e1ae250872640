package collage

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
)

// Format is an output image encoding.
type Format int

const (
	FormatPNG Format = iota
	FormatWebP
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// EncodeError reports a failure to encode a finished collage.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("collage: encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Encode writes img to w in the given format. WebP output is lossless,
// so both formats decode back to the same pixels.
func Encode(w io.Writer, img image.Image, format Format) error {
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatWebP:
		err = nativewebp.Encode(w, img, nil)
	default:
		err = fmt.Errorf("unknown format")
	}
	if err != nil {
		return &EncodeError{Format: format, Err: err}
	}
	return nil
}

package server

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/jfmyers9/songstitch/internal/collage"
	"github.com/jfmyers9/songstitch/pkg/lastfm"
)

const (
	minFontSize = 8
	maxFontSize = 30

	// maxOutputSide bounds the width and height a collage is scaled to.
	maxOutputSide = 3000
)

var (
	errRequired   = errors.New("is required")
	errOutOfRange = errors.New("out of range")
)

// RequestError reports an invalid query parameter.
type RequestError struct {
	Param string
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Param, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// CollageRequest is a parsed /collage query.
type CollageRequest struct {
	Username string
	Method   lastfm.Method
	Period   lastfm.Period
	Grid     collage.Grid
	Display  collage.Display
	Format   collage.Format

	// Width and Height scale the finished collage, 0 keeps the
	// natural size (or the aspect ratio when only one is set).
	Width  int
	Height int
}

// Count returns the number of chart entries the collage needs.
func (r *CollageRequest) Count() int {
	return r.Grid.Cells()
}

// ParseRequest validates a /collage query. Every failure is a
// *RequestError naming the offending parameter.
func ParseRequest(q url.Values) (*CollageRequest, error) {
	req := &CollageRequest{}

	req.Username = q.Get("username")
	if req.Username == "" {
		return nil, &RequestError{Param: "username", Err: errRequired}
	}

	method, err := requiredEnum(q, "method", lastfm.ParseMethod)
	if err != nil {
		return nil, err
	}
	req.Method = method

	period, err := requiredEnum(q, "period", lastfm.ParsePeriod)
	if err != nil {
		return nil, err
	}
	req.Period = period

	if req.Grid.Rows, err = intInRange(q, "rows", 0, true, 1, math.MaxInt); err != nil {
		return nil, err
	}
	if req.Grid.Columns, err = intInRange(q, "columns", 0, true, 1, math.MaxInt); err != nil {
		return nil, err
	}

	if req.Width, err = intInRange(q, "width", 0, false, 0, maxOutputSide); err != nil {
		return nil, err
	}
	if req.Height, err = intInRange(q, "height", 0, false, 0, maxOutputSide); err != nil {
		return nil, err
	}

	location := collage.LocationTopLeft
	if raw := q.Get("textlocation"); raw != "" {
		if location, err = collage.ParseLabelLocation(raw); err != nil {
			return nil, &RequestError{Param: "textlocation", Err: err}
		}
	}

	fontSize, err := intInRange(q, "fontsize", collage.DefaultFontSize, false, minFontSize, maxFontSize)
	if err != nil {
		return nil, err
	}

	flags := map[string]bool{}
	for _, name := range []string{"album", "artist", "track", "playcount", "webp", "boldfont", "grayscale"} {
		v, err := boolParam(q, name)
		if err != nil {
			return nil, err
		}
		flags[name] = v
	}

	req.Display = displayFor(q, req.Method, flags)
	req.Display.FontSize = float64(fontSize)
	req.Display.Bold = flags["boldfont"]
	req.Display.Grayscale = flags["grayscale"]
	req.Display.Location = location

	req.Format = collage.FormatPNG
	if flags["webp"] {
		req.Format = collage.FormatWebP
	}

	return req, nil
}

// displayFor picks the label lines. A query without any of the toggles
// gets every line, each in its fixed slot; otherwise only the enabled
// lines are drawn, stacked without gaps. The title line follows
// "album" for album charts and "track" for track charts.
func displayFor(q url.Values, method lastfm.Method, flags map[string]bool) collage.Display {
	if !q.Has("album") && !q.Has("artist") && !q.Has("track") && !q.Has("playcount") {
		return collage.DefaultDisplay()
	}

	d := collage.Display{
		Artist:    flags["artist"],
		Playcount: flags["playcount"],
		Compact:   true,
	}
	switch method {
	case lastfm.MethodAlbum:
		d.Title = flags["album"]
	case lastfm.MethodTrack:
		d.Title = flags["track"]
	case lastfm.MethodArtist:
		d.Title = false
	}
	return d
}

func requiredEnum[T any](q url.Values, name string, parse func(string) (T, error)) (T, error) {
	var zero T
	raw := q.Get(name)
	if raw == "" {
		return zero, &RequestError{Param: name, Err: errRequired}
	}
	v, err := parse(raw)
	if err != nil {
		return zero, &RequestError{Param: name, Err: err}
	}
	return v, nil
}

func intInRange(q url.Values, name string, def int, required bool, lo, hi int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		if required {
			return 0, &RequestError{Param: name, Err: errRequired}
		}
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &RequestError{Param: name, Err: err}
	}
	if v < lo || v > hi {
		return 0, &RequestError{Param: name, Err: fmt.Errorf("%w: %d not in [%d, %d]", errOutOfRange, v, lo, hi)}
	}
	return v, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &RequestError{Param: name, Err: err}
	}
	return v, nil
}

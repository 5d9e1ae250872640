package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/jfmyers9/songstitch/internal/collage"
	"github.com/jfmyers9/songstitch/pkg/lastfm"
)

// TileSource loads the chart a collage is built from.
type TileSource interface {
	Tiles(ctx context.Context, method lastfm.Method, username string, period lastfm.Period, count int) ([]collage.Tile, error)
}

// Composer draws a collage from tiles.
type Composer interface {
	Compose(ctx context.Context, tiles []collage.Tile, grid collage.Grid, display collage.Display) (*image.RGBA, error)
}

// CollageHandler serves GET /collage.
type CollageHandler struct {
	source   TileSource
	composer Composer
	limits   CellLimits
}

// NewCollageHandler returns the handler that renders collages. Requests
// with more cells than limits allow for their chart are rejected.
func NewCollageHandler(source TileSource, composer Composer, limits CellLimits) *CollageHandler {
	return &CollageHandler{
		source:   source,
		composer: composer,
		limits:   limits,
	}
}

func (h *CollageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := hlog.FromRequest(r)

	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.limits.Check(req.Method, req.Grid); err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	tiles, err := h.source.Tiles(ctx, req.Method, req.Username, req.Period, req.Count())
	if err != nil {
		writeError(w, r, upstreamFailure(err))
		return
	}

	img, err := h.composer.Compose(ctx, tiles, req.Grid, req.Display)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := ctx.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	img = collage.Scale(img, req.Width, req.Height)

	var buf bytes.Buffer
	if err := collage.Encode(&buf, img, req.Format); err != nil {
		writeError(w, r, err)
		return
	}

	logger.Info().
		Str("username", req.Username).
		Str("method", string(req.Method)).
		Str("period", string(req.Period)).
		Int("rows", req.Grid.Rows).
		Int("columns", req.Grid.Columns).
		Str("format", req.Format.String()).
		Stringer("size", img.Bounds().Size()).
		Int("tiles", len(tiles)).
		Dur("duration", time.Since(start)).
		Msg("Collage rendered")

	w.Header().Set("Content-Type", req.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Debug().Err(err).Msg("Failed to write collage")
	}
}

// healthHandler answers liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/songstitch/pkg/lastfm"
)

// topCmd represents the top command
var topCmd = &cobra.Command{
	Use:   "top <username>",
	Short: "Print a user's top albums, artists or tracks",
	Long: `Query Last.fm and print the chart a collage would be built from,
one aligned row per entry with rank, name, artist and play count.

Columns are measured in display width, so titles in CJK scripts or with
emoji line up. Long values are truncated with "..." to --width.`,
	Args: cobra.ExactArgs(1),
	RunE: runTop,
}

func init() {
	rootCmd.AddCommand(topCmd)

	topCmd.Flags().StringP("method", "m", "album", "Chart to print (album, artist, track)")
	topCmd.Flags().StringP("period", "p", "7day", "Time range (7day, 1month, 3month, 6month, 12month, overall)")
	topCmd.Flags().IntP("limit", "n", 10, "Number of entries")
	topCmd.Flags().IntP("width", "w", 40, "Maximum column width (0=unlimited)")
}

// chartTimeout bounds the upstream call when lastfm.timeout is unset.
const chartTimeout = 15 * time.Second

// chartRow is one printed line of a chart.
type chartRow struct {
	Rank      string
	Name      string
	Artist    string
	Playcount string
}

func runTop(cmd *cobra.Command, args []string) error {
	methodFlag, _ := cmd.Flags().GetString("method")
	periodFlag, _ := cmd.Flags().GetString("period")
	limit, _ := cmd.Flags().GetInt("limit")
	width, _ := cmd.Flags().GetInt("width")

	method, err := lastfm.ParseMethod(methodFlag)
	if err != nil {
		return err
	}
	period, err := lastfm.ParsePeriod(periodFlag)
	if err != nil {
		return err
	}

	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}

	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:  cfg.LastFM.APIKey,
		BaseURL: cfg.LastFM.Endpoint,
		Logger:  debugLogger{logger.With().Str("component", "lastfm").Logger()},
	})
	if err != nil {
		return fmt.Errorf("failed to create Last.fm client: %w", err)
	}

	timeout := cfg.LastFM.Timeout
	if timeout <= 0 {
		timeout = chartTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rows, err := fetchChart(ctx, client.User(), method, args[0], period, limit)
	if err != nil {
		return fmt.Errorf("failed to get chart: %w", err)
	}

	writeChart(cmd.OutOrStdout(), rows, width)
	return nil
}

// fetchChart loads the chart for method and flattens it into rows.
func fetchChart(ctx context.Context, user *lastfm.UserService, method lastfm.Method, username string, period lastfm.Period, limit int) ([]chartRow, error) {
	switch method {
	case lastfm.MethodAlbum:
		albums, err := user.TopAlbums(ctx, username, period, limit)
		if err != nil {
			return nil, err
		}
		rows := make([]chartRow, len(albums))
		for i, a := range albums {
			rows[i] = chartRow{Rank: a.Rank(), Name: a.Name, Artist: a.Artist.Name, Playcount: a.Playcount}
		}
		return rows, nil
	case lastfm.MethodArtist:
		artists, err := user.TopArtists(ctx, username, period, limit)
		if err != nil {
			return nil, err
		}
		rows := make([]chartRow, len(artists))
		for i, a := range artists {
			rows[i] = chartRow{Rank: a.Rank(), Name: a.Name, Playcount: a.Playcount}
		}
		return rows, nil
	case lastfm.MethodTrack:
		tracks, err := user.TopTracks(ctx, username, period, limit)
		if err != nil {
			return nil, err
		}
		rows := make([]chartRow, len(tracks))
		for i, t := range tracks {
			rows[i] = chartRow{Rank: t.Rank(), Name: t.Name, Artist: t.Artist.Name, Playcount: t.Playcount}
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: %q", lastfm.ErrInvalidMethod, method)
	}
}

// writeChart prints rows as an aligned table. Each text column is as
// wide as its widest value, capped at maxWidth display columns.
func writeChart(w io.Writer, rows []chartRow, maxWidth int) {
	rankWidth, nameWidth, artistWidth := 0, 0, 0
	for _, r := range rows {
		rankWidth = max(rankWidth, runewidth.StringWidth(r.Rank))
		nameWidth = max(nameWidth, runewidth.StringWidth(r.Name))
		artistWidth = max(artistWidth, runewidth.StringWidth(r.Artist))
	}
	if maxWidth > 0 {
		nameWidth = min(nameWidth, maxWidth)
		artistWidth = min(artistWidth, maxWidth)
	}

	for _, r := range rows {
		cols := []string{
			strings.Repeat(" ", rankWidth-runewidth.StringWidth(r.Rank)) + r.Rank,
			padToWidth(r.Name, nameWidth),
		}
		if artistWidth > 0 {
			cols = append(cols, padToWidth(r.Artist, artistWidth))
		}
		cols = append(cols, r.Playcount+" plays")
		fmt.Fprintln(w, strings.Join(cols, "  "))
	}
}

// padToWidth pads or truncates text to a fixed display width.
// Width is measured in display columns, accounting for Unicode characters.
// If width <= 0, returns text unchanged.
// If text is longer than width, truncates with "..." suffix.
// If text is shorter than width, pads with spaces.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text // no padding requested
	}

	currentWidth := runewidth.StringWidth(text)

	if currentWidth > width {
		ellipsis := "..."
		ellipsisWidth := runewidth.StringWidth(ellipsis)

		if width <= ellipsisWidth {
			// If width is too small, just return ellipsis truncated to width
			return runewidth.Truncate(ellipsis, width, "")
		}

		result := runewidth.Truncate(text, width-ellipsisWidth, "") + ellipsis

		// Wide runes can leave the truncated text one column short
		if resultWidth := runewidth.StringWidth(result); resultWidth < width {
			return result + strings.Repeat(" ", width-resultWidth)
		}
		return result
	} else if currentWidth < width {
		return text + strings.Repeat(" ", width-currentWidth)
	}

	return text // exactly the right width
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/songstitch/internal/artwork"
	"github.com/jfmyers9/songstitch/internal/collage"
	"github.com/jfmyers9/songstitch/internal/config"
	"github.com/jfmyers9/songstitch/internal/server"
	"github.com/jfmyers9/songstitch/pkg/lastfm"
)

var serveListen string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the collage HTTP service",
	Long: `Run the HTTP service that renders Last.fm collages.

Endpoints:
  GET /collage   render a collage (see the form at / for parameters)
  GET /healthz   liveness check

The service shuts down gracefully on SIGINT/SIGTERM. A second signal
forces exit.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Server.Listen = serveListen
	}

	logger.Info().
		Str("version", version).
		Str("listen", cfg.Server.Listen).
		Int("max_albums", cfg.Collage.MaxAlbums).
		Int("max_artists", cfg.Collage.MaxArtists).
		Int("max_tracks", cfg.Collage.MaxTracks).
		Msg("Starting songstitch")

	source, compositor, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(source, compositor, server.Options{
		Listen:          cfg.Server.Listen,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Limits:          cellLimits(cfg),
		Logger:          logger,
	})

	if err := srv.Run(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Server error")
		return err
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}

// loadEnvironment reads .env, loads the configuration and sets up the
// logger. Missing Last.fm settings are fatal.
func loadEnvironment() (*config.Config, zerolog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, zerolog.Logger{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			return nil, zerolog.Logger{}, fmt.Errorf("%w (set them in the environment or a .env file)", err)
		}
		return nil, zerolog.Logger{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return cfg, setupLogger(logFile, level), nil
}

// newPipeline wires the Last.fm client, artwork fetcher and compositor.
func newPipeline(cfg *config.Config, logger zerolog.Logger) (*collage.Source, *collage.Compositor, error) {
	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:     cfg.LastFM.APIKey,
		BaseURL:    cfg.LastFM.Endpoint,
		HTTPClient: &http.Client{Timeout: cfg.LastFM.Timeout},
		Logger:     debugLogger{logger.With().Str("component", "lastfm").Logger()},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Last.fm client: %w", err)
	}

	artworkOpts := artwork.Options{
		Timeout:  cfg.Collage.FetchTimeout,
		MaxBytes: cfg.Collage.MaxArtworkBytes,
	}

	fonts, err := collage.LoadFonts()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load fonts: %w", err)
	}

	source := collage.NewSource(client, collage.SourceOptions{
		Artists:       artwork.NewArtistResolver(artworkOpts),
		MaxConcurrent: cfg.Collage.MaxConcurrentFetches,
		Logger:        logger,
	})
	compositor := collage.NewCompositor(artwork.NewFetcher(artworkOpts), fonts, collage.CompositorOptions{
		MaxConcurrent: cfg.Collage.MaxConcurrentFetches,
		FetchTimeout:  cfg.Collage.FetchTimeout,
		Logger:        logger,
	})
	return source, compositor, nil
}

// debugLogger adapts a zerolog.Logger to lastfm.Logger.
type debugLogger struct {
	logger zerolog.Logger
}

func (l debugLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch strings.ToLower(logLevel) {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}

func cellLimits(cfg *config.Config) server.CellLimits {
	return server.CellLimits{
		Albums:  cfg.Collage.MaxAlbums,
		Artists: cfg.Collage.MaxArtists,
		Tracks:  cfg.Collage.MaxTracks,
	}
}

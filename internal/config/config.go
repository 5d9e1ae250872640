package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Log level for the process (debug, info, warn, error)
	// Default: "info"
	LogLevel string

	// HTTP server settings
	Server ServerConfig

	// Collage rendering limits
	Collage CollageConfig

	// Last.fm API access
	LastFM LastFMConfig
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Listen          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// CollageConfig holds collage rendering configuration
type CollageConfig struct {
	// Largest rows*columns accepted per collage method
	MaxAlbums  int
	MaxArtists int
	MaxTracks  int

	// Deadline for each artwork download (0 disables it)
	FetchTimeout time.Duration

	// Upper bound on concurrent artwork downloads per collage
	// (0 means one per cell)
	MaxConcurrentFetches int

	// Upper bound on the size of a downloaded artwork body
	MaxArtworkBytes int64
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// MissingError is returned by Load when required settings are absent.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("config: missing required setting(s): %s", strings.Join(e.Keys, ", "))
}

// Load reads configuration from file and environment
//
// LASTFM_ENDPOINT and LASTFM_API_KEY must be set, either in the
// environment or as lastfm.endpoint and lastfm.api_key in config.yaml.
// Every other key can be overridden with a SONGSTITCH_ variable, for
// example SONGSTITCH_SERVER_LISTEN.
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(GetConfigDir())
	v.AddConfigPath(".")

	setDefaults(v)

	// Read config file (optional - don't fail if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: failed to read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// Read from environment variables
	v.SetEnvPrefix("SONGSTITCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The Last.fm settings keep their unprefixed names
	_ = v.BindEnv("lastfm.endpoint", "LASTFM_ENDPOINT")
	_ = v.BindEnv("lastfm.api_key", "LASTFM_API_KEY")

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("collage.max_albums", 400)
	v.SetDefault("collage.max_artists", 400)
	v.SetDefault("collage.max_tracks", 100)
	v.SetDefault("collage.fetch_timeout", 10*time.Second)
	v.SetDefault("collage.max_concurrent_fetches", 0)
	v.SetDefault("collage.max_artwork_bytes", 10<<20)

	v.SetDefault("lastfm.timeout", 15*time.Second)
}

func fromViper(v *viper.Viper) (*Config, error) {
	// Map config to struct
	cfg := &Config{
		LogLevel: v.GetString("log_level"),
		Server: ServerConfig{
			Listen:          v.GetString("server.listen"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Collage: CollageConfig{
			MaxAlbums:            v.GetInt("collage.max_albums"),
			MaxArtists:           v.GetInt("collage.max_artists"),
			MaxTracks:            v.GetInt("collage.max_tracks"),
			FetchTimeout:         v.GetDuration("collage.fetch_timeout"),
			MaxConcurrentFetches: v.GetInt("collage.max_concurrent_fetches"),
			MaxArtworkBytes:      v.GetInt64("collage.max_artwork_bytes"),
		},
		LastFM: LastFMConfig{
			Endpoint: v.GetString("lastfm.endpoint"),
			APIKey:   v.GetString("lastfm.api_key"),
			Timeout:  v.GetDuration("lastfm.timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	var missing []string
	if c.LastFM.Endpoint == "" {
		missing = append(missing, "LASTFM_ENDPOINT")
	}
	if c.LastFM.APIKey == "" {
		missing = append(missing, "LASTFM_API_KEY")
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}

	for _, limit := range []struct {
		key   string
		value int
	}{
		{"collage.max_albums", c.Collage.MaxAlbums},
		{"collage.max_artists", c.Collage.MaxArtists},
		{"collage.max_tracks", c.Collage.MaxTracks},
	} {
		if limit.value < 1 {
			return fmt.Errorf("config: %s must be at least 1, got %d", limit.key, limit.value)
		}
	}
	if c.Collage.MaxConcurrentFetches < 0 {
		return fmt.Errorf("config: collage.max_concurrent_fetches must not be negative, got %d", c.Collage.MaxConcurrentFetches)
	}
	if c.Collage.FetchTimeout < 0 {
		return fmt.Errorf("config: collage.fetch_timeout must not be negative, got %s", c.Collage.FetchTimeout)
	}
	if c.Collage.MaxArtworkBytes < 1 {
		return fmt.Errorf("config: collage.max_artwork_bytes must be positive, got %d", c.Collage.MaxArtworkBytes)
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "songstitch")
}

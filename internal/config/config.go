package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Auth settings for both login flows
	Auth AuthConfig `koanf:"auth"`

	// Catalog API settings
	API APIConfig `koanf:"api"`

	// Playback settings
	Playback PlaybackConfig `koanf:"playback"`
}

// AuthConfig holds OAuth client settings.
type AuthConfig struct {
	ClientID             string `koanf:"client_id"`
	ClientSecret         string `koanf:"client_secret"`
	RefreshMarginSeconds int    `koanf:"refresh_margin_seconds"` // refresh this long before expiry (default: 60)
}

// APIConfig holds catalog API settings.
type APIConfig struct {
	CountryCode string `koanf:"country_code"` // default: "US"
}

// PlaybackConfig holds playback defaults.
type PlaybackConfig struct {
	Quality   string `koanf:"quality"`    // "low", "high" or "lossless" (default: "lossless")
	MaxVolume int    `koanf:"max_volume"` // volume cap 1-100 (default: 100)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/ebb/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ebb", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// HasAuthConfig returns true when the OAuth client is configured.
func (c *Config) HasAuthConfig() bool {
	return c.Auth.ClientID != ""
}

// RefreshMargin returns the token refresh safety margin with the default
// applied.
func (c *Config) RefreshMargin() time.Duration {
	if c.Auth.RefreshMarginSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Auth.RefreshMarginSeconds) * time.Second
}

// CountryCode returns the catalog country code with the default applied.
func (c *Config) CountryCode() string {
	if c.API.CountryCode == "" {
		return "US"
	}
	return c.API.CountryCode
}

// MaxVolume returns the volume cap with the default applied.
func (c *Config) MaxVolume() int {
	if c.Playback.MaxVolume <= 0 || c.Playback.MaxVolume > 100 {
		return 100
	}
	return c.Playback.MaxVolume
}

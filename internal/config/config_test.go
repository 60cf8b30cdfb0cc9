//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	// Should have at least one path
	if len(paths) == 0 {
		t.Error("getConfigPaths() returned empty slice")
	}

	// Last path should be local config.toml
	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}

	// If we have home dir, first path should be ~/.config/ebb/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		expectedFirst := filepath.Join(home, ".config", "ebb", "config.toml")
		if paths[0] != expectedFirst {
			t.Errorf("first config path = %q, want %q", paths[0], expectedFirst)
		}
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	if cfg.HasAuthConfig() {
		t.Error("HasAuthConfig() = true for empty config")
	}
	if got := cfg.RefreshMargin(); got != time.Minute {
		t.Errorf("RefreshMargin() = %v, want 1m", got)
	}
	if got := cfg.CountryCode(); got != "US" {
		t.Errorf("CountryCode() = %q, want US", got)
	}
	if got := cfg.MaxVolume(); got != 100 {
		t.Errorf("MaxVolume() = %d, want 100", got)
	}
}

func TestRefreshMargin(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int
		expected time.Duration
	}{
		{name: "default when zero", seconds: 0, expected: time.Minute},
		{name: "default when negative", seconds: -5, expected: time.Minute},
		{name: "configured margin", seconds: 120, expected: 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Auth: AuthConfig{RefreshMarginSeconds: tt.seconds}}
			if got := cfg.RefreshMargin(); got != tt.expected {
				t.Errorf("RefreshMargin() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMaxVolume(t *testing.T) {
	tests := []struct {
		name     string
		value    int
		expected int
	}{
		{name: "default when zero", value: 0, expected: 100},
		{name: "default when over 100", value: 150, expected: 100},
		{name: "configured cap", value: 80, expected: 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Playback: PlaybackConfig{MaxVolume: tt.value}}
			if got := cfg.MaxVolume(); got != tt.expected {
				t.Errorf("MaxVolume() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[auth]
client_id = "cid"
client_secret = "secret"
refresh_margin_seconds = 90

[api]
country_code = "FR"

[playback]
quality = "high"
max_volume = 90
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Load reads from fixed paths; point the working directory at the temp
	// dir so ./config.toml resolves to the file above.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(wd) //nolint:errcheck

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Auth.ClientID != "cid" || cfg.Auth.ClientSecret != "secret" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if got := cfg.RefreshMargin(); got != 90*time.Second {
		t.Errorf("RefreshMargin() = %v, want 90s", got)
	}
	if got := cfg.CountryCode(); got != "FR" {
		t.Errorf("CountryCode() = %q, want FR", got)
	}
	if cfg.Playback.Quality != "high" {
		t.Errorf("quality = %q, want high", cfg.Playback.Quality)
	}
	if got := cfg.MaxVolume(); got != 90 {
		t.Errorf("MaxVolume() = %d, want 90", got)
	}
}

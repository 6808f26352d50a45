package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[cdn]
base_url = "https://music.example.com"

[player]
volume = 80
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.CDN.BaseURL != "https://music.example.com" {
		t.Errorf("CDN.BaseURL = %q", cfg.CDN.BaseURL)
	}
	if cfg.CDN.ManifestPath != "/manifest.json" {
		t.Errorf("CDN.ManifestPath = %q, want default", cfg.CDN.ManifestPath)
	}
	if cfg.Player.Volume != 80 {
		t.Errorf("Player.Volume = %d, want 80", cfg.Player.Volume)
	}
	if cfg.Player.SeekStep != 10 {
		t.Errorf("Player.SeekStep = %d, want 10", cfg.Player.SeekStep)
	}
	if cfg.Access.BrowseTier != "secret" {
		t.Errorf("Access.BrowseTier = %q, want secret", cfg.Access.BrowseTier)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFromKeepsExplicitZero(t *testing.T) {
	tests := []struct {
		name            string
		content         string
		wantVolume      int
		wantMaxFailures int
	}{
		{"unset", "[player]\ncommand = \"mpv\"\n", 50, 10},
		{"explicit zero", "[player]\nvolume = 0\nmax_failures = 0\n", 0, 0},
		{"explicit value", "[player]\nvolume = 20\nmax_failures = 3\n", 20, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			cfg, err := LoadFrom(path)
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			if cfg.Player.Volume != tt.wantVolume {
				t.Errorf("Player.Volume = %d, want %d", cfg.Player.Volume, tt.wantVolume)
			}
			if cfg.Player.MaxFailures != tt.wantMaxFailures {
				t.Errorf("Player.MaxFailures = %d, want %d", cfg.Player.MaxFailures, tt.wantMaxFailures)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NEEDLE_CDN_BASE_URL", "https://env.example.com")
	t.Setenv("NEEDLE_PLAYER_VOLUME", "25")
	t.Setenv("NEEDLE_STORAGE_BACKEND", "sqlite")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(""), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.CDN.BaseURL != "https://env.example.com" {
		t.Errorf("CDN.BaseURL = %q", cfg.CDN.BaseURL)
	}
	if cfg.Player.Volume != 25 {
		t.Errorf("Player.Volume = %d, want 25", cfg.Player.Volume)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad tier", func(c *Config) { c.Access.BrowseTier = "admin" }, "browse_tier"},
		{"bad volume", func(c *Config) { c.Player.Volume = 101 }, "volume"},
		{"missing url placeholder", func(c *Config) { c.Player.Args = []string{"--quiet"} }, "{url}"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "redis" }, "backend"},
		{"bad scheme", func(c *Config) { c.CDN.BaseURL = "ftp://x" }, "scheme"},
		{"bad manifest path", func(c *Config) { c.CDN.ManifestPath = "manifest.json" }, "manifest_path"},
		{"bad hash", func(c *Config) { c.Access.PasswordHash = "plain" }, "bcrypt"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

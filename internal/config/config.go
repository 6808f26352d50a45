package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.needlerc, $XDG_CONFIG_HOME/needle/config.toml, ~/.config/needle/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	var md toml.MetaData
	path := FindConfigFile()
	if path != "" {
		var err error
		if md, err = toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaultsFor(md)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaultsFor(md)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// FindConfigFile returns the first existing config file path.
func FindConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".needlerc"),
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "needle", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// CDN
	if v := os.Getenv("NEEDLE_CDN_BASE_URL"); v != "" {
		cfg.CDN.BaseURL = v
	}
	if v := os.Getenv("NEEDLE_CDN_AUTH_URL"); v != "" {
		cfg.CDN.AuthURL = v
	}
	if v := os.Getenv("NEEDLE_CDN_COOKIES_FILE"); v != "" {
		cfg.CDN.CookiesFile = v
	}

	// Access
	if v := os.Getenv("NEEDLE_ACCESS_PASSWORD"); v != "" {
		cfg.Access.Password = v
	}

	// Player
	if v := os.Getenv("NEEDLE_PLAYER_COMMAND"); v != "" {
		cfg.Player.Command = v
	}
	if v := os.Getenv("NEEDLE_PLAYER_VOLUME"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Player.Volume = i
		}
	}

	// Storage
	if v := os.Getenv("NEEDLE_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("NEEDLE_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}

	// TUI
	if v := os.Getenv("NEEDLE_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}
	if v := os.Getenv("NEEDLE_TUI_REFRESH_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.TUI.RefreshInterval = i
		}
	}

	// Log
	if v := os.Getenv("NEEDLE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("NEEDLE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

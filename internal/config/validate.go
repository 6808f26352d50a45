package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.CDN.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("cdn: %w", err))
	}
	if err := c.Access.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("access: %w", err))
	}
	if err := c.Player.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("player: %w", err))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks CDNConfig for errors.
func (c *CDNConfig) Validate() error {
	for name, raw := range map[string]string{"base_url": c.BaseURL, "auth_url": c.AuthURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid %s: scheme must be http or https", name)
		}
	}
	if c.ManifestPath != "" && !strings.HasPrefix(c.ManifestPath, "/") {
		return errors.New("manifest_path must start with /")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	if c.RateLimit < 0 {
		return errors.New("rate_limit must be non-negative")
	}
	return nil
}

// Validate checks AccessConfig for errors.
func (c *AccessConfig) Validate() error {
	for name, tier := range map[string]string{"browse_tier": c.BrowseTier, "download_tier": c.DownloadTier} {
		switch tier {
		case "", "guest", "authenticated", "secret":
			// valid
		default:
			return fmt.Errorf("invalid %s: %s (must be guest, authenticated, or secret)", name, tier)
		}
	}
	if c.PasswordHash != "" && !strings.HasPrefix(c.PasswordHash, "$2") {
		return errors.New("password_hash must be a bcrypt hash")
	}
	return nil
}

// Validate checks PlayerConfig for errors.
func (c *PlayerConfig) Validate() error {
	if c.Volume < 0 || c.Volume > 100 {
		return errors.New("volume must be between 0 and 100")
	}
	if c.SeekStep < 0 {
		return errors.New("seek_step must be non-negative")
	}
	if c.MaxFailures < 0 {
		return errors.New("max_failures must be non-negative")
	}
	hasURL := false
	for _, arg := range c.Args {
		if strings.Contains(arg, "{url}") {
			hasURL = true
		}
	}
	if len(c.Args) > 0 && !hasURL {
		return errors.New("args must contain a {url} placeholder")
	}
	return nil
}

// Validate checks StorageConfig for errors.
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "", "file", "sqlite", "memory":
		// valid
	default:
		return fmt.Errorf("invalid backend: %s (must be file, sqlite, or memory)", c.Backend)
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	if c.MaxSize < 0 || c.MaxBackups < 0 {
		return errors.New("max_size and max_backups must be non-negative")
	}
	return nil
}

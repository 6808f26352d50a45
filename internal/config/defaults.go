package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		CDN: CDNConfig{
			ManifestPath: "/manifest.json",
			Timeout:      30,
			RateLimit:    10,
		},
		Access: AccessConfig{
			BrowseTier:   "secret",
			DownloadTier: "secret",
		},
		Player: PlayerConfig{
			Command: "mpv",
			Args: []string{
				"--no-video",
				"--quiet",
				"--term-playing-msg=NEEDLE_DURATION=${=duration}",
				"--volume={volume}",
				"--start={start}",
				"--http-header-fields=Cookie: {cookie}",
				"{url}",
			},
			Volume:      50,
			SeekStep:    10,
			MaxFailures: 10,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Downloads: DownloadsConfig{
			Dir: defaultDownloadDir(),
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 500,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	c.ApplyDefaultsFor(toml.MetaData{})
}

// ApplyDefaultsFor is ApplyDefaults for a decoded document. Keys where
// zero is meaningful keep an explicitly written zero.
func (c *Config) ApplyDefaultsFor(md toml.MetaData) {
	d := Default()

	// CDN
	if c.CDN.ManifestPath == "" {
		c.CDN.ManifestPath = d.CDN.ManifestPath
	}
	if c.CDN.Timeout == 0 {
		c.CDN.Timeout = d.CDN.Timeout
	}
	if c.CDN.RateLimit == 0 {
		c.CDN.RateLimit = d.CDN.RateLimit
	}

	// Access
	if c.Access.BrowseTier == "" {
		c.Access.BrowseTier = d.Access.BrowseTier
	}
	if c.Access.DownloadTier == "" {
		c.Access.DownloadTier = d.Access.DownloadTier
	}

	// Player
	if c.Player.Command == "" {
		c.Player.Command = d.Player.Command
	}
	if len(c.Player.Args) == 0 {
		c.Player.Args = d.Player.Args
	}
	if c.Player.Volume == 0 && !md.IsDefined("player", "volume") {
		c.Player.Volume = d.Player.Volume
	}
	if c.Player.SeekStep == 0 {
		c.Player.SeekStep = d.Player.SeekStep
	}
	// An explicit zero allows one failure per catalog track.
	if c.Player.MaxFailures == 0 && !md.IsDefined("player", "max_failures") {
		c.Player.MaxFailures = d.Player.MaxFailures
	}

	// Storage
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}

	// Downloads
	if c.Downloads.Dir == "" {
		c.Downloads.Dir = d.Downloads.Dir
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = d.Log.MaxSize
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = d.Log.MaxBackups
	}
}

// StateDir returns the directory holding the store, analytics log and TUI log.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "needle")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".needle"
	}
	return filepath.Join(home, ".local", "state", "needle")
}

// StorePath returns the directory of the local store.
func (c *Config) StorePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return StateDir()
}

// AnalyticsPath returns the analytics event log path.
func (c *Config) AnalyticsPath() string {
	if c.Analytics.File != "" {
		return c.Analytics.File
	}
	return filepath.Join(StateDir(), "events.jsonl")
}

// TUILogPath returns the log file used while the terminal UI owns the screen.
func (c *Config) TUILogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(StateDir(), "needle.log")
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "downloads"
	}
	return filepath.Join(home, "Music", "needle")
}

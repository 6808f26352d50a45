package config

// Config is the root configuration structure.
type Config struct {
	CDN       CDNConfig       `toml:"cdn"`
	Access    AccessConfig    `toml:"access"`
	Player    PlayerConfig    `toml:"player"`
	Storage   StorageConfig   `toml:"storage"`
	Downloads DownloadsConfig `toml:"downloads"`
	Analytics AnalyticsConfig `toml:"analytics"`
	TUI       TUIConfig       `toml:"tui"`
	Log       LogConfig       `toml:"log"`
}

// CDNConfig holds catalog and media delivery settings.
type CDNConfig struct {
	BaseURL      string  `toml:"base_url"`
	ManifestPath string  `toml:"manifest_path"`
	AuthURL      string  `toml:"auth_url"`
	CookiesFile  string  `toml:"cookies_file"`
	Timeout      int     `toml:"timeout"`
	RateLimit    float64 `toml:"rate_limit"`
}

// AccessConfig holds the shared secret and tier requirements.
type AccessConfig struct {
	Password     string `toml:"password"`
	PasswordHash string `toml:"password_hash"`
	BrowseTier   string `toml:"browse_tier"`
	DownloadTier string `toml:"download_tier"`
}

// PlayerConfig holds external media player settings.
type PlayerConfig struct {
	Command     string   `toml:"command"`
	Args        []string `toml:"args"`
	Volume      int      `toml:"volume"`
	SeekStep    int      `toml:"seek_step"`
	MaxFailures int      `toml:"max_failures"`
}

// StorageConfig selects the local persistence backend.
type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// DownloadsConfig holds download settings.
type DownloadsConfig struct {
	Dir string `toml:"dir"`
}

// AnalyticsConfig holds local event log settings.
type AnalyticsConfig struct {
	Disabled bool   `toml:"disabled"`
	File     string `toml:"file"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
}

// Package config loads and edits the exiled-installer configuration file.
package config

import (
	_ "embed"
	"strings"
	"time"
)

const (
	// DefaultOwner is the GitHub owner of the release feed.
	DefaultOwner = "ExMod-Team"
	// DefaultRepository is the GitHub repository of the release feed.
	DefaultRepository = "EXILED"
	// DefaultAsset is the release asset that holds the install archive.
	DefaultAsset = "exiled.tar.gz"
	// DefaultMinimumVersion is the exclusive lower bound for installable releases.
	DefaultMinimumVersion = "8.0.0"
	// DefaultTimeoutSeconds bounds one asset download.
	DefaultTimeoutSeconds = 480
	// DefaultMaxBytes caps the downloaded archive size.
	DefaultMaxBytes int64 = 256 << 20

	// TokenEnv is checked before GitHubTokenEnv.
	TokenEnv = "EXILED_INSTALLER_GITHUB_TOKEN"
	// GitHubTokenEnv is the conventional GitHub token variable.
	GitHubTokenEnv = "GITHUB_TOKEN"
)

//go:embed default.toml
var defaultTOML []byte

// Config is the parsed config.toml.
type Config struct {
	Feed     FeedConfig     `toml:"feed"`
	Install  InstallConfig  `toml:"install"`
	Download DownloadConfig `toml:"download"`
}

// FeedConfig selects where releases come from.
type FeedConfig struct {
	Owner          string `toml:"owner"`
	Repository     string `toml:"repository"`
	Asset          string `toml:"asset"`
	MinimumVersion string `toml:"minimum_version"`
}

// InstallConfig controls which release is installed and where.
type InstallConfig struct {
	// AppData receives entries mapped as absolute. Empty means the user config dir.
	AppData string `toml:"appdata"`
	// Exiled receives entries mapped as exiled. Empty means the AppData root.
	Exiled        string `toml:"exiled"`
	PreReleases   bool   `toml:"pre_releases"`
	TargetVersion string `toml:"target_version"`
	TargetPort    string `toml:"target_port"`
	// MarkupFile replaces the embedded path-mapping table when set.
	MarkupFile string `toml:"markup_file"`
}

// DownloadConfig tunes the asset download.
type DownloadConfig struct {
	TimeoutSeconds int   `toml:"timeout_seconds"`
	MaxBytes       int64 `toml:"max_bytes"`
	// Cache is a pointer so an explicit false survives the merge with defaults.
	Cache *bool `toml:"cache"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cache := true
	return &Config{
		Feed: FeedConfig{
			Owner:          DefaultOwner,
			Repository:     DefaultRepository,
			Asset:          DefaultAsset,
			MinimumVersion: DefaultMinimumVersion,
		},
		Download: DownloadConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
			MaxBytes:       DefaultMaxBytes,
			Cache:          &cache,
		},
	}
}

// DefaultTOML returns the commented default config file.
func DefaultTOML() []byte {
	out := make([]byte, len(defaultTOML))
	copy(out, defaultTOML)
	return out
}

// CacheEnabled reports whether downloads go through the on-disk cache.
func (d DownloadConfig) CacheEnabled() bool {
	return d.Cache == nil || *d.Cache
}

// Timeout returns the download timeout as a duration.
func (d DownloadConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// GitHubToken returns the first non-empty token from TokenEnv then GitHubTokenEnv.
func GitHubToken(getenv func(string) string) string {
	for _, key := range []string{TokenEnv, GitHubTokenEnv} {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

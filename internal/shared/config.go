package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Relay       RelayConfig       `toml:"relay"`
	Mirrors     MirrorsConfig     `toml:"mirrors"`
	Providers   ProvidersConfig   `toml:"providers"`
	Credentials CredentialsConfig `toml:"credentials"`
	Library     LibraryConfig     `toml:"library"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// RelayConfig points at the optional operator-run relay backend.
type RelayConfig struct {
	BackendURL string `toml:"backend_url"`
}

// MirrorsConfig contains operator overrides for the public mirror pools.
type MirrorsConfig struct {
	CustomInvidiousURL string `toml:"custom_invidious_url"`
}

// ProvidersConfig contains per-provider timeout budgets and limits.
// Budgets are independent on purpose: a slow mirror-backed provider
// must not inherit the short budget of a fast one, and vice versa.
type ProvidersConfig struct {
	NeteaseTimeoutMS  int     `toml:"netease_timeout_ms"`
	BilibiliTimeoutMS int     `toml:"bilibili_timeout_ms"`
	YouTubeTimeoutMS  int     `toml:"youtube_timeout_ms"`
	PluginTimeoutMS   int     `toml:"plugin_timeout_ms"`
	SearchLimit       int     `toml:"search_limit"`
	MirrorRatePerSec  float64 `toml:"mirror_rate_per_sec"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Netease NeteaseConfig `toml:"netease"`
}

// NeteaseConfig contains the stored NetEase session credential.
type NeteaseConfig struct {
	Cookie string `toml:"cookie"`
}

// LibraryConfig contains local music library settings.
type LibraryConfig struct {
	DatabasePath string `toml:"database_path"`
	MusicDir     string `toml:"music_dir"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

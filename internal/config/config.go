// Package config loads and saves the client configuration: server address
// and the default chapter filter/sort options the screens start with.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Sort mode names as they appear in the config file.
const (
	SortBySource  = "source"
	SortByNumber  = "number"
	SortByFetched = "fetched"
)

// Config is the on-disk configuration.
type Config struct {
	Server   ServerConfig `mapstructure:"server" yaml:"server"`
	Chapters ChapterPrefs `mapstructure:"chapters" yaml:"chapters"`
}

// ServerConfig points the client at a manga server.
type ServerConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ChapterPrefs holds the default filter and sort options for the chapter
// list screen. The screen may change them at runtime; persisting a changed
// default is the caller's choice.
type ChapterPrefs struct {
	UnreadOnly     bool   `mapstructure:"unread_only" yaml:"unread_only"`
	DownloadedOnly bool   `mapstructure:"downloaded_only" yaml:"downloaded_only"`
	BookmarkedOnly bool   `mapstructure:"bookmarked_only" yaml:"bookmarked_only"`
	SortBy         string `mapstructure:"sort_by" yaml:"sort_by"`
	Descending     bool   `mapstructure:"descending" yaml:"descending"`
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mangadeck", "config.yml")
}

// Load reads the config from disk, with MANGADECK_* environment overrides.
// A missing file is fine: defaults apply and the first Save creates it.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.url", "http://127.0.0.1:4567")
	v.SetDefault("server.timeout", 15*time.Second)
	v.SetDefault("chapters.unread_only", false)
	v.SetDefault("chapters.downloaded_only", false)
	v.SetDefault("chapters.bookmarked_only", false)
	v.SetDefault("chapters.sort_by", SortBySource)
	v.SetDefault("chapters.descending", true)

	v.SetEnvPrefix("MANGADECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Chapters.SortBy == "" {
		cfg.Chapters.SortBy = SortBySource
	}
	return &cfg, nil
}

// Save writes the config as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

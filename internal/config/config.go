// Package config handles inspector configuration loading and management.
package config

import (
	"fmt"
	"time"
)

// Config holds all inspector settings.
type Config struct {
	Preview PreviewConfig `yaml:"preview"`
	Cache   CacheConfig   `yaml:"cache"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// PreviewConfig holds UV preview settings.
type PreviewConfig struct {
	Size              int          `yaml:"size"`    // Side of the square viewport in pixels
	Channel           string       `yaml:"channel"` // none, texcoord or lightmap
	LOD               int          `yaml:"lod"`
	Submesh           int          `yaml:"submesh"` // -1 for all
	HighlightMaterial string       `yaml:"highlight_material"`
	Colors            ColorsConfig `yaml:"colors"`
}

// ColorsConfig holds preview colors as #rrggbb or #rrggbbaa.
type ColorsConfig struct {
	Background string `yaml:"background"`
	Wire       string `yaml:"wire"`
	Highlight  string `yaml:"highlight"`
	Text       string `yaml:"text"`
}

// CacheConfig holds mesh cache settings.
type CacheConfig struct {
	Workers int `yaml:"workers"` // 0 uses one worker per CPU
}

// WatchConfig holds reimport-on-change settings.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Preview: PreviewConfig{
			Size:              512,
			Channel:           "texcoord",
			LOD:               0,
			Submesh:           -1,
			HighlightMaterial: "editor/highlight",
			Colors: ColorsConfig{
				Background: "#14141f",
				Wire:       "#e6e6e6",
				Highlight:  "#ff8c1a",
				Text:       "#e6e6e6",
			},
		},
		Cache: CacheConfig{
			Workers: 0,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 250 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that cannot be clamped silently.
func (c *Config) Validate() error {
	if c.Preview.Size <= 0 {
		return fmt.Errorf("preview.size must be positive, got %d", c.Preview.Size)
	}
	if c.Cache.Workers < 0 {
		return fmt.Errorf("cache.workers must not be negative, got %d", c.Cache.Workers)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	return nil
}

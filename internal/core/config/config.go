// Package config handles configuration loading and validation for toast.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Toasts    ToastsConfig    `yaml:"toasts"`
	TUI       TUIConfig       `yaml:"tui"`
	Scenarios ScenariosConfig `yaml:"scenarios"`
}

// ToastsConfig controls the notification queue.
type ToastsConfig struct {
	// DefaultDuration is the lifetime given to notifications whose producer
	// does not choose one.
	DefaultDuration time.Duration `yaml:"default_duration"`
	// MaxActive caps the number of simultaneously active notifications;
	// the oldest is evicted when the cap is exceeded. 0 means unlimited.
	MaxActive int `yaml:"max_active"`
	// HistoryLimit is how many retired notifications are remembered.
	HistoryLimit int    `yaml:"history_limit"`
	IDPrefix     string `yaml:"id_prefix"`
}

// TUIConfig controls the terminal renderer.
type TUIConfig struct {
	Theme    string `yaml:"theme"`
	Width    int    `yaml:"width"`
	Markdown *bool  `yaml:"markdown"` // nil = enabled
}

// MarkdownEnabled reports whether descriptions are rendered as markdown.
func (t TUIConfig) MarkdownEnabled() bool {
	return t.Markdown == nil || *t.Markdown
}

// ScenariosConfig controls `toast run`.
type ScenariosConfig struct {
	VirtualTime *bool `yaml:"virtual_time"` // nil = enabled
}

// VirtualTimeEnabled reports whether scenarios run on a fake clock.
func (s ScenariosConfig) VirtualTimeEnabled() bool {
	return s.VirtualTime == nil || *s.VirtualTime
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Toasts: ToastsConfig{
			DefaultDuration: 5 * time.Second,
			MaxActive:       0,
			HistoryLimit:    50,
			IDPrefix:        "toast",
		},
		TUI: TUIConfig{
			Theme: "tokyo-night",
			Width: 50,
		},
	}
}

// Load reads configuration from the given path. If configPath is empty or
// doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Toasts.DefaultDuration == 0 {
		c.Toasts.DefaultDuration = defaults.Toasts.DefaultDuration
	}
	if c.Toasts.IDPrefix == "" {
		c.Toasts.IDPrefix = defaults.Toasts.IDPrefix
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.TUI.Width == 0 {
		c.TUI.Width = defaults.TUI.Width
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.Toasts.DefaultDuration <= 0 {
		return fmt.Errorf("toasts.default_duration must be positive")
	}

	if c.Toasts.MaxActive < 0 {
		return fmt.Errorf("toasts.max_active cannot be negative")
	}

	if c.Toasts.HistoryLimit < 0 {
		return fmt.Errorf("toasts.history_limit cannot be negative")
	}

	if c.Toasts.IDPrefix == "" {
		return fmt.Errorf("toasts.id_prefix cannot be empty")
	}

	if c.TUI.Width < minToastWidth {
		return fmt.Errorf("tui.width must be at least %d", minToastWidth)
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

const (
	configFile         = "config.toml"
	defaultMaxMessages = 1000
	defaultSplitRatio  = 0.4
	defaultTopic       = "#"
)

// FileConfig is the TOML file structure.
type FileConfig struct {
	Proto       string             `toml:"proto"`
	MaxMessages int                `toml:"max_messages"`
	DBPath      string             `toml:"db"`
	UI          UIConfig           `toml:"ui"`
	Profiles    map[string]Profile `toml:"profiles"`
}

// UIConfig holds UI-related settings.
type UIConfig struct {
	SplitRatio  float64 `toml:"split_ratio"`
	CompactMode bool    `toml:"compact_mode"`

	// WrapWidth fixes the text wrap width of the payload pane.
	// 0 means "use the pane's current width".
	WrapWidth int `toml:"wrap_width"`
}

// Profile is a named connection profile.
type Profile struct {
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
	Topic    string `toml:"topic"`
	Proto    string `toml:"proto"`
}

// Config is the resolved runtime config after profile selection.
type Config struct {
	BrokerURL string
	Exchange  string
	Topic     string
	ProtoPath string
	DBPath    string

	MaxMessages int

	// UI
	DefaultSplitRatio float64
	CompactMode       bool
	WrapWidth         int

	// For saving prefs back
	ConfigDir string
}

// MessageLimit returns MaxMessages, falling back to the default if unset.
func (c Config) MessageLimit() int {
	if c.MaxMessages <= 0 {
		return defaultMaxMessages
	}
	return c.MaxMessages
}

// LoadFileConfig loads config.toml from configDir.
// Returns a zero-value FileConfig (no error) if the file doesn't exist.
func LoadFileConfig(configDir string) (*FileConfig, error) {
	path := filepath.Join(configDir, configFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &FileConfig{}, nil
		}
		return nil, err
	}

	var cfg FileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve merges a profile (by name) with global config and env vars into a runtime Config.
// If profileName is empty or not found, only global/env settings are used.
func (fc FileConfig) Resolve(profileName string, configDir string) Config {
	cfg := Config{
		ProtoPath: fc.Proto,
		DBPath:    fc.DBPath,
		ConfigDir: configDir,
	}

	cfg.MaxMessages = fc.MaxMessages
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = defaultMaxMessages
	}

	// UI defaults
	cfg.DefaultSplitRatio = fc.UI.SplitRatio
	if cfg.DefaultSplitRatio == 0 {
		cfg.DefaultSplitRatio = defaultSplitRatio
	}
	cfg.CompactMode = fc.UI.CompactMode
	cfg.WrapWidth = fc.UI.WrapWidth

	// Apply profile overrides
	if p, ok := fc.Profiles[profileName]; ok {
		cfg.BrokerURL = p.URL
		cfg.Exchange = p.Exchange
		cfg.Topic = p.Topic
		if p.Proto != "" {
			cfg.ProtoPath = p.Proto
		}
	}

	// Fall back to env vars for URL if not set by profile
	if cfg.BrokerURL == "" {
		if u := os.Getenv("BUSLENS_URL"); u != "" {
			cfg.BrokerURL = u
		} else if u := os.Getenv("AMQP_URL"); u != "" {
			cfg.BrokerURL = u
		}
	}

	if cfg.Topic == "" {
		cfg.Topic = defaultTopic
	}

	return cfg
}

// SaveSplitRatio reads the existing TOML (if any), updates split_ratio, and writes back.
func SaveSplitRatio(configDir string, ratio float64) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	path := filepath.Join(configDir, configFile)

	// Load existing config to preserve other fields
	cfg, err := LoadFileConfig(configDir)
	if err != nil {
		cfg = &FileConfig{}
	}
	cfg.UI.SplitRatio = ratio

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ProfileNames returns a sorted list of profile names.
func (fc FileConfig) ProfileNames() []string {
	names := make([]string, 0, len(fc.Profiles))
	for name := range fc.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

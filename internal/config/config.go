// Package config manages gitsim configuration and the .gitsim directory.
// It handles locating, loading, saving and initializing the config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	Dir          = ".gitsim"
	ConfigFile   = "config"
	DatabaseFile = "state.db"
)

// Config represents the gitsim configuration
type Config struct {
	Tool        string   `toml:"tool"`      // Command-family token, e.g. "git"
	Storage     string   `toml:"storage"`   // bolt, sqlite or memory
	Database    string   `toml:"database"`  // Relative paths resolve against the .gitsim parent
	IDScheme    string   `toml:"id_scheme"` // random, uuid, content or sequential
	Seed        int64    `toml:"seed"`      // 0 means time-seeded
	LogLevel    string   `toml:"log_level"`
	LogFormat   string   `toml:"log_format"`
	Listen      string   `toml:"listen"`
	WebhookURLs []string `toml:"webhook_urls"`
	path        string   // path to the config file, empty if defaults
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Tool:      "git",
		Storage:   "bolt",
		Database:  filepath.Join(Dir, DatabaseFile),
		IDScheme:  "random",
		LogLevel:  "info",
		LogFormat: "text",
		Listen:    "127.0.0.1:8740",
	}
}

// FindRoot finds the .gitsim directory by walking up from the current directory
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, Dir)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s directory found (or any parent up to root)", Dir)
		}
		dir = parent
	}
}

// Load reads the config at path. With an empty path it looks for
// .gitsim/config upwards from the working directory and falls back to
// Default when there is none. Unset keys keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		root, err := FindRoot()
		if err != nil {
			return cfg, nil
		}
		candidate := filepath.Join(root, ConfigFile)
		if _, err := os.Stat(candidate); err != nil {
			// A bare .gitsim directory still anchors the database path.
			cfg.Database = filepath.Join(root, DatabaseFile)
			return cfg, nil
		}
		path = candidate
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = path
	if !filepath.IsAbs(cfg.Database) {
		// Relative to the directory holding .gitsim, or to the file's own
		// directory for configs kept elsewhere.
		base := filepath.Dir(path)
		if filepath.Base(base) == Dir {
			base = filepath.Dir(base)
		}
		cfg.Database = filepath.Join(base, cfg.Database)
	}
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no file path")
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(c.path, data, 0644)
}

// Path returns the file the config was loaded from, or "" for defaults
func (c *Config) Path() string {
	return c.path
}

// Initialize creates .gitsim/config in dir with default settings
func Initialize(dir string) (*Config, error) {
	root := filepath.Join(dir, Dir)
	path := filepath.Join(root, ConfigFile)

	// Check if already initialized
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("config already exists at %s", path)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", Dir, err)
	}

	cfg := Default()
	cfg.path = path
	if err := cfg.Save(); err != nil {
		return nil, err
	}

	return cfg, nil
}

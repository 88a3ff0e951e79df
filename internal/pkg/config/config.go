// Package config reads and writes kakuri's single TOML configuration
// file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Storage holds where container state lives on disk.
type Storage struct {
	ContainersDir string `toml:"containers_dir"`
}

// Defaults holds the launch defaults applied when a flag is not given.
type Defaults struct {
	AllowNetwork bool `toml:"allow_network"`
}

// Config is the full contents of $HOME/.config/kakuri/config.toml.
type Config struct {
	Storage      Storage             `toml:"storage"`
	Defaults     Defaults            `toml:"defaults"`
	BindProfiles map[string][]string `toml:"bind_profiles"`
}

// Default returns the configuration written on first launch, carrying the
// same "dev" and "minimal" bind profiles as the original implementation.
func Default() *Config {
	return &Config{
		Storage: Storage{ContainersDir: "~/.local/kakuri/containers"},
		Defaults: Defaults{
			AllowNetwork: false,
		},
		BindProfiles: map[string][]string{
			"dev":     {"~/.config", "~/.local", "~/.cache", "~/.ssh"},
			"minimal": {"~/.cache"},
		},
	}
}

// Path returns the path to the configuration file.
func Path() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return "", errors.New("HOME environment variable not set")
	}
	return filepath.Join(home, ".config", "kakuri", "config.toml"), nil
}

// Load reads the configuration file, creating it with defaults if absent.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := cfg.Save(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}
	return &cfg, nil
}

// Save writes the configuration file, creating its parent directory if
// necessary.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	content, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to serialize config")
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// ContainersDir returns the storage.containers_dir value with "~"
// expanded against $HOME.
func (c *Config) ContainersDir() (string, error) {
	return ExpandHome(c.Storage.ContainersDir)
}

// ExpandHome replaces a leading "~" or "~/" with $HOME.
func ExpandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("HOME environment variable not set")
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// ResolveBindProfile looks up a named bind profile, returning the error
// the CLI surfaces for --bind-profile on an unknown name.
func (c *Config) ResolveBindProfile(name string) ([]string, error) {
	if c.BindProfiles == nil {
		return nil, errors.Errorf("no bind profiles configured")
	}
	binds, ok := c.BindProfiles[name]
	if !ok {
		return nil, errors.Errorf("bind profile %q not found in config", name)
	}
	return binds, nil
}

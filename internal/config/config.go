// Package config loads the persisted TOML configuration that supplies
// default flag values for every subcommand: explicit --config path, then
// ./nelst.toml, then $HOME/.nelst/config.toml, then built-in defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// Config is the full set of persisted defaults, sectioned the way the
// TOML file is laid out on disk.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Load     LoadConfig     `toml:"load"`
	Scan     ScanConfig     `toml:"scan"`
	Server   ServerConfig   `toml:"server"`
}

// DefaultsConfig holds the flags every subcommand shares.
type DefaultsConfig struct {
	Verbose   bool `toml:"verbose"`
	TimeoutMs uint64 `toml:"timeout"`
}

// LoadConfig holds defaults for the `load` subcommands.
type LoadConfig struct {
	Protocol    string `toml:"protocol"`
	Concurrency uint32 `toml:"concurrency"`
	DurationSec uint64 `toml:"duration"`
	Size        uint32 `toml:"size"`
}

// ScanConfig holds defaults for `scan port`.
type ScanConfig struct {
	Method      string `toml:"method"`
	Ports       string `toml:"ports"`
	Concurrency uint32 `toml:"concurrency"`
	TimeoutMs   uint64 `toml:"timeout"`
}

// ServerConfig holds defaults for the `server` subcommands.
type ServerConfig struct {
	Bind     string `toml:"bind"`
	Protocol string `toml:"protocol"`
}

// Default returns the built-in configuration used when no file is found.
func Default() Config {
	return Config{
		Defaults: DefaultsConfig{Verbose: false, TimeoutMs: 5000},
		Load:     LoadConfig{Protocol: "tcp", Concurrency: 10, DurationSec: 60, Size: 1024},
		Scan:     ScanConfig{Method: "tcp", Ports: "1-1024", Concurrency: 100, TimeoutMs: 1000},
		Server:   ServerConfig{Bind: "0.0.0.0:8080", Protocol: "tcp"},
	}
}

// Load resolves the configuration file per the documented precedence: an
// explicit path wins; otherwise ./nelst.toml; otherwise
// $HOME/.nelst/config.toml; otherwise the built-in defaults.
func Load(path string) (Config, error) {
	if path != "" {
		return loadFromPath(path)
	}

	if _, err := os.Stat("nelst.toml"); err == nil {
		return loadFromPath("nelst.toml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, ".nelst", "config.toml")
		if _, err := os.Stat(homeConfig); err == nil {
			return loadFromPath(homeConfig)
		}
	}

	return Default(), nil
}

func loadFromPath(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, nelsterr.Config("failed to parse config file %s: %v", path, err)
	}
	return cfg, nil
}

// ConfigDir returns $HOME/.nelst, the directory holding config.toml and
// the profiles subdirectory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nelsterr.Config("failed to resolve home directory: %v", err)
	}
	return filepath.Join(home, ".nelst"), nil
}

// ProfilesDir returns $HOME/.nelst/profiles.
func ProfilesDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles"), nil
}

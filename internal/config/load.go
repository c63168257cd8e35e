package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the Talon configuration file.
const ConfigFileName = "talon.toml"

// FindConfigFile walks up from the given directory to find talon.toml.
// Returns the absolute path to the config file, or an empty string if not
// found. Stops at the filesystem root.
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root.
			return "", nil
		}
		dir = parent
	}
}

// LoadFromFile parses the TOML file at the given path and returns the
// configuration and TOML metadata. The metadata can be used to detect
// unknown keys via MetaData.Undecoded().
func LoadFromFile(path string) (*Config, toml.MetaData, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, md, fmt.Errorf("loading config %s: %w", path, err)
	}
	return &cfg, md, nil
}

// Load resolves the effective configuration for startDir: built-in defaults
// overlaid with talon.toml values when a config file is found walking up
// from startDir. The second return is the config file path used ("" when
// running on pure defaults).
func Load(startDir string) (*Config, string, error) {
	cfg := NewDefaults()

	path, err := FindConfigFile(startDir)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return cfg, "", nil
	}

	fileCfg, _, err := LoadFromFile(path)
	if err != nil {
		return nil, "", err
	}
	merge(cfg, fileCfg)
	return cfg, path, nil
}

// merge overlays non-zero file values onto the defaults.
func merge(dst, src *Config) {
	if src.Store.DataDir != "" {
		dst.Store.DataDir = src.Store.DataDir
	}
	if src.Store.TasksFile != "" {
		dst.Store.TasksFile = src.Store.TasksFile
	}
	if src.Store.MemoryDir != "" {
		dst.Store.MemoryDir = src.Store.MemoryDir
	}
	if src.History.GitBin != "" {
		dst.History.GitBin = src.History.GitBin
	}
	if src.History.TimeoutSeconds > 0 {
		dst.History.TimeoutSeconds = src.History.TimeoutSeconds
	}
	if src.Search.MaxHistoryFiles > 0 {
		dst.Search.MaxHistoryFiles = src.Search.MaxHistoryFiles
	}
	if src.Search.PageSize > 0 {
		dst.Search.PageSize = src.Search.PageSize
	}
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	Store     string `json:"store"`                //nolint:tagliatelle // snake_case for config file
	SizeBytes uint64 `json:"size_bytes,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Store:     "words.scm",
		SizeBytes: 1 << 20,
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".wordy.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
	errStoreEmpty         = errors.New("store cannot be empty")
)

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/wordy/config.json if set, otherwise
// ~/.config/wordy/config.json. Returns empty string if the home
// directory cannot be determined.
func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "wordy", "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "wordy", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "wordy", "config.json")
	}

	return ""
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/wordy/config.json or ~/.config/wordy/config.json)
// 3. Project config file at default location (.wordy.json, if exists)
// 4. Explicit config file via configPath (if non-empty; when given, it is
// loaded instead of the project config file, not on top of it).
func LoadConfig(workDir, configPath string, env []string) (Config, error) {
	cfg := DefaultConfig()

	globalCfg, err := loadGlobalConfig(env)
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, projectCfg)

	if cfg.Store == "" {
		return Config{}, errStoreEmpty
	}

	return cfg, nil
}

// loadGlobalConfig loads the global user config file if it exists.
func loadGlobalConfig(env []string) (Config, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return Config{}, nil
	}

	cfg, _, err := loadConfigFile(globalCfgPath, false)

	return cfg, err
}

// loadProjectConfig loads the project config file (.wordy.json) or an
// explicit config file.
func loadProjectConfig(workDir, configPath string) (Config, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	cfg, _, err := loadConfigFile(cfgFile, mustExist)

	return cfg, err
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config. Returns the config and whether the file was loaded.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Store != "" {
		base.Store = overlay.Store
	}

	if overlay.SizeBytes != 0 {
		base.SizeBytes = overlay.SizeBytes
	}

	return base
}

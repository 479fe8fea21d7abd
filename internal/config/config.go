package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for studiochat.
type Config struct {
	General GeneralConfig `json:"general"`
	Backend BackendConfig `json:"backend"`
	Cache   CacheConfig   `json:"cache"`
	Studio  StudioConfig  `json:"studio"`
	Search  SearchConfig  `json:"search"`
	UI      UIConfig      `json:"ui"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"`
}

type BackendConfig struct {
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type CacheConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"`
}

type StudioConfig struct {
	Default    string `json:"default"`
	PresetsDir string `json:"presetsDir,omitempty"`
}

type SearchConfig struct {
	Limit int `json:"limit"`
}

type UIConfig struct {
	// AutoAdvanceMs delays the view transition after answering a
	// single-select question. Cosmetic only; zero disables it.
	AutoAdvanceMs int `json:"autoAdvanceMs"`
}

// DefaultConfigDir returns the default config directory (~/.studiochat).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studiochat"
	}
	return filepath.Join(home, ".studiochat")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Cache.DBPath = expandPath(cfg.Cache.DBPath)
	cfg.Studio.PresetsDir = expandPath(cfg.Studio.PresetsDir)
	cfg.General.LogFile = expandPath(cfg.General.LogFile)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func Save(path string, cfg *Config) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func Validate(cfg *Config) error {
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.baseUrl is required")
	}
	if !strings.HasPrefix(cfg.Backend.BaseURL, "http://") && !strings.HasPrefix(cfg.Backend.BaseURL, "https://") {
		return fmt.Errorf("backend.baseUrl must be an http(s) URL, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeoutSeconds must not be negative")
	}
	if cfg.UI.AutoAdvanceMs < 0 {
		return fmt.Errorf("ui.autoAdvanceMs must not be negative")
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

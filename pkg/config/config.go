package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mdview/pkg/errors"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxFileSize      int64 = 50 * 1024 * 1024
	DefaultClipboardTimeout       = time.Second
	DefaultHistoryLimit           = 50
)

// DefaultExtensions is the Markdown allow-list used for launch arguments.
var DefaultExtensions = []string{".md", ".markdown", ".mdown", ".mkd", ".mkdn", ".mdwn", ".mdtxt", ".mdtext"}

type Config struct {
	Launch    LaunchConfig    `yaml:"launch"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	History   HistoryConfig   `yaml:"history"`
	LogLevel  string          `yaml:"log_level,omitempty"`
}

type LaunchConfig struct {
	MaxFileSize int64    `yaml:"max_file_size"`
	Extensions  []string `yaml:"extensions,omitempty"`
}

type ClipboardConfig struct {
	// Backend is "auto" (native pasteboard for this OS) or "memory".
	Backend string        `yaml:"backend"`
	Timeout time.Duration `yaml:"timeout"`
}

type HistoryConfig struct {
	Path     string `yaml:"path,omitempty"`
	Limit    int    `yaml:"limit"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Default returns a config with every field populated.
func Default() *Config {
	return &Config{
		Launch: LaunchConfig{
			MaxFileSize: DefaultMaxFileSize,
			Extensions:  append([]string(nil), DefaultExtensions...),
		},
		Clipboard: ClipboardConfig{
			Backend: "auto",
			Timeout: DefaultClipboardTimeout,
		},
		History: HistoryConfig{
			Limit: DefaultHistoryLimit,
		},
	}
}

// Load reads the user config file, applies environment overrides and fills
// in defaults. A missing file is not an error.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	return loadFromPath(configPath)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "mdview", "config.yaml"), nil
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return saveToPath(configPath, cfg)
}

func saveToPath(configPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to write config file", err)
	}

	return nil
}

// HistoryPath returns the configured history database path, falling back to
// the user cache directory.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, "mdview", "history.db")
}

func loadFromPath(configPath string) (*Config, error) {
	cfg := Default()

	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(cfg)
	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile reads and parses the config file from the given path
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to parse config file", err)
	}

	return nil
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("MDVIEW_MAX_FILE_SIZE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Launch.MaxFileSize = parsed
		}
	}
	if v := os.Getenv("MDVIEW_CLIPBOARD_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Clipboard.Timeout = d
		}
	}
	if v := os.Getenv("MDVIEW_CLIPBOARD_BACKEND"); v != "" {
		cfg.Clipboard.Backend = v
	}
	if v := os.Getenv("MDVIEW_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("MDVIEW_HISTORY_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Limit = parsed
		}
	}
	if v := os.Getenv("MDVIEW_HISTORY_DISABLED"); v != "" {
		if disabled, err := strconv.ParseBool(v); err == nil {
			cfg.History.Disabled = disabled
		}
	}
	if v := os.Getenv("MDVIEW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Launch.MaxFileSize == 0 {
		cfg.Launch.MaxFileSize = DefaultMaxFileSize
	}
	if len(cfg.Launch.Extensions) == 0 {
		cfg.Launch.Extensions = append([]string(nil), DefaultExtensions...)
	}
	for i, ext := range cfg.Launch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Launch.Extensions[i] = ext
	}
	if cfg.Clipboard.Backend == "" {
		cfg.Clipboard.Backend = "auto"
	}
	if cfg.Clipboard.Timeout <= 0 {
		cfg.Clipboard.Timeout = DefaultClipboardTimeout
	}
	if cfg.History.Limit <= 0 {
		cfg.History.Limit = DefaultHistoryLimit
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Launch.MaxFileSize < 0 {
		return errors.ConfigError("launch.max_file_size must not be negative")
	}
	switch cfg.Clipboard.Backend {
	case "auto", "memory":
	default:
		return errors.ConfigError("clipboard.backend must be one of: auto, memory")
	}
	return nil
}

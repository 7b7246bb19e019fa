package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MDVIEW_MAX_FILE_SIZE",
		"MDVIEW_CLIPBOARD_TIMEOUT",
		"MDVIEW_CLIPBOARD_BACKEND",
		"MDVIEW_HISTORY_PATH",
		"MDVIEW_HISTORY_LIMIT",
		"MDVIEW_HISTORY_DISABLED",
		"MDVIEW_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}

	if cfg.Launch.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("MaxFileSize = %d, want %d", cfg.Launch.MaxFileSize, DefaultMaxFileSize)
	}
	if cfg.Clipboard.Timeout != DefaultClipboardTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Clipboard.Timeout, DefaultClipboardTimeout)
	}
	if cfg.Clipboard.Backend != "auto" {
		t.Errorf("Backend = %q, want %q", cfg.Clipboard.Backend, "auto")
	}
	if len(cfg.Launch.Extensions) != len(DefaultExtensions) {
		t.Errorf("Extensions = %v, want %v", cfg.Launch.Extensions, DefaultExtensions)
	}
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `launch:
  max_file_size: 1048576
  extensions: [md, ".MARKDOWN"]
clipboard:
  backend: memory
  timeout: 250ms
history:
  limit: 7
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}

	if cfg.Launch.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize = %d, want 1048576", cfg.Launch.MaxFileSize)
	}
	if got := strings.Join(cfg.Launch.Extensions, ","); got != ".md,.markdown" {
		t.Errorf("Extensions = %q, want %q", got, ".md,.markdown")
	}
	if cfg.Clipboard.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Clipboard.Backend)
	}
	if cfg.Clipboard.Timeout != 250*time.Millisecond {
		t.Errorf("Timeout = %v, want 250ms", cfg.Clipboard.Timeout)
	}
	if cfg.History.Limit != 7 {
		t.Errorf("History.Limit = %d, want 7", cfg.History.Limit)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MDVIEW_MAX_FILE_SIZE", "42")
	t.Setenv("MDVIEW_CLIPBOARD_TIMEOUT", "2s")
	t.Setenv("MDVIEW_HISTORY_PATH", "/tmp/h.db")
	t.Setenv("MDVIEW_LOG_LEVEL", "debug")
	t.Setenv("MDVIEW_HISTORY_DISABLED", "true")

	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}

	if cfg.Launch.MaxFileSize != 42 {
		t.Errorf("MaxFileSize = %d, want 42", cfg.Launch.MaxFileSize)
	}
	if cfg.Clipboard.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Clipboard.Timeout)
	}
	if cfg.HistoryPath() != "/tmp/h.db" {
		t.Errorf("HistoryPath() = %q, want /tmp/h.db", cfg.HistoryPath())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if !cfg.History.Disabled {
		t.Error("History.Disabled = false, want true")
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("MDVIEW_CLIPBOARD_BACKEND", "carrier-pigeon")

	if _, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("loadFromPath() expected error for unknown backend")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("launch: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	_, err := loadFromPath(configPath)
	if err == nil {
		t.Fatal("loadFromPath() expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestSaveToPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.History.Limit = 3

	if err := saveToPath(configPath, cfg); err != nil {
		t.Fatalf("saveToPath() returned error: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("saved config is not valid YAML: %v", err)
	}
	if loaded.History.Limit != 3 {
		t.Errorf("History.Limit = %d, want 3", loaded.History.Limit)
	}
	if loaded.Clipboard.Timeout != DefaultClipboardTimeout {
		t.Errorf("Clipboard.Timeout = %v, want %v", loaded.Clipboard.Timeout, DefaultClipboardTimeout)
	}
}

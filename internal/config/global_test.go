package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/alab/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := GlobalConfigPath(), filepath.Join(home, ".config", "alab", "config.yml"); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.DefaultOutputDir != "" {
		t.Errorf("DefaultOutputDir = %q, want empty", cfg.DefaultOutputDir)
	}
	if got := GetLogLevel(); got != "info" {
		t.Errorf("GetLogLevel() = %q, want info", got)
	}
}

func writeGlobalConfig(t *testing.T, content string) {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, GlobalConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	writeGlobalConfig(t, "default_output_dir: /srv/alab\nlog_level: debug\n")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.DefaultOutputDir != "/srv/alab" {
		t.Errorf("DefaultOutputDir = %q, want /srv/alab", cfg.DefaultOutputDir)
	}
	if got := GetLogLevel(); got != "debug" {
		t.Errorf("GetLogLevel() = %q, want debug", got)
	}
	if got := GetDefaultOutputDir(); got != "/srv/alab" {
		t.Errorf("GetDefaultOutputDir() = %q, want /srv/alab", got)
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	writeGlobalConfig(t, "default_output_dir: [unclosed\n")

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() should return error for invalid YAML")
	}
}

func TestGlobalConfigCache(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	writeGlobalConfig(t, "log_level: warn\n")

	first, _ := LoadGlobalConfig()
	// Point elsewhere; the cached value must still be returned
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	second, _ := LoadGlobalConfig()
	if first != second {
		t.Error("LoadGlobalConfig() did not return cached config")
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")
	if err := os.WriteFile(envPath, []byte(EnvOutputDir+"=/dotenv/out\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	t.Setenv(EnvOutputDir, "")
	os.Unsetenv(EnvOutputDir)

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(EnvOutputDir); got != "/dotenv/out" {
		t.Errorf("%s = %q, want /dotenv/out", EnvOutputDir, got)
	}

	if err := LoadDotEnv(filepath.Join(tmpDir, "missing.env")); err != nil {
		t.Errorf("LoadDotEnv() on missing file error = %v", err)
	}
}

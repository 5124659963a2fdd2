package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBootstrapFileMissing(t *testing.T) {
	b, err := loadBootstrapFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("loadBootstrapFile() failed: %v", err)
	}
	if b.Env != "" {
		t.Errorf("expected zero-value Bootstrap, got Env=%q", b.Env)
	}
}

func TestLoadBootstrapFileUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedmaster.yaml")
	if err := os.WriteFile(path, []byte("env: production\nnot_a_real_field: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadBootstrapFile(path); err == nil {
		t.Error("expected strict decode to reject unknown field, got nil error")
	}
}

func TestApplyBootstrapOnlyFillsUnsetEnvVars(t *testing.T) {
	os.Unsetenv("LOG_LEVEL")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_FORMAT")

	cfg := &Config{LogLevel: "info", LogFormat: "console"}
	b := &Bootstrap{LogLevel: "debug", LogFormat: "console-from-file"}

	applyBootstrap(cfg, b)

	if cfg.LogLevel != "debug" {
		t.Errorf("expected bootstrap value to fill unset LOG_LEVEL, got %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "console" {
		t.Errorf("expected explicit LOG_FORMAT env var to win over bootstrap, got %q", cfg.LogFormat)
	}
}

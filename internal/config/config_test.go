package config

import (
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Provider != "openai" || cfg.Model != "gpt-4o" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxFileSize != 100<<20 {
		t.Fatalf("unexpected size limit: %d", cfg.MaxFileSize)
	}
	if cfg.CallTimeout != 120*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.CallTimeout)
	}
	if cfg.LogLevel != zapcore.InfoLevel || !cfg.Development {
		t.Fatalf("unexpected logging defaults: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PROVIDER", "anthropic")
	t.Setenv("MODEL", "claude-sonnet-4-20250514")
	t.Setenv("MAX_FILE_SIZE_MB", "10")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	if cfg.Provider != "anthropic" {
		t.Fatalf("provider override ignored: %q", cfg.Provider)
	}
	if cfg.MaxFileSize != 10<<20 {
		t.Fatalf("size override ignored: %d", cfg.MaxFileSize)
	}
	if cfg.LogLevel != zapcore.DebugLevel {
		t.Fatalf("log level override ignored: %v", cfg.LogLevel)
	}
	if cfg.Development {
		t.Fatalf("production env not honored")
	}
}

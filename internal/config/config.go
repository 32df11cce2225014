// Package config loads application settings and bootstraps the global logger.
// Provider API keys are deliberately NOT part of this config: they are read
// from the environment at client-construction time, so a key added mid-session
// is picked up without a restart.
package config

import (
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Provider    string
	Model       string
	MaxFileSize int64
	CallTimeout time.Duration
	LogLevel    zapcore.Level
	Development bool
}

// Load reads promptdesk.env from the working directory (if present) and the
// process environment, environment taking precedence.
func Load() *Config {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("promptdesk")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PROVIDER", "openai")
	v.SetDefault("MODEL", "gpt-4o")
	v.SetDefault("MAX_FILE_SIZE_MB", 100)
	v.SetDefault("CALL_TIMEOUT_SECONDS", 120)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "development")

	// A missing config file is fine; the environment covers everything.
	_ = v.ReadInConfig()

	cfg := &Config{
		Provider:    v.GetString("PROVIDER"),
		Model:       v.GetString("MODEL"),
		MaxFileSize: v.GetInt64("MAX_FILE_SIZE_MB") << 20,
		CallTimeout: time.Duration(v.GetInt("CALL_TIMEOUT_SECONDS")) * time.Second,
	}

	switch v.GetString("LOG_LEVEL") {
	case "debug":
		cfg.LogLevel = zapcore.DebugLevel
	case "warn":
		cfg.LogLevel = zapcore.WarnLevel
	case "error":
		cfg.LogLevel = zapcore.ErrorLevel
	default:
		cfg.LogLevel = zapcore.InfoLevel
	}

	switch v.GetString("APP_ENV") {
	case "production", "prod":
		cfg.Development = false
	default:
		cfg.Development = true
	}

	return cfg
}

// InitLogger installs the global zap logger.
func InitLogger(cfg *Config) {
	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(cfg.LogLevel),
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if cfg.Development {
		zapConfig.Development = true
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zapConfig.EncoderConfig.TimeKey = ""
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return
	}
	zap.ReplaceGlobals(logger)
}

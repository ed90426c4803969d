// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	defaultPort    = "8080"
	defaultAppName = "Greeting API"
)

// Config holds the settings needed to boot the server.
type Config struct {
	Port     string
	AppName  string
	LogLevel zapcore.Level
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Load reads configuration from the environment after seeding it from the
// given dotenv files. Variables already set in the environment win over the
// files, and files that do not exist are skipped.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Port:     getenv("PORT", defaultPort),
		AppName:  getenv("APP_NAME", defaultAppName),
		LogLevel: zapcore.InfoLevel,
	}

	if n, err := strconv.Atoi(cfg.Port); err != nil || n < 0 || n > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %q", cfg.Port)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		lvl, err := zapcore.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

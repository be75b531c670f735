package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-livepreview/internal/config"
)

// envPrefix is the prefix of every recognized environment variable.
const envPrefix = "LIVEPREVIEW_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // LIVEPREVIEW_CONFIG: config file name or path
	Timeout    time.Duration // LIVEPREVIEW_TIMEOUT: render timeout
	Debounce   time.Duration // LIVEPREVIEW_DEBOUNCE: edit quiet period
	LogLevel   string        // LIVEPREVIEW_LOG_LEVEL: debug, info, warn, error

	Addr string // LIVEPREVIEW_ADDR: preview server address

	StorageDriver string // LIVEPREVIEW_STORAGE_DRIVER: memory, file, redis, sqlite
	StoragePath   string // LIVEPREVIEW_STORAGE_PATH: directory or database file
	RedisAddr     string // LIVEPREVIEW_REDIS_ADDR: redis host:port
	RedisPassword string // LIVEPREVIEW_REDIS_PASSWORD: redis password
	RedisDB       int    // LIVEPREVIEW_REDIS_DB: redis database index
}

// knownEnvVars lists valid LIVEPREVIEW_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"LIVEPREVIEW_CONFIG":         true,
	"LIVEPREVIEW_TIMEOUT":        true,
	"LIVEPREVIEW_DEBOUNCE":       true,
	"LIVEPREVIEW_LOG_LEVEL":      true,
	"LIVEPREVIEW_ADDR":           true,
	"LIVEPREVIEW_STORAGE_DRIVER": true,
	"LIVEPREVIEW_STORAGE_PATH":   true,
	"LIVEPREVIEW_REDIS_ADDR":     true,
	"LIVEPREVIEW_REDIS_PASSWORD": true,
	"LIVEPREVIEW_REDIS_DB":       true,
	"LIVEPREVIEW_CONTAINER":      true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable durations and numbers are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:    os.Getenv("LIVEPREVIEW_CONFIG"),
		LogLevel:      os.Getenv("LIVEPREVIEW_LOG_LEVEL"),
		Addr:          os.Getenv("LIVEPREVIEW_ADDR"),
		StorageDriver: os.Getenv("LIVEPREVIEW_STORAGE_DRIVER"),
		StoragePath:   os.Getenv("LIVEPREVIEW_STORAGE_PATH"),
		RedisAddr:     os.Getenv("LIVEPREVIEW_REDIS_ADDR"),
		RedisPassword: os.Getenv("LIVEPREVIEW_REDIS_PASSWORD"),
	}

	cfg.Timeout = envDuration("LIVEPREVIEW_TIMEOUT")
	cfg.Debounce = envDuration("LIVEPREVIEW_DEBOUNCE")

	if db := os.Getenv("LIVEPREVIEW_REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}

	return cfg
}

func envDuration(name string) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// warnUnknownEnvVars logs warnings for unrecognized LIVEPREVIEW_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values over the config file.
// Priority: CLI flags > env vars > config file > defaults (CLI flags are
// applied afterwards by mergeCommonFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Timeout > 0 {
		cfg.Render.Timeout = env.Timeout
	}
	if env.Debounce > 0 {
		cfg.Editor.Debounce = env.Debounce
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.StorageDriver != "" {
		cfg.Storage.Driver = env.StorageDriver
	}
	if env.StoragePath != "" {
		cfg.Storage.Path = env.StoragePath
	}
	if env.RedisAddr != "" {
		cfg.Storage.Addr = env.RedisAddr
	}
	if env.RedisPassword != "" {
		cfg.Storage.Password = env.RedisPassword
	}
	if env.RedisDB > 0 {
		cfg.Storage.DB = env.RedisDB
	}
}

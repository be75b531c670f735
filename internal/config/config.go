package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-livepreview/internal/fileutil"
	"github.com/alnah/go-livepreview/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field bounds.
const (
	MaxPathLength     = 4096
	MaxAddrLength     = 255
	MaxPasswordLength = 512
	MaxPrefixLength   = 64
	MaxRedisDB        = 15

	MinDebounce = 10 * time.Millisecond
	MaxDebounce = 10 * time.Second

	MinRenderTimeout = 100 * time.Millisecond
	MaxRenderTimeout = 10 * time.Minute
)

// Defaults applied by DefaultConfig.
const (
	DefaultDebounce      = 500 * time.Millisecond
	DefaultRenderTimeout = 30 * time.Second
	DefaultServerAddr    = "127.0.0.1:8080"
	DefaultStoreDriver   = "memory"
	DefaultStorePrefix   = "livepreview:"
	DefaultLogLevel      = "info"
)

// Storage drivers accepted by storage.driver.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config holds all configuration of the editor backend.
type Config struct {
	Editor  EditorConfig  `yaml:"editor"`
	Render  RenderConfig  `yaml:"render"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// EditorConfig defines edit scheduling.
type EditorConfig struct {
	Debounce time.Duration `yaml:"debounce"` // Quiet period after the last edit
}

// RenderConfig defines how the engine is invoked.
type RenderConfig struct {
	Timeout   time.Duration `yaml:"timeout"`   // Upper bound of one render attempt
	Mode      string        `yaml:"mode"`      // "markup" or "binary"
	Style     string        `yaml:"style"`     // Page stylesheet name (empty = embedded default)
	AssetPath string        `yaml:"assetPath"` // Directory of custom styles, checked before the embedded ones
}

// StorageConfig selects and configures the storage collaborator.
type StorageConfig struct {
	Driver   string `yaml:"driver"`   // memory, file, redis, sqlite
	Path     string `yaml:"path"`     // Directory (file) or database file (sqlite)
	Addr     string `yaml:"addr"`     // Redis address
	Password string `yaml:"password"` // Redis password
	DB       int    `yaml:"db"`       // Redis database index
	Prefix   string `yaml:"prefix"`   // Key prefix (redis)
}

// ServerConfig defines the preview server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig defines logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate checks every field against its bounds.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if c.Editor.Debounce != 0 && (c.Editor.Debounce < MinDebounce || c.Editor.Debounce > MaxDebounce) {
		return fmt.Errorf("%w: editor.debounce must be between %s and %s, got %s",
			ErrInvalidValue, MinDebounce, MaxDebounce, c.Editor.Debounce)
	}

	if c.Render.Timeout != 0 && (c.Render.Timeout < MinRenderTimeout || c.Render.Timeout > MaxRenderTimeout) {
		return fmt.Errorf("%w: render.timeout must be between %s and %s, got %s",
			ErrInvalidValue, MinRenderTimeout, MaxRenderTimeout, c.Render.Timeout)
	}
	switch strings.ToLower(c.Render.Mode) {
	case "", "markup", "binary":
		// valid
	default:
		return fmt.Errorf("%w: render.mode %q (must be markup or binary)", ErrInvalidValue, c.Render.Mode)
	}
	if err := validateFieldLength("render.style", c.Render.Style, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.assetPath", c.Render.AssetPath, MaxPathLength); err != nil {
		return err
	}

	if err := c.Storage.Validate(); err != nil {
		return err
	}

	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
		// valid
	default:
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}

	return nil
}

// Validate checks the storage section.
func (s *StorageConfig) Validate() error {
	switch s.Driver {
	case "", DriverMemory:
		// valid
	case DriverFile, DriverSQLite:
		if s.Path == "" {
			return fmt.Errorf("%w: storage.path is required for the %s driver", ErrInvalidValue, s.Driver)
		}
	case DriverRedis:
		if s.Addr == "" {
			return fmt.Errorf("%w: storage.addr is required for the redis driver", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: storage.driver %q (must be memory, file, redis, or sqlite)", ErrInvalidValue, s.Driver)
	}

	if err := validateFieldLength("storage.path", s.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.addr", s.Addr, MaxAddrLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.password", s.Password, MaxPasswordLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.prefix", s.Prefix, MaxPrefixLength); err != nil {
		return err
	}
	if s.DB < 0 || s.DB > MaxRedisDB {
		return fmt.Errorf("%w: storage.db must be between 0 and %d, got %d", ErrInvalidValue, MaxRedisDB, s.DB)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Editor:  EditorConfig{Debounce: DefaultDebounce},
		Render:  RenderConfig{Timeout: DefaultRenderTimeout, Mode: "markup"},
		Storage: StorageConfig{Driver: DefaultStoreDriver, Prefix: DefaultStorePrefix},
		Server:  ServerConfig{Addr: DefaultServerAddr},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c *Config) WithDefaults() *Config {
	d := DefaultConfig()
	out := *c
	if out.Editor.Debounce == 0 {
		out.Editor.Debounce = d.Editor.Debounce
	}
	if out.Render.Timeout == 0 {
		out.Render.Timeout = d.Render.Timeout
	}
	if out.Render.Mode == "" {
		out.Render.Mode = d.Render.Mode
	}
	if out.Storage.Driver == "" {
		out.Storage.Driver = d.Storage.Driver
	}
	if out.Storage.Prefix == "" {
		out.Storage.Prefix = d.Storage.Prefix
	}
	if out.Server.Addr == "" {
		out.Server.Addr = d.Server.Addr
	}
	if out.Log.Level == "" {
		out.Log.Level = d.Log.Level
	}
	return &out
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
// Missing fields are filled with defaults.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg.WithDefaults(), nil
}

// SearchPaths lists the locations tried for a config name, in order.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-livepreview/
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-livepreview", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing path of SearchPaths.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

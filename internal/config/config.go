// Package config loads the lorepo settings.
//
// Settings are resolved in this order, the last one winning:
// built-in defaults, the YAML configuration file, `LOREPO_*` environment variables.
// Nested keys are reached from the environment with a double underscore
// (e.g. LOREPO_DATABASE__DSN for database.dsn).
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"
)

const (
	// EnvPrefix is the prefix of all environment overrides.
	EnvPrefix = "LOREPO_"
	// NoAuthVariable disables the authorization enforcement when present in the environment.
	NoAuthVariable = "LOREPO_NO_AUTH"
	// DefaultFilename is the configuration file looked up when none is given.
	DefaultFilename = "lorepo.yml"
)

type (
	// A Config holds all the lorepo settings.
	Config struct {
		Address       string        `koanf:"address"`
		Debug         bool          `koanf:"debug"`
		PageSize      int           `koanf:"page_size"`
		NoAuth        bool          `koanf:"no_auth"`
		FallbackToken string        `koanf:"fallback_token"`
		ReadTimeout   time.Duration `koanf:"read_timeout"`
		WriteTimeout  time.Duration `koanf:"write_timeout"`
		Database      Database      `koanf:"database"`
		Log           Log           `koanf:"log"`
	}

	// A Database holds the persistence settings.
	Database struct {
		DSN          string `koanf:"dsn"`
		MaxOpenConns int    `koanf:"max_open_conns"`
		LogLevel     string `koanf:"log_level"`
	}

	// A Log holds the logger settings.
	Log struct {
		Level    string   `koanf:"level"`
		JSON     bool     `koanf:"json"`
		File     string   `koanf:"file"`
		Rotation Rotation `koanf:"rotation"`
	}

	// A Rotation holds the log file rotation settings.
	Rotation struct {
		MaxSize    int  `koanf:"max_size"`
		MaxBackups int  `koanf:"max_backups"`
		MaxAge     int  `koanf:"max_age"`
		Compress   bool `koanf:"compress"`
	}
)

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"address":                  "localhost:5050",
		"debug":                    false,
		"page_size":                10,
		"no_auth":                  false,
		"fallback_token":           "redarmy",
		"read_timeout":             "30s",
		"write_timeout":            "30s",
		"database.dsn":             "sqlite:///./lorepo.db",
		"database.max_open_conns":  1,
		"database.log_level":       "silent",
		"log.level":                "info",
		"log.json":                 false,
		"log.file":                 "",
		"log.rotation.max_size":    20, // megabytes
		"log.rotation.max_backups": 2,
		"log.rotation.max_age":     10, // days
		"log.rotation.compress":    false,
	}
}

// Load reads the settings from the given YAML file (optional) and the environment.
func Load(path string) (*Config, error) {
	loadDotEnv(path)

	konf := koanf.New(".")
	if err := konf.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "could not load defaults")
	}

	if path == "" {
		if _, err := os.Stat(DefaultFilename); err == nil {
			path = DefaultFilename
		}
	}
	if path != "" {
		if err := konf.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "could not read configuration file %s", path)
		}
	}

	err := konf.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		if s == NoAuthVariable {
			return "" // Handled below, any value is accepted.
		}
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not load environment")
	}

	var cfg Config
	if err := konf.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "could not decode configuration")
	}

	if _, ok := os.LookupEnv(NoAuthVariable); ok {
		cfg.NoAuth = true
	}

	if cfg.Debug && cfg.Log.Level == "info" {
		cfg.Log.Level = "debug"
	}

	return &cfg, errors.Wrap(cfg.Validate(), "invalid configuration")
}

// Validate checks the settings consistency.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return errors.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.NoAuth && c.FallbackToken == "" {
		return errors.New("fallback_token is required when no_auth is enabled")
	}
	return nil
}

// loadDotEnv loads .env files from the working directory and the configuration directory.
// Missing files are ignored and already set variables are never overridden.
func loadDotEnv(path string) {
	files := []string{".env", ".env.local"}
	dirs := []string{"."}
	if path != "" {
		dirs = append(dirs, filepath.Dir(path))
	}

	for _, dir := range dirs {
		for _, f := range files {
			_ = godotenv.Load(filepath.Join(dir, f))
		}
	}
}

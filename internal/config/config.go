/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration: a YAML file in the user scope,
// defaults for everything it leaves out, and DZC_* environment overrides on top.
// The Postgres password never lands in the file; it lives in the OS keyring.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	applog "designcanvas/internal/log"
)

// CurrentVersion is written as config_version; bump when the structure
// changes in a backward-incompatible way.
const CurrentVersion = 1

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type EditorConfig struct {
	HistoryDepth     int  `yaml:"history_depth"`
	DebounceMs       int  `yaml:"debounce_ms"`
	EnforceMaxLayers bool `yaml:"enforce_max_layers"`
	ThumbnailMaxPx   int  `yaml:"thumbnail_max_px"`
	// FontsDir holds extra .ttf/.otf families; the Go fonts are always available.
	FontsDir string `yaml:"fonts_dir,omitempty"`
}

// Debounce is the text-edit coalescing window.
func (e EditorConfig) Debounce() time.Duration {
	return time.Duration(e.DebounceMs) * time.Millisecond
}

type StorageConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	// The Postgres password is not stored on disk; see SecretStore.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Options converts the section into logger options.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: CurrentVersion,
		Editor:        EditorConfig{HistoryDepth: 50, DebounceMs: 1000, EnforceMaxLayers: false, ThumbnailMaxPx: 512},
		Storage:       StorageConfig{Driver: DriverSQLite},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// EnvPrefix is prepended to every override variable.
const EnvPrefix = "DZC"

// envOverrides mirrors the overridable settings. Pointer fields stay nil when
// the variable is unset, so only present variables replace file values.
type envOverrides struct {
	HistoryDepth     *int    `envconfig:"HISTORY_DEPTH"`
	DebounceMs       *int    `envconfig:"DEBOUNCE_MS"`
	EnforceMaxLayers *bool   `envconfig:"ENFORCE_MAX_LAYERS"`
	ThumbnailMaxPx   *int    `envconfig:"THUMBNAIL_MAX_PX"`
	FontsDir         *string `envconfig:"FONTS_DIR"`
	StorageDriver    *string `envconfig:"STORAGE_DRIVER"`
	SQLitePath       *string `envconfig:"SQLITE_PATH"`
	PostgresDSN      *string `envconfig:"POSTGRES_DSN"`
	LogLevel         *string `envconfig:"LOG_LEVEL"`
	LogFormat        *string `envconfig:"LOG_FORMAT"`
	LogSource        *bool   `envconfig:"LOG_SOURCE"`
	LogFile          *string `envconfig:"LOG_FILE"`
}

// envKeys maps dotted config keys to the variable overriding them.
var envKeys = map[string]string{
	"editor.history_depth":      "HISTORY_DEPTH",
	"editor.debounce_ms":        "DEBOUNCE_MS",
	"editor.enforce_max_layers": "ENFORCE_MAX_LAYERS",
	"editor.thumbnail_max_px":   "THUMBNAIL_MAX_PX",
	"editor.fonts_dir":          "FONTS_DIR",
	"storage.driver":            "STORAGE_DRIVER",
	"storage.sqlite_path":       "SQLITE_PATH",
	"storage.postgres_dsn":      "POSTGRES_DSN",
	"logging.level":             "LOG_LEVEL",
	"logging.format":            "LOG_FORMAT",
	"logging.source":            "LOG_SOURCE",
	"logging.file":              "LOG_FILE",
}

// Service/keys for OS keyring.
const (
	keyringService     = "DesignCanvas"
	keyringPostgresPwd = "postgres_password"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "DesignCanvas")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "DesignCanvas")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "designcanvas")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "designcanvas")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present) and applies environment
// overrides. With the postgres driver the password is read from the keyring
// and returned separately; a missing entry yields "".
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return cfg, "", err
	}
	if cfg.Storage.Driver != DriverPostgres {
		return cfg, "", nil
	}
	pwd, err := PostgresPassword()
	if err != nil {
		return cfg, "", err
	}
	return cfg, pwd, nil
}

// LoadFrom is Load for an explicit file path, without the keyring lookup.
// A missing file is not an error.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// fields absent from the file keep their defaults
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

// Save writes the config YAML to the per-user path and stores the Postgres
// password in the keyring when non-empty.
func Save(cfg AppConfig, postgresPassword string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := SaveTo(path, cfg); err != nil {
		return err
	}
	if postgresPassword != "" {
		if err := Secrets.Set(keyringService, keyringPostgresPwd, postgresPassword); err != nil {
			return err
		}
	}
	return nil
}

// SaveTo writes cfg as YAML to path.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cfg.ConfigVersion = CurrentVersion
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func applyEnvOverrides(cfg *AppConfig) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	if env.HistoryDepth != nil {
		cfg.Editor.HistoryDepth = *env.HistoryDepth
	}
	if env.DebounceMs != nil {
		cfg.Editor.DebounceMs = *env.DebounceMs
	}
	if env.EnforceMaxLayers != nil {
		cfg.Editor.EnforceMaxLayers = *env.EnforceMaxLayers
	}
	if env.ThumbnailMaxPx != nil {
		cfg.Editor.ThumbnailMaxPx = *env.ThumbnailMaxPx
	}
	if env.FontsDir != nil {
		cfg.Editor.FontsDir = *env.FontsDir
	}
	if env.StorageDriver != nil {
		cfg.Storage.Driver = *env.StorageDriver
	}
	if env.SQLitePath != nil {
		cfg.Storage.SQLitePath = *env.SQLitePath
	}
	if env.PostgresDSN != nil {
		cfg.Storage.PostgresDSN = *env.PostgresDSN
	}
	if env.LogLevel != nil {
		cfg.Logging.Level = *env.LogLevel
	}
	if env.LogFormat != nil {
		cfg.Logging.Format = *env.LogFormat
	}
	if env.LogSource != nil {
		cfg.Logging.Source = *env.LogSource
	}
	if env.LogFile != nil {
		cfg.Logging.File = *env.LogFile
	}
	return nil
}

func (c *AppConfig) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	c.Storage.SQLitePath = strings.TrimSpace(c.Storage.SQLitePath)
	c.Editor.FontsDir = strings.TrimSpace(c.Editor.FontsDir)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

// Validate reports settings the editor cannot run with.
func (c AppConfig) Validate() error {
	var problems []string
	if c.Editor.HistoryDepth < 1 {
		problems = append(problems, "editor.history_depth must be at least 1")
	}
	if c.Editor.DebounceMs < 0 {
		problems = append(problems, "editor.debounce_ms must not be negative")
	}
	if c.Editor.ThumbnailMaxPx < 1 {
		problems = append(problems, "editor.thumbnail_max_px must be positive")
	}
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			problems = append(problems, "storage.postgres_dsn is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not sqlite or postgres", c.Storage.Driver))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	suffix, ok := envKeys[key]
	if !ok {
		return "", false
	}
	name := EnvPrefix + "_" + suffix
	if os.Getenv(name) != "" {
		return name, true
	}
	return "", false
}

// SQLiteDatabase returns sqlite_path, or fallback when it is unset.
func (s StorageConfig) SQLiteDatabase(fallback string) string {
	if s.SQLitePath != "" {
		return s.SQLitePath
	}
	return fallback
}

var kvEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// PostgresURL injects password into a URL-form DSN. Key/value DSNs get a
// password= pair appended. An empty password leaves the DSN as is.
func (s StorageConfig) PostgresURL(password string) (string, error) {
	dsn := strings.TrimSpace(s.PostgresDSN)
	if password == "" || dsn == "" {
		return dsn, nil
	}
	if !strings.Contains(dsn, "://") {
		return dsn + " password='" + kvEscaper.Replace(password) + "'", nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse postgres dsn: %w", err)
	}
	user := ""
	if u.User != nil {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}

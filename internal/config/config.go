// Package config loads gamebooks settings from a TOML file, a .env file and
// GAMEBOOKS_* environment variables, in increasing precedence.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GAMEBOOKS_"

// Persistence holds the autosave debounce windows.
type Persistence struct {
	SaveDebounceMS     int `toml:"save_debounce_ms"`
	ViewportDebounceMS int `toml:"viewport_debounce_ms"`
}

// Catalog selects the database holding the library index, asset metadata,
// revisions and settings.
type Catalog struct {
	Driver          string `toml:"driver"`
	DSN             string `toml:"dsn"`
	Database        string `toml:"database"`
	KeychainAccount string `toml:"keychain_account"`
}

type Revisions struct {
	Schedule string `toml:"schedule"`
	Max      int    `toml:"max"`
}

type Editor struct {
	Command string `toml:"command"`
}

type Config struct {
	DataDir     string      `toml:"data_dir"`
	Persistence Persistence `toml:"persistence"`
	Catalog     Catalog     `toml:"catalog"`
	Revisions   Revisions   `toml:"revisions"`
	Editor      Editor      `toml:"editor"`
}

// DefaultConfigPath returns the user-level configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/gamebooks/config.toml")
}

// Load reads the file at path (or the default locations when path is empty),
// applies environment overrides and validates the result. It also reports
// the resolved path and whether a file was found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		if env, ok := os.LookupEnv(EnvPrefix + "CONFIG"); ok {
			path = env
		}
	}
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("gamebooks.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("DATA_DIR", &c.DataDir)
	str("CATALOG_DRIVER", &c.Catalog.Driver)
	str("CATALOG_DSN", &c.Catalog.DSN)
	str("CATALOG_DATABASE", &c.Catalog.Database)
	str("CATALOG_KEYCHAIN_ACCOUNT", &c.Catalog.KeychainAccount)
	str("REVISIONS_SCHEDULE", &c.Revisions.Schedule)
	str("EDITOR_COMMAND", &c.Editor.Command)
	if err := num("SAVE_DEBOUNCE_MS", &c.Persistence.SaveDebounceMS); err != nil {
		return err
	}
	if err := num("VIEWPORT_DEBOUNCE_MS", &c.Persistence.ViewportDebounceMS); err != nil {
		return err
	}
	return num("REVISIONS_MAX", &c.Revisions.Max)
}

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaultDataDir
	}
	if c.DataDir, err = ExpandPath(c.DataDir); err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}

	c.Catalog.Driver = strings.ToLower(strings.TrimSpace(c.Catalog.Driver))
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = defaultCatalogDriver
	}
	c.Catalog.DSN = strings.TrimSpace(c.Catalog.DSN)
	if c.Catalog.Driver == "sqlite" {
		if c.Catalog.DSN == "" {
			c.Catalog.DSN = filepath.Join(c.DataDir, defaultCatalogFile)
		} else if c.Catalog.DSN, err = ExpandPath(c.Catalog.DSN); err != nil {
			return fmt.Errorf("catalog.dsn: %w", err)
		}
	}
	if strings.TrimSpace(c.Catalog.Database) == "" {
		c.Catalog.Database = defaultCatalogDatabase
	}

	if strings.TrimSpace(c.Revisions.Schedule) == "" {
		c.Revisions.Schedule = defaultRevisionSchedule
	}
	c.Editor.Command = strings.TrimSpace(c.Editor.Command)
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.Catalog.Driver {
	case "sqlite", "postgres", "mysql", "mongodb":
	default:
		return fmt.Errorf("catalog.driver: unsupported driver %q", c.Catalog.Driver)
	}
	if c.Catalog.Driver != "sqlite" && c.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn: required for driver %s", c.Catalog.Driver)
	}
	if c.Persistence.SaveDebounceMS <= 0 {
		return errors.New("persistence.save_debounce_ms must be positive")
	}
	if c.Persistence.ViewportDebounceMS <= 0 {
		return errors.New("persistence.viewport_debounce_ms must be positive")
	}
	if c.Revisions.Max <= 0 {
		return errors.New("revisions.max must be positive")
	}
	return nil
}

// SaveDelay is the document autosave debounce.
func (c *Config) SaveDelay() time.Duration {
	return time.Duration(c.Persistence.SaveDebounceMS) * time.Millisecond
}

// ViewportDelay is the viewport autosave debounce.
func (c *Config) ViewportDelay() time.Duration {
	return time.Duration(c.Persistence.ViewportDebounceMS) * time.Millisecond
}

// DraftDir holds node drafts while they are open in the editor.
func (c *Config) DraftDir() string {
	return filepath.Join(c.DataDir, "drafts")
}

// EnsureDirectories creates the data directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.DataDir, err)
	}
	return nil
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

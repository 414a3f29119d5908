// Package config loads tada's settings from ~/.tada/config.{yml,yaml,toml},
// environment overrides and defaults, in that order of precedence (lowest
// first: defaults, file, env).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/tada/internal/apperr"
	"github.com/Makepad-fr/tada/internal/store"
)

const dirName = ".tada"

// candidate file names, searched in order inside the tada directory
var configFileNames = []string{"config.yml", "config.yaml", "config.toml"}

type StoreConfig struct {
	Backend string `yaml:"backend" toml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" toml:"path" mapstructure:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" mapstructure:"level"`
	Format string `yaml:"format" toml:"format" mapstructure:"format"` // "text" | "json"
	File   string `yaml:"file" toml:"file" mapstructure:"file"`
}

type Config struct {
	Store StoreConfig `yaml:"store" toml:"store" mapstructure:"store"`
	// LoginDelay is the pause between a successful login and the switch to
	// the todo screen. Zero switches immediately.
	LoginDelay time.Duration `yaml:"login_delay" toml:"login_delay" mapstructure:"login_delay"`
	Theme      string        `yaml:"theme" toml:"theme" mapstructure:"theme"`
	Log        LogConfig     `yaml:"log" toml:"log" mapstructure:"log"`

	// Dir is the tada directory defaults are rooted at.
	Dir string `yaml:"-" toml:"-" mapstructure:"-"`
	// Source is the file the config was read from, empty when none was found.
	Source string `yaml:"-" toml:"-" mapstructure:"-"`
}

// Dir returns ~/.tada.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Dir: dir,
		Store: StoreConfig{
			Backend: store.BackendJSON,
		},
		LoginDelay: time.Second,
		Theme:      "classic",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(dir, "logs", "tada-"+time.Now().Format("2006-01-02")+".log"),
		},
	}
}

// Load reads the config file at path, or the first candidate inside ~/.tada
// when path is empty, then applies environment overrides and validates.
// A missing default file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	cfg := Default(dir)

	if path == "" {
		path = findConfigFile(dir)
	} else if _, err := os.Stat(path); err != nil {
		return nil, apperr.ConfigInvalid(fmt.Sprintf("config file not found: %s", path)).
			WithDetail("path", path)
	}

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
		cfg.Source = path
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile(dir string) string {
	for _, name := range configFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// mergeFile decodes the file into a generic map first so that keys absent
// from the file keep their defaults.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	raw := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return apperr.Wrap(err, apperr.CodeConfigInvalid, "parse config file").WithDetail("path", path)
	}
	return c.decode(raw)
}

func (c *Config) decode(raw map[string]interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return apperr.Wrap(err, apperr.CodeConfigInvalid, "decode config")
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("TADA_STORE")); v != "" {
		c.Store.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("TADA_STORE_PATH")); v != "" {
		c.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("TADA_THEME")); v != "" {
		c.Theme = v
	}
	if v := strings.TrimSpace(os.Getenv("TADA_LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("TADA_LOGIN_DELAY")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return apperr.ConfigInvalid("TADA_LOGIN_DELAY: " + err.Error())
		}
		c.LoginDelay = d
	}
	return nil
}

// StorePath returns the configured store path, or the backend's default file
// inside Dir.
func (c *Config) StorePath() string {
	if p := strings.TrimSpace(c.Store.Path); p != "" {
		return p
	}
	switch c.Store.Backend {
	case store.BackendSQLite:
		return filepath.Join(c.Dir, "storage.db")
	case store.BackendMemory:
		return ""
	default:
		return filepath.Join(c.Dir, "storage.json")
	}
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case store.BackendJSON, store.BackendSQLite, store.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store.backend must be json, sqlite or memory, got %q", c.Store.Backend))
	}
	if c.LoginDelay < 0 {
		errs = append(errs, fmt.Errorf("login_delay must not be negative, got %s", c.LoginDelay))
	}
	switch strings.ToLower(c.Theme) {
	case "classic", "neon", "mono":
	default:
		errs = append(errs, fmt.Errorf("theme must be classic, neon or mono, got %q", c.Theme))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return apperr.Wrap(errors.Join(errs...), apperr.CodeConfigInvalid, "invalid configuration")
	}
	return nil
}

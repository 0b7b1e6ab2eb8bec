// Package config loads tablo's layered configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tablo/internal/model"
	"tablo/internal/query"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes environment overrides (TABLO_ENDPOINT, TABLO_LOG_LEVEL, ...).
const EnvPrefix = "TABLO_"

const (
	// DefaultEndpoint is the demo customers collection.
	DefaultEndpoint = "https://6512409eb8c6ce52b3957593.mockapi.io/customers"
	// DefaultTotalItems is the demo collection's size. The demo endpoint
	// returns a bare array with no count, so paging relies on this value.
	// It applies only while total_items is unset and Endpoint is the demo.
	DefaultTotalItems = 100

	defaultTimeout   = "10s"
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
	appDirName       = ".tablo"
	configFileName   = "config.yaml"
)

// DefaultColumns mirror the demo customers collection.
var DefaultColumns = []model.Column{
	{Name: "id", Label: "ID"},
	{Name: "first_name", Label: "First Name"},
	{Name: "last_name", Label: "Last Name"},
	{Name: "gender", Label: "Gender"},
	{Name: "job", Label: "Job Title"},
}

// Config is the resolved configuration.
type Config struct {
	Endpoint    string         `koanf:"endpoint" validate:"required,url"`
	Columns     []model.Column `koanf:"columns" validate:"dive"`
	TotalItems  int            `koanf:"total_items" validate:"gte=0"`
	Timeout     time.Duration  `koanf:"timeout" validate:"gte=0"`
	DBPath      string         `koanf:"db_path" validate:"required"`
	PrefsPath   string         `koanf:"prefs_path"`
	LogFile     string         `koanf:"log_file"`
	LogLevel    string         `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string         `koanf:"log_format" validate:"oneof=text json"`
	ResetPageOn []string       `koanf:"reset_page_on"`

	// Source is the config file that was read, if any.
	Source string `koanf:"-"`
}

// ResetPolicy resolves ResetPageOn.
func (c Config) ResetPolicy() (query.ResetPolicy, error) {
	return query.ParseResetPolicy(c.ResetPageOn)
}

// AppDir returns ~/.tablo.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, appDirName), nil
}

// Load resolves configuration with precedence flags > env > file > defaults.
// An explicit cfgFile must exist; otherwise ~/.tablo/config.yaml is read
// when present. Only flags that were set on the command line take effect.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	appDir, err := AppDir()
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// 1. Defaults
	columns := make([]any, 0, len(DefaultColumns))
	for _, c := range DefaultColumns {
		columns = append(columns, map[string]any{"name": c.Name, "label": c.Label})
	}
	if err := k.Load(confmap.Provider(map[string]any{
		"endpoint":   DefaultEndpoint,
		"columns":    columns,
		"timeout":    defaultTimeout,
		"db_path":    filepath.Join(appDir, "tablo.db"),
		"prefs_path": filepath.Join(appDir, "ui_prefs.json"),
		"log_file":   filepath.Join(appDir, "tablo.log"),
		"log_level":  defaultLogLevel,
		"log_format": defaultLogFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	source, err := findConfigFile(cfgFile, appDir)
	if err != nil {
		return nil, err
	}
	if source != "" {
		if err := k.Load(file.Provider(source), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", source, err)
		}
	}

	// 3. Environment: TABLO_TOTAL_ITEMS -> total_items
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "db":
				key = "db_path"
			case "config", "query", "view", "format", "limit":
				// Command options, not configuration.
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Source = source
	if !k.Exists("total_items") && cfg.Endpoint == DefaultEndpoint {
		cfg.TotalItems = DefaultTotalItems
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the page reset triggers.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q check", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.ResetPolicy(); err != nil {
		return fmt.Errorf("invalid config: reset_page_on: %w", err)
	}
	return nil
}

func findConfigFile(explicit, appDir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	candidate := filepath.Join(appDir, configFileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", nil
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "FORMWIZARD"

// Config holds the settings of a wizard host.
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Wizard   WizardConfig   `mapstructure:"wizard"`
	Code     CodeConfig     `mapstructure:"code"`
	Log      LogConfig      `mapstructure:"log"`
}

// StoreConfig selects where form sessions are kept.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	Namespace   string `mapstructure:"namespace"`
	WriteBehind bool   `mapstructure:"write_behind"`
}

type ResolverConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// Data is a YAML reference-data file; empty uses the bundled list.
	Data string `mapstructure:"data"`
}

type WizardConfig struct {
	FormKey        string `mapstructure:"form_key"`
	MinAge         int    `mapstructure:"min_age"`
	PhoneMinDigits int    `mapstructure:"phone_min_digits"`
}

type CodeConfig struct {
	Length int `mapstructure:"length"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Load reads configuration from path (or FORMWIZARD_CONFIG, or
// ~/.config/formwizard/config.*) and the environment. Env var overrides use
// prefix FORMWIZARD_, e.g. FORMWIZARD_STORE_DRIVER=memory.
func Load(path string) (Config, error) {
	v := viper.New()

	home, _ := os.UserHomeDir()
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.path", filepath.Join(home, ".local", "share", "formwizard", "forms.db"))
	v.SetDefault("store.namespace", "form")
	v.SetDefault("store.write_behind", true)
	v.SetDefault("resolver.timeout", "8s")
	v.SetDefault("resolver.data", "")
	v.SetDefault("wizard.form_key", "onboarding")
	v.SetDefault("wizard.min_age", 18)
	v.SetDefault("wizard.phone_min_digits", 10)
	v.SetDefault("code.length", 6)
	v.SetDefault("log.level", "info")

	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "formwizard"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("invalid config: store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid config: unknown store.driver %q", c.Store.Driver)
	}
	if strings.TrimSpace(c.Wizard.FormKey) == "" {
		return fmt.Errorf("invalid config: wizard.form_key is required")
	}
	if c.Code.Length < 1 {
		return fmt.Errorf("invalid config: code.length must be positive, got %d", c.Code.Length)
	}
	if c.Resolver.Timeout <= 0 {
		return fmt.Errorf("invalid config: resolver.timeout must be positive")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log.level %q", s)
	}
	return level, nil
}

// SlogLevel is the configured level, falling back to info.
func (c LogConfig) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.Level)
	return level
}

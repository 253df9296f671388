package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/tphummel/crowpanel/internal/db"
)

// EnvConfig names the environment variable holding an explicit config file.
const EnvConfig = "CROWPANEL_CONFIG"

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Prefs    PrefsConfig    `mapstructure:"prefs"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// PrefsConfig selects the key-value namespace holding the profiles.
type PrefsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// HTTPConfig holds status API settings.
type HTTPConfig struct {
	Addr  string `mapstructure:"addr"`
	Token string `mapstructure:"token"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

func home() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return os.Getenv("HOME")
}

// Load reads configuration from file and env. Env var overrides use prefix
// CROWPANEL_, e.g. CROWPANEL_HTTP_TOKEN. A missing default config file is not
// an error; a missing file named by CROWPANEL_CONFIG is.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("database.path", filepath.Join(home(), ".local", "share", "crowpanel", "crowpanel.db"))
	v.SetDefault("prefs.namespace", "crowpanel")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetConfigType("toml")

	cfgPath := os.Getenv(EnvConfig)
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home(), ".config", "crowpanel"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CROWPANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Validate checks the settings every command depends on.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	ns := c.Prefs.Namespace
	if ns == "" {
		return errors.New("prefs.namespace is required")
	}
	if utf8.RuneCountInString(ns) > db.MaxKeyLen {
		return fmt.Errorf("prefs.namespace %q is longer than %d characters", ns, db.MaxKeyLen)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

// LogFile returns log.file, or crowpanel.log next to the database when unset.
func (c Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(filepath.Dir(c.Database.Path), "crowpanel.log")
}

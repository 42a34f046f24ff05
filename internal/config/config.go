package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HAULBOARD"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	DB        DBConfig        `yaml:"db" toml:"db"`
	Log       LogConfig       `yaml:"log" toml:"log"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Tracker   TrackerConfig   `yaml:"tracker" toml:"tracker"`
}

type ServerConfig struct {
	Host string `yaml:"host" toml:"host" env:"SERVER_HOST"`
	Port int    `yaml:"port" toml:"port" env:"SERVER_PORT"`
}

type DBConfig struct {
	Path string `yaml:"path" toml:"path" env:"DB_PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level" env:"LOG_LEVEL"`
	Path  string `yaml:"path" toml:"path" env:"LOG_PATH"`
}

// TransportConfig selects how MCP clients connect: "http" or "stdio".
type TransportConfig struct {
	Mode string `yaml:"mode" toml:"mode" env:"TRANSPORT_MODE"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" env:"AUTH_ENABLED"`
}

// TrackerConfig covers the tracking board's mirror, backups and inbox.
// Backups run only with a schedule; the inbox runs only with a directory.
type TrackerConfig struct {
	Mirror         string `yaml:"mirror" toml:"mirror" env:"TRACKER_MIRROR"`
	MirrorDir      string `yaml:"mirror_dir" toml:"mirror_dir" env:"TRACKER_MIRROR_DIR"`
	Tenant         string `yaml:"tenant" toml:"tenant" env:"TRACKER_TENANT"`
	BackupSchedule string `yaml:"backup_schedule" toml:"backup_schedule" env:"TRACKER_BACKUP_SCHEDULE"`
	BackupDir      string `yaml:"backup_dir" toml:"backup_dir" env:"TRACKER_BACKUP_DIR"`
	InboxDir       string `yaml:"inbox_dir" toml:"inbox_dir" env:"TRACKER_INBOX_DIR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "haulboard.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Tracker: TrackerConfig{
			Mirror:    "sqlite",
			MirrorDir: "data/mirror",
			Tenant:    "default",
			BackupDir: "data/backups",
		},
	}
}

// Load reads configuration from defaults, an optional file and environment
// variables, in that order. An empty path falls back to
// HAULBOARD_CONFIG_PATH. Files ending in .toml are read as TOML, anything
// else as YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(reflect.ValueOf(&cfg).Elem()); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q: want http or stdio", c.Transport.Mode)
	}
	switch c.Tracker.Mirror {
	case "sqlite":
	case "file":
		if c.Tracker.MirrorDir == "" {
			return fmt.Errorf("tracker.mirror_dir is required for the file mirror")
		}
	default:
		return fmt.Errorf("invalid tracker mirror %q: want sqlite or file", c.Tracker.Mirror)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Tracker.Tenant == "" {
		return fmt.Errorf("tracker.tenant is required")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// applyEnv walks the struct and overrides every field carrying an env tag
// whose variable is set.
func applyEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		sf := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnv(field); err != nil {
				return err
			}
			continue
		}

		tag := sf.Tag.Get("env")
		if tag == "" {
			continue
		}
		name := EnvPrefix + "_" + tag
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			continue
		}

		converted, err := cast.FromType(strings.TrimSpace(raw), field.Type())
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		field.Set(reflect.ValueOf(converted))
	}
	return nil
}

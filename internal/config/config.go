package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// ThemeConfig holds the terminal colour scheme. Empty fields fall back to the
// preset.
type ThemeConfig struct {
	Preset        string `mapstructure:"preset"`
	Primary       string `mapstructure:"primary"`
	Secondary     string `mapstructure:"secondary"`
	Accent        string `mapstructure:"accent"`
	Muted         string `mapstructure:"muted"`
	Danger        string `mapstructure:"danger"`
	Marked        string `mapstructure:"marked"`
	Background    string `mapstructure:"background"`
	MarkdownStyle string `mapstructure:"markdown_style"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FirebaseConfig holds the identity and Firestore project settings.
type FirebaseConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	APIKey          string `mapstructure:"api_key"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// RedisConfig holds the redis backend settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// PostgresConfig holds the postgres backend settings.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ServeConfig holds settings for `daybook serve`.
type ServeConfig struct {
	Addr           string `mapstructure:"addr"`
	BackupSchedule string `mapstructure:"backup_schedule"`
	BackupDir      string `mapstructure:"backup_dir"`
	BackupKeep     int    `mapstructure:"backup_keep"`
}

// ShellConfig holds settings for shell prompt integration.
type ShellConfig struct {
	CacheTTL string `mapstructure:"cache_ttl"`
}

// Config holds the application configuration.
type Config struct {
	Storage  string         `mapstructure:"storage"`
	DataDir  string         `mapstructure:"data_dir"`
	Editor   string         `mapstructure:"editor"`
	MaxWidth int            `mapstructure:"max_width"`
	Theme    ThemeConfig    `mapstructure:"theme"`
	Log      LogConfig      `mapstructure:"log"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Serve    ServeConfig    `mapstructure:"serve"`
	Shell    ShellConfig    `mapstructure:"shell"`
}

// envKeys maps nested keys such as redis.addr to DAYBOOK_REDIS_ADDR.
var envKeys = strings.NewReplacer(".", "_")

// Backends lists the accepted values of the storage key.
var Backends = []string{"local", "markdown", "sqlite", "redis", "postgres", "firestore"}

// DefaultDataDir returns the default data directory (~/.daybook/).
func DefaultDataDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".", ".daybook")
	}
	return filepath.Join(home, ".daybook")
}

// Load reads configuration from file, environment variables, and defaults.
// A .env file in the working directory is loaded into the environment first;
// variables already set win.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()

	// Defaults
	v.SetDefault("storage", "local")
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("editor", "")
	v.SetDefault("max_width", 100)
	v.SetDefault("theme.preset", "default-dark")
	v.SetDefault("theme.primary", "")
	v.SetDefault("theme.secondary", "")
	v.SetDefault("theme.accent", "")
	v.SetDefault("theme.muted", "")
	v.SetDefault("theme.danger", "")
	v.SetDefault("theme.marked", "")
	v.SetDefault("theme.background", "")
	v.SetDefault("theme.markdown_style", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("firebase.project_id", "")
	v.SetDefault("firebase.api_key", "")
	v.SetDefault("firebase.credentials_file", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "diary_entries")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.backup_schedule", "")
	v.SetDefault("serve.backup_dir", "")
	v.SetDefault("serve.backup_keep", 30)
	v.SetDefault("shell.cache_ttl", "5m")

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// XDG support
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "daybook"))
		}
		v.AddConfigPath(DefaultDataDir())
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}

	// Environment variables: DAYBOOK_STORAGE, DAYBOOK_REDIS_ADDR, etc.
	v.SetEnvPrefix("DAYBOOK")
	v.SetEnvKeyReplacer(envKeys)
	v.AutomaticEnv()

	// Read config file (ignore not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configPath != "" {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := expandPaths(cfg); err != nil {
		return nil, err
	}
	if cfg.Serve.BackupDir == "" {
		cfg.Serve.BackupDir = filepath.Join(cfg.DataDir, "backups")
	}

	return cfg, nil
}

// expandPaths resolves a leading ~ in path settings.
func expandPaths(cfg *Config) error {
	for _, p := range []*string{&cfg.DataDir, &cfg.Serve.BackupDir, &cfg.Firebase.CredentialsFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding %s: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

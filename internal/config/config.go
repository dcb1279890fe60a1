// Package config loads quranpipe settings from defaults, the config file,
// QURANPIPE_* environment variables and bound CLI flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/engsaleh/quran-pipeline/internal/logging"
)

// EnvPrefix is the environment variable prefix; "api.timeout" is read
// from QURANPIPE_API_TIMEOUT.
const EnvPrefix = "QURANPIPE"

// FileName is the config file base name searched in the working and home
// directories.
const FileName = ".quranpipe"

// APIConfig configures the upstream HTTP client.
type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	KeepAlive       time.Duration `mapstructure:"keepalive"`
	MaxRetries      int           `mapstructure:"max_retries"`
	BackoffBase     time.Duration `mapstructure:"backoff_base"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxConnsPerHost int           `mapstructure:"max_conns_per_host"`
}

// EditionsConfig names the upstream text editions.
type EditionsConfig struct {
	Simple  string `mapstructure:"simple"`
	Uthmani string `mapstructure:"uthmani"`
}

// OutputConfig places the exported files. The JSON, statistics, report
// and bundle names are relative to Dir; the database file may be absolute.
type OutputConfig struct {
	Dir            string `mapstructure:"dir"`
	DatabaseFile   string `mapstructure:"database_file"`
	CompleteJSON   string `mapstructure:"complete_json"`
	SimpleJSON     string `mapstructure:"simple_json"`
	StatisticsFile string `mapstructure:"statistics_file"`
	ReportFile     string `mapstructure:"report_file"`
	BundleFile     string `mapstructure:"bundle_file"`
	Bundle         bool   `mapstructure:"bundle"`
}

// Path resolves name against the output directory.
func (o OutputConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(o.Dir, name)
}

// PostgresConfig enables the optional PostgreSQL mirror when DSN is set.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig configures the log file.
type LogConfig struct {
	File   string `mapstructure:"file"`
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config holds all runtime configuration for a run.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Editions EditionsConfig `mapstructure:"editions"`
	Output   OutputConfig   `mapstructure:"output"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Log      LogConfig      `mapstructure:"log"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.alquran.cloud/v1")
	v.SetDefault("api.user_agent", "")
	v.SetDefault("api.timeout", 60*time.Second)
	v.SetDefault("api.connect_timeout", 30*time.Second)
	v.SetDefault("api.keepalive", 30*time.Second)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.backoff_base", time.Second)
	v.SetDefault("api.max_conns", 10)
	v.SetDefault("api.max_conns_per_host", 5)

	v.SetDefault("editions.simple", "quran-simple")
	v.SetDefault("editions.uthmani", "quran-uthmani")

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.database_file", "quran_database.sqlite")
	v.SetDefault("output.complete_json", "quran_complete.json")
	v.SetDefault("output.simple_json", "quran_simple.json")
	v.SetDefault("output.statistics_file", "quran_statistics.json")
	v.SetDefault("output.report_file", "quran_validation.yaml")
	v.SetDefault("output.bundle_file", "quran_bundle.tar.xz")
	v.SetDefault("output.bundle", true)

	v.SetDefault("postgres.dsn", "")

	v.SetDefault("log.file", logging.DefaultFile)
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads path, or searches for FileName in the given directories
// when path is empty. A missing searched file is not an error.
func ReadFile(v *viper.Viper, path string, searchDirs ...string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	for _, dir := range searchDirs {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.base_url: %q is not an http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		add("api.timeout must be positive")
	}
	if c.API.ConnectTimeout <= 0 {
		add("api.connect_timeout must be positive")
	}
	if c.API.KeepAlive <= 0 {
		add("api.keepalive must be positive")
	}
	if c.API.MaxRetries <= 0 {
		add("api.max_retries must be positive")
	}
	if c.API.BackoffBase < 0 {
		add("api.backoff_base must not be negative")
	}
	if c.API.MaxConns <= 0 || c.API.MaxConnsPerHost <= 0 {
		add("api.max_conns and api.max_conns_per_host must be positive")
	}

	if strings.TrimSpace(c.Editions.Simple) == "" || strings.TrimSpace(c.Editions.Uthmani) == "" {
		add("editions.simple and editions.uthmani must be set")
	}

	paths := []struct{ key, val string }{
		{"output.dir", c.Output.Dir},
		{"output.database_file", c.Output.DatabaseFile},
		{"output.complete_json", c.Output.CompleteJSON},
		{"output.simple_json", c.Output.SimpleJSON},
		{"output.statistics_file", c.Output.StatisticsFile},
		{"output.report_file", c.Output.ReportFile},
		{"output.bundle_file", c.Output.BundleFile},
	}
	for i, p := range paths {
		switch {
		case strings.TrimSpace(p.val) == "":
			add("%s must not be empty", p.key)
		case i > 1 && filepath.IsAbs(p.val):
			add("%s must be relative to output.dir", p.key)
		}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level: %v", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		add("log.format: %v", err)
	}

	return errors.Join(errs...)
}

// Settings returns the configuration as nested sections with durations
// rendered as strings, ready for display.
func (c Config) Settings() map[string]map[string]any {
	return map[string]map[string]any{
		"api": {
			"base_url":           c.API.BaseURL,
			"user_agent":         c.API.UserAgent,
			"timeout":            c.API.Timeout.String(),
			"connect_timeout":    c.API.ConnectTimeout.String(),
			"keepalive":          c.API.KeepAlive.String(),
			"max_retries":        c.API.MaxRetries,
			"backoff_base":       c.API.BackoffBase.String(),
			"max_conns":          c.API.MaxConns,
			"max_conns_per_host": c.API.MaxConnsPerHost,
		},
		"editions": {
			"simple":  c.Editions.Simple,
			"uthmani": c.Editions.Uthmani,
		},
		"output": {
			"dir":             c.Output.Dir,
			"database_file":   c.Output.DatabaseFile,
			"complete_json":   c.Output.CompleteJSON,
			"simple_json":     c.Output.SimpleJSON,
			"statistics_file": c.Output.StatisticsFile,
			"report_file":     c.Output.ReportFile,
			"bundle_file":     c.Output.BundleFile,
			"bundle":          c.Output.Bundle,
		},
		"postgres": {
			"dsn": redactDSN(c.Postgres.DSN),
		},
		"log": {
			"file":   c.Log.File,
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
	}
}

// redactDSN hides the password of a URL-style DSN.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// Package config provides configuration management for camelot.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/constants"
)

// Config holds all configuration sections for camelot.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Terminal TerminalConfig `mapstructure:"terminal"`
	Agents   AgentsConfig   `mapstructure:"agents"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout   int      `mapstructure:"writeTimeout"` // in seconds
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// DatabaseConfig holds the agent definition store connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite3 or pgx
	Path     string `mapstructure:"path"`   // sqlite only
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
	SSLMode  string `mapstructure:"sslMode"`
	MaxConns int    `mapstructure:"maxConns"`
	MinConns int    `mapstructure:"minConns"`
}

// NATSConfig holds NATS messaging configuration.
// An empty URL selects the in-memory event bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// TerminalConfig holds the session broker settings.
type TerminalConfig struct {
	// ScrollbackBytes caps the retained output per session.
	ScrollbackBytes int `mapstructure:"scrollbackBytes"`
	// StartupDelay is how long to wait for the shell before typing the agent command.
	StartupDelay time.Duration `mapstructure:"startupDelay"`
	// ExitedGrace is how long an exited session stays queryable after its last activity.
	ExitedGrace time.Duration `mapstructure:"exitedGrace"`
	// IdleTimeout is how long a running session may stay idle before it is force-killed.
	IdleTimeout time.Duration `mapstructure:"idleTimeout"`
	// ReapSchedule is a cron expression ("@every 1h" style) for the reaper.
	ReapSchedule   string `mapstructure:"reapSchedule"`
	DefaultWorkDir string `mapstructure:"defaultWorkDir"`
	Cols           int    `mapstructure:"cols"`
	Rows           int    `mapstructure:"rows"`
	// Shell overrides the detected interactive shell.
	Shell string `mapstructure:"shell"`
	// SendBuffer is the per-connection outbound frame queue length.
	SendBuffer int `mapstructure:"sendBuffer"`
}

// AgentsConfig holds agent definition seeding options.
type AgentsConfig struct {
	SeedFile string `mapstructure:"seedFile"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// Addr returns host:port for the HTTP listener.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("CAMELOT_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

func defaultWorkDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.allowedOrigins", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "./camelot.db")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "camelot")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbName", "camelot")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.minConns", 2)

	// Empty URL means use the in-memory event bus.
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "camelot")
	v.SetDefault("nats.maxReconnects", 10)

	v.SetDefault("terminal.scrollbackBytes", 10*1024)
	v.SetDefault("terminal.startupDelay", constants.StartupDelay)
	v.SetDefault("terminal.exitedGrace", constants.ExitedGrace)
	v.SetDefault("terminal.idleTimeout", constants.IdleTimeout)
	v.SetDefault("terminal.reapSchedule", constants.ReapSchedule)
	v.SetDefault("terminal.defaultWorkDir", defaultWorkDir())
	v.SetDefault("terminal.cols", 80)
	v.SetDefault("terminal.rows", 30)
	v.SetDefault("terminal.shell", "")
	v.SetDefault("terminal.sendBuffer", 256)

	v.SetDefault("agents.seedFile", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix CAMELOT_ with the key path joined by underscores,
// e.g. CAMELOT_TERMINAL_IDLETIMEOUT=12h.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified directory or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CAMELOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not map camelCase keys to SNAKE_CASE, so bind the common ones.
	_ = v.BindEnv("terminal.idleTimeout", "CAMELOT_TERMINAL_IDLE_TIMEOUT")
	_ = v.BindEnv("terminal.exitedGrace", "CAMELOT_TERMINAL_EXITED_GRACE")
	_ = v.BindEnv("terminal.reapSchedule", "CAMELOT_TERMINAL_REAP_SCHEDULE")
	_ = v.BindEnv("terminal.defaultWorkDir", "CAMELOT_TERMINAL_DEFAULT_WORK_DIR")
	_ = v.BindEnv("agents.seedFile", "CAMELOT_AGENTS_SEED_FILE")
	_ = v.BindEnv("database.path", "CAMELOT_DB_PATH")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/camelot/")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate collects every problem into a single error.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text, console")
	}

	switch cfg.Database.Driver {
	case "sqlite3":
		if cfg.Database.Path == "" {
			errs = append(errs, "database.path is required for sqlite3")
		}
	case "pgx":
		if cfg.Database.Host == "" || cfg.Database.DBName == "" {
			errs = append(errs, "database.host and database.dbName are required for pgx")
		}
	default:
		errs = append(errs, "database.driver must be one of: sqlite3, pgx")
	}

	t := cfg.Terminal
	if t.ScrollbackBytes <= 0 {
		errs = append(errs, "terminal.scrollbackBytes must be positive")
	}
	if t.StartupDelay < 0 {
		errs = append(errs, "terminal.startupDelay must not be negative")
	}
	if t.ExitedGrace <= 0 {
		errs = append(errs, "terminal.exitedGrace must be positive")
	}
	if t.IdleTimeout <= 0 {
		errs = append(errs, "terminal.idleTimeout must be positive")
	}
	if _, err := cron.ParseStandard(t.ReapSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("terminal.reapSchedule is invalid: %v", err))
	}
	if t.Cols <= 0 || t.Rows <= 0 {
		errs = append(errs, "terminal.cols and terminal.rows must be positive")
	}
	if t.SendBuffer <= 0 {
		errs = append(errs, "terminal.sendBuffer must be positive")
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, "metrics.path must start with /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Package config provides application configuration loaded from defaults, a YAML file,
// environment variables and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the service reads.
// Nested keys use a double underscore: YAMDB_SERVER__PORT -> server.port.
const EnvPrefix = "YAMDB_"

// ConfigPathEnvVar names the environment variable pointing at a YAML config file.
const ConfigPathEnvVar = "YAMDB_CONFIG"

// Config holds the application configuration.
type Config struct {
	App      AppConfig      `koanf:"app"`
	Logger   LoggerConfig   `koanf:"logger"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Mail     MailConfig     `koanf:"mail"`
	API      APIConfig      `koanf:"api"`
	Search   SearchConfig   `koanf:"search"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `koanf:"environment"`
	// DataDir holds the database, the token key and the search index.
	DataDir string `koanf:"data_dir"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `koanf:"level"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        `koanf:"port"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	// RequestsPerMinute is the global per-IP request budget.
	RequestsPerMinute int `koanf:"requests_per_minute"`
	// AuthRequestsPerMinute and AuthBurst bound the signup/token endpoints per IP.
	AuthRequestsPerMinute int `koanf:"auth_requests_per_minute"`
	AuthBurst             int `koanf:"auth_burst"`
}

// DatabaseConfig holds SQLite configuration.
type DatabaseConfig struct {
	// Path defaults to {data_dir}/yamdb.db.
	Path string `koanf:"path"`
}

// AuthConfig holds token and confirmation code configuration.
type AuthConfig struct {
	// KeyPath defaults to {data_dir}/auth.key.
	KeyPath             string        `koanf:"key_path"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
	// CodeSecret keys the confirmation code MAC. When empty the token key is used.
	CodeSecret string        `koanf:"code_secret"`
	CodeTTL    time.Duration `koanf:"code_ttl"`
}

// MailConfig holds outbound email configuration.
type MailConfig struct {
	// Backend is "smtp" or "console".
	Backend  string        `koanf:"backend"`
	From     string        `koanf:"from"`
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	StartTLS bool          `koanf:"starttls"`
	Timeout  time.Duration `koanf:"timeout"`
}

// APIConfig holds listing defaults.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SearchConfig holds title search configuration.
type SearchConfig struct {
	Enabled bool `koanf:"enabled"`
	// IndexPath defaults to {data_dir}/search.bleve.
	IndexPath string `koanf:"index_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		App:    AppConfig{Environment: "development", DataDir: "~/.yamdb"},
		Logger: LoggerConfig{Level: "info"},
		Server: ServerConfig{
			Port:                  "8080",
			ReadTimeout:           15 * time.Second,
			WriteTimeout:          15 * time.Second,
			IdleTimeout:           60 * time.Second,
			AllowedOrigins:        []string{"*"},
			RequestsPerMinute:     600,
			AuthRequestsPerMinute: 10,
			AuthBurst:             5,
		},
		Auth: AuthConfig{
			AccessTokenDuration: 24 * time.Hour,
			CodeTTL:             72 * time.Hour,
		},
		Mail: MailConfig{
			Backend: "console",
			From:    "noreply@yamdb.local",
			Port:    587,
			Timeout: 10 * time.Second,
		},
		API:    APIConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Search: SearchConfig{Enabled: true},
	}
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables (YAMDB_*).
// 3. YAML file (--config or YAMDB_CONFIG).
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("yamdb", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	environment := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	port := fs.String("port", "", "Server port (default: 8080)")
	dataDir := fs.String("data-dir", "", "Directory for the database, token key and search index")
	dbPath := fs.String("db-path", "", "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := *configPath
	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	flagValues := map[string]string{
		"app.environment": *environment,
		"logger.level":    *logLevel,
		"server.port":     *port,
		"app.data_dir":    *dataDir,
		"database.path":   *dbPath,
	}
	for key, value := range flagValues {
		if value == "" {
			continue
		}
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("apply flag %s: %w", key, err)
		}
	}

	if origins, ok := k.Get("server.allowed_origins").(string); ok {
		if err := k.Set("server.allowed_origins", splitList(origins)); err != nil {
			return nil, fmt.Errorf("split allowed origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envTransformFunc maps YAMDB_SERVER__PORT to server.port.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "" || key == strings.TrimPrefix(ConfigPathEnvVar, EnvPrefix) {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.App.DataDir == "" {
		return errors.New("data dir cannot be empty")
	}
	if c.Database.Path == "" {
		return errors.New("database path cannot be empty")
	}

	switch c.Mail.Backend {
	case "console":
	case "smtp":
		if c.Mail.Host == "" {
			return errors.New("mail host is required for the smtp backend")
		}
		if c.Mail.Port <= 0 {
			return fmt.Errorf("invalid mail port: %d", c.Mail.Port)
		}
	default:
		return fmt.Errorf("invalid mail backend: %q (must be smtp or console)", c.Mail.Backend)
	}
	if c.Mail.From == "" {
		return errors.New("mail from address cannot be empty")
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}
	if c.Auth.CodeTTL <= 0 {
		return errors.New("confirmation code ttl must be positive")
	}

	if c.API.DefaultPageSize <= 0 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default %d, max %d", c.API.DefaultPageSize, c.API.MaxPageSize)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, uses defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data directory and every path derived from it.
func (c *Config) expandPaths() error {
	var err error
	if c.App.DataDir, err = expandPath(c.App.DataDir, ""); err != nil {
		return err
	}
	if c.Database.Path, err = expandPath(c.Database.Path, filepath.Join(c.App.DataDir, "yamdb.db")); err != nil {
		return err
	}
	if c.Auth.KeyPath, err = expandPath(c.Auth.KeyPath, filepath.Join(c.App.DataDir, "auth.key")); err != nil {
		return err
	}
	if c.Search.IndexPath, err = expandPath(c.Search.IndexPath, filepath.Join(c.App.DataDir, "search.bleve")); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ABOUTME: Configuration loading and parsing for modelview
// ABOUTME: Supports YAML or TOML files with env var expansion, duration parsing and env overrides

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHTTPAddr        = "localhost:8080"
	DefaultGRPCAddr        = "localhost:50051"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultClientTTL       = 365 * 24 * time.Hour
	DefaultMountID         = "app"
	DefaultEntry           = "src/main.js"
	DefaultLoginRoute      = "login"
	DefaultTitle           = "modelview"

	// MinJWTSecretLength matches the HS256 key size.
	MinJWTSecretLength = 32
)

// Flag store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Unknown path policies.
const (
	UnknownNotFound = "not_found"
	UnknownLogin    = "login"
)

// Config represents the complete modelview configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Flags     FlagsConfig     `yaml:"flags" toml:"flags"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	App       AppConfig       `yaml:"app" toml:"app"`
	Bundle    BundleConfig    `yaml:"bundle" toml:"bundle"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr" env:"MODELVIEW_HTTP_ADDR"`
	GRPCAddr string `yaml:"grpc_addr" toml:"grpc_addr" env:"MODELVIEW_GRPC_ADDR"`

	ShutdownTimeout    time.Duration `yaml:"-" toml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout" toml:"shutdown_timeout" env:"MODELVIEW_SHUTDOWN_TIMEOUT"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled" env:"MODELVIEW_TAILSCALE_ENABLED"`
	Hostname  string `yaml:"hostname" toml:"hostname" env:"MODELVIEW_TAILSCALE_HOSTNAME"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key" env:"MODELVIEW_TAILSCALE_AUTHKEY"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	HTTPS     bool   `yaml:"https" toml:"https"`   // Serve HTTPS on :443 with tailnet certificates
	Funnel    bool   `yaml:"funnel" toml:"funnel"` // Enable public Funnel (implies HTTPS)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path" env:"MODELVIEW_DB_PATH"`
}

// FlagsConfig selects where the per-client authentication flag lives.
type FlagsConfig struct {
	Driver string      `yaml:"driver" toml:"driver" env:"MODELVIEW_FLAGS_DRIVER"`
	Redis  RedisConfig `yaml:"redis" toml:"redis"`
}

// RedisConfig holds Redis connection settings for the redis flag driver.
type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr" env:"MODELVIEW_REDIS_ADDR"`
	Password string `yaml:"password" toml:"password" env:"MODELVIEW_REDIS_PASSWORD"`
	DB       int    `yaml:"db" toml:"db"`
	Prefix   string `yaml:"prefix" toml:"prefix"`
}

// AuthConfig holds client identity configuration
type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret" toml:"jwt_secret" env:"MODELVIEW_JWT_SECRET"`
	ClientCookie string `yaml:"client_cookie" toml:"client_cookie"`

	ClientTTL    time.Duration `yaml:"-" toml:"-"`
	ClientTTLRaw string        `yaml:"client_ttl" toml:"client_ttl"`
}

// AppConfig describes the single-page app the shell hosts.
type AppConfig struct {
	Title       string `yaml:"title" toml:"title"`
	MountID     string `yaml:"mount_id" toml:"mount_id"`
	Entry       string `yaml:"entry" toml:"entry"`
	LoginRoute  string `yaml:"login_route" toml:"login_route"`
	UnknownPath string `yaml:"unknown_path" toml:"unknown_path" env:"MODELVIEW_UNKNOWN_PATH"`
	DevURL      string `yaml:"dev_url" toml:"dev_url" env:"MODELVIEW_VITE_DEV_URL"`
}

// BundleConfig mirrors the bundler's asset policy.
type BundleConfig struct {
	Dir           string            `yaml:"dir" toml:"dir" env:"MODELVIEW_DIST_DIR"` // Serve a build from disk instead of the embedded one
	Aliases       map[string]string `yaml:"aliases" toml:"aliases"`
	AssetsInclude []string          `yaml:"assets_include" toml:"assets_include"`
	JSConfig      string            `yaml:"jsconfig" toml:"jsconfig"`
	ModelsMarker  string            `yaml:"models_marker" toml:"models_marker"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" env:"MODELVIEW_LOG_LEVEL"`
	Format string `yaml:"format" toml:"format" env:"MODELVIEW_LOG_FORMAT"`
}

// TelemetryConfig holds OpenTelemetry trace export configuration
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled" toml:"enabled" env:"MODELVIEW_OTEL_ENABLED"`
	Endpoint    string  `yaml:"endpoint" toml:"endpoint" env:"MODELVIEW_OTEL_ENDPOINT"`
	ServiceName string  `yaml:"service_name" toml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`
}

// Default returns a configuration with every optional field filled in.
// Database.Path and Auth.JWTSecret are left empty.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded, then MODELVIEW_*
// variables override individual fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment overrides: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" && !cfg.Tailscale.Enabled {
		cfg.Server.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Flags.Driver == "" {
		cfg.Flags.Driver = DriverSQLite
	}
	if cfg.Auth.ClientTTL == 0 {
		cfg.Auth.ClientTTL = DefaultClientTTL
	}
	if cfg.App.Title == "" {
		cfg.App.Title = DefaultTitle
	}
	if cfg.App.MountID == "" {
		cfg.App.MountID = DefaultMountID
	}
	if cfg.App.Entry == "" {
		cfg.App.Entry = DefaultEntry
	}
	if cfg.App.LoginRoute == "" {
		cfg.App.LoginRoute = DefaultLoginRoute
	}
	if cfg.App.UnknownPath == "" {
		cfg.App.UnknownPath = UnknownNotFound
	}
	if cfg.Bundle.Aliases == nil && cfg.Bundle.JSConfig == "" {
		cfg.Bundle.Aliases = map[string]string{"@": "src"}
	}
	if len(cfg.Bundle.AssetsInclude) == 0 {
		cfg.Bundle.AssetsInclude = []string{"**/*.glb", "**/*.gltf"}
	}
	if cfg.Bundle.ModelsMarker == "" {
		cfg.Bundle.ModelsMarker = "models/"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultTitle
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	// The HTTP address is required unless Tailscale is enabled
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	// Tailscale requires a hostname
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Flags.Driver {
	case DriverSQLite:
	case DriverRedis:
		if c.Flags.Redis.Addr == "" {
			return fmt.Errorf("flags.redis.addr is required when flags.driver is %q", DriverRedis)
		}
	default:
		return fmt.Errorf("flags.driver must be %q or %q, got %q", DriverSQLite, DriverRedis, c.Flags.Driver)
	}

	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinJWTSecretLength)
	}
	if c.Auth.ClientTTL < 0 {
		return fmt.Errorf("auth.client_ttl must be positive")
	}

	switch c.App.UnknownPath {
	case UnknownNotFound, UnknownLogin:
	default:
		return fmt.Errorf("app.unknown_path must be %q or %q, got %q", UnknownNotFound, UnknownLogin, c.App.UnknownPath)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be between 0 and 1")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
	}

	if cfg.Auth.ClientTTLRaw != "" {
		cfg.Auth.ClientTTL, err = time.ParseDuration(cfg.Auth.ClientTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing client_ttl %q: %w", cfg.Auth.ClientTTLRaw, err)
		}
	}

	return nil
}

// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types on top of a set of defaults, and
// validates that required values are present so they can be reused
// across the application runtime.
//
// Responsibilities:
//   - Load defaults, then environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide defaults for optional config blocks (e.g. observability).
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before anything below reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every configuration variable carries.
//
// Nesting uses a double underscore, so GITMINER_SERVER__PORT maps to
// server.port and GITMINER_DATABASE__MAX_OPEN_CONNS to database.max_open_conns.
const EnvPrefix = "GITMINER_"

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Auth          AuthConfig           `koanf:"auth"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are stored in seconds. RateLimit is requests per second per
// client IP; zero disables rate limiting.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	RateLimit          float64  `koanf:"rate_limit" validate:"min=0"`
}

// DatabaseConfig selects the storage driver and holds its connection settings.
//
// The PostgreSQL fields are only required when Driver is "postgres";
// Path is only required for "sqlite".
type DatabaseConfig struct {
	Driver          string `koanf:"driver" validate:"required,oneof=postgres sqlite"`
	Host            string `koanf:"host" validate:"required_if=Driver postgres"`
	Port            int    `koanf:"port" validate:"required_if=Driver postgres"`
	User            string `koanf:"user" validate:"required_if=Driver postgres"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required_if=Driver postgres"`
	SSLMode         string `koanf:"ssl_mode" validate:"required_if=Driver postgres"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
	Path            string `koanf:"path" validate:"required_if=Driver sqlite"`
}

// RedisConfig contains Redis connection details.
// Address is "host:port". An empty address disables Redis and background jobs.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// AuthConfig stores authentication-related secrets.
// When SecretKey is empty, mutating routes are not protected.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key"`
}

// Enabled reports whether Clerk authentication is configured.
func (a AuthConfig) Enabled() bool {
	return a.SecretKey != ""
}

// defaults are loaded before the environment so a bare `gitminer serve`
// works against a local postgres.
var defaults = map[string]any{
	"primary.env":                 "development",
	"server.port":                 "8080",
	"server.read_timeout":         30,
	"server.write_timeout":        30,
	"server.idle_timeout":         60,
	"server.cors_allowed_origins": []string{"*"},
	"server.rate_limit":           0,
	"database.driver":             DriverPostgres,
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.name":               "gitminer",
	"database.ssl_mode":           "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     25,
	"database.conn_max_lifetime":  300,
	"database.conn_max_idle_time": 300,
	"database.path":               "gitminer.db",

	"observability.logging.format":                        "json",
	"observability.logging.slow_query_threshold":          "100ms",
	"observability.new_relic.app_log_forwarding_enabled":  true,
	"observability.new_relic.distributed_tracing_enabled": true,
	"observability.health_checks.enabled":                 true,
	"observability.health_checks.interval":                "30s",
	"observability.health_checks.timeout":                 "5s",
	"observability.health_checks.checks":                  []string{"database", "redis"},
}

// envKey turns GITMINER_DATABASE__MAX_OPEN_CONNS into database.max_open_conns.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig loads configuration from defaults and environment variables,
// unmarshals it into Config, validates it, applies observability defaults,
// and returns the resulting config.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("could not load default config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config so
	// logs and traces are tagged consistently.
	mainConfig.Observability.ServiceName = "gitminer"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

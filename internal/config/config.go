package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Auth     AuthConfig
	Log      LogConfig
	Events   EventsConfig
	Admin    AdminConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Driver string // "sqlite3" or "pgx"
	Path   string // SQLite database file path
	DSN    string // Postgres connection string, used when Driver is "pgx"
}

// HTTPConfig contains REST server settings.
type HTTPConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	AllowOrigins    []string
	ShutdownTimeout time.Duration
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string // gRPC server listen address (e.g., ":50051")
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string        // JWT signing secret
	TokenTTL  time.Duration // lifetime of issued tokens
}

// LogConfig selects zap level and encoder.
type LogConfig struct {
	Level  string
	Format string // "json" or "console"
}

// EventsConfig configures the RabbitMQ publisher. An empty URL disables publishing.
type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

// AdminConfig describes the bootstrap administrator created at startup when absent.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

// Load loads configuration from environment variables, an optional .env file and an
// optional YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	cfg, err := load("")
	if err != nil {
		return nil, err
	}

	// Validate critical settings
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	return load("dev-secret-change-me")
}

func load(defaultSecret string) (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DB_PATH", "app.db")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("HTTP_READ_TIMEOUT", "10s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "15s")
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "5s")
	v.SetDefault("RATE_LIMIT_RPS", 50.0)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("GRPC_ADDRESS", ":50051")
	v.SetDefault("JWT_SECRET", defaultSecret)
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "directory.events")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.AutomaticEnv()

	if path, ok := os.LookupEnv("CONFIG_FILE"); ok && path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER")))
	switch driver {
	case "sqlite", "sqlite3":
		driver = "sqlite3"
	case "pgx", "postgres", "postgresql":
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver: driver,
			Path:   v.GetString("DB_PATH"),
			DSN:    v.GetString("DB_DSN"),
		},
		HTTP: HTTPConfig{
			Address:         v.GetString("HTTP_ADDRESS"),
			ReadTimeout:     v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("HTTP_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
			RateLimitRPS:    v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst:  v.GetInt("RATE_LIMIT_BURST"),
			AllowOrigins:    splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		},
		GRPC: GRPCConfig{
			Address: v.GetString("GRPC_ADDRESS"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  v.GetDuration("JWT_TTL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Events: EventsConfig{
			AMQPURL:  v.GetString("AMQP_URL"),
			Exchange: v.GetString("AMQP_EXCHANGE"),
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}

	if cfg.Database.Driver == "pgx" && cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DB_DSN is required when DB_DRIVER is %s", cfg.Database.Driver)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive, got %s", cfg.Auth.TokenTTL)
	}
	return cfg, nil
}

// DataSource returns the DSN handed to the configured driver.
func (d DatabaseConfig) DataSource() string {
	if d.Driver == "pgx" {
		return d.DSN
	}
	return d.Path
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	db := c.Database.Path
	if c.Database.Driver == "pgx" {
		db = "*** (masked) ***"
	}
	return fmt.Sprintf("Config{DB: %s %s, HTTP: %s, gRPC: %s, Auth: *** (masked) ***, Events: %t}",
		c.Database.Driver, db, c.HTTP.Address, c.GRPC.Address, c.Events.AMQPURL != "")
}

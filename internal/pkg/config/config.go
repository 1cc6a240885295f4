package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// StoreBackend selects the identity store: "mongo" or "memory".
	StoreBackend string `env:"STORE_BACKEND, default=mongo"`
	// SessionBackend selects the session store: "redis" or "memory".
	SessionBackend string        `env:"SESSION_BACKEND, default=redis"`
	SessionTTL     time.Duration `env:"SESSION_TTL,     default=20m"`

	// NavigationFile overrides the embedded navigation menu when set.
	NavigationFile string `env:"NAVIGATION_FILE"`

	Mongo  MongoConfig
	Redis  RedisConfig
	SMTP   SMTPConfig
	Notify NotifyConfig
	Seed   SeedConfig
}

type MongoConfig struct {
	URI         string        `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string        `env:"MONGO_DB,            default=asc_accounts"`
	MaxPoolSize uint64        `env:"MONGO_MAX_POOL_SIZE"`
	Timeout     time.Duration `env:"MONGO_TIMEOUT,       default=10s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,        default=0"`
	PoolSize int           `env:"REDIS_POOL_SIZE"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,   default=5s"`
}

// SMTPConfig is optional; an empty Host logs emails instead of sending them.
type SMTPConfig struct {
	Host     string        `env:"SMTP_HOST"`
	Port     int           `env:"SMTP_PORT,     default=587"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `env:"SMTP_FROM,     default=no-reply@asc.local"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT,  default=15s"`
}

type NotifyConfig struct {
	Workers int `env:"NOTIFY_WORKERS, default=4"`
}

// SeedConfig lists the accounts provisioned at startup.
type SeedConfig struct {
	AdminName        string `env:"SEED_ADMIN_NAME,     default=admin"`
	AdminEmail       string `env:"SEED_ADMIN_EMAIL"`
	AdminPassword    string `env:"SEED_ADMIN_PASSWORD"`
	EngineerName     string `env:"SEED_ENGINEER_NAME,  default=engineer"`
	EngineerEmail    string `env:"SEED_ENGINEER_EMAIL"`
	EngineerPassword string `env:"SEED_ENGINEER_PASSWORD"`
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper and validates backend choices.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	switch cfg.StoreBackend {
	case "mongo", "memory":
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be mongo or memory, got %q", cfg.StoreBackend)
	}
	switch cfg.SessionBackend {
	case "redis", "memory":
	default:
		return nil, fmt.Errorf("SESSION_BACKEND must be redis or memory, got %q", cfg.SessionBackend)
	}
	return &cfg, nil
}

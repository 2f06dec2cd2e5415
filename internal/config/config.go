package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	App       AppConfig
	API       APIConfig
	Cart      CartConfig
	Storage   StorageConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"APP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// AllowedOrigins lists the web origins allowed to call the API.
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// APIConfig points the service client at the food delivery backend.
type APIConfig struct {
	BaseURL        string        `envconfig:"FOOD_API_BASE_URL" required:"true"`
	ImageBaseURL   string        `envconfig:"FOOD_IMAGE_BASE_URL"`
	CategoriesPath string        `envconfig:"FOOD_API_CATEGORIES_PATH" default:"/api/restaurants/categories"`
	Timeout        time.Duration `envconfig:"FOOD_API_TIMEOUT" default:"15s"`
	// OutboundRPS of zero disables client-side throttling.
	OutboundRPS   float64 `envconfig:"FOOD_API_RPS" default:"0"`
	OutboundBurst int     `envconfig:"FOOD_API_BURST" default:"10"`
}

type CartConfig struct {
	InitialLoadDelay time.Duration `envconfig:"CART_INITIAL_LOAD_DELAY" default:"1s"`
	SessionIdleTTL   time.Duration `envconfig:"CART_SESSION_IDLE_TTL" default:"30m"`
	SweepInterval    time.Duration `envconfig:"CART_SESSION_SWEEP_INTERVAL" default:"1m"`
}

type StorageConfig struct {
	Driver         string        `envconfig:"STORAGE_DRIVER" default:"memory"`
	LocationMaxAge time.Duration `envconfig:"LOCATION_MAX_AGE" default:"30m"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// DSN renders the lib/pq key/value connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type RedisConfig struct {
	URL       string `envconfig:"REDIS_URL"`
	Addr      string `envconfig:"REDIS_ADDR"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"foodcart"`
}

type JWTConfig struct {
	// Secret is optional; without it tokens are read but not verified.
	Secret string `envconfig:"JWT_SECRET"`
}

type RateLimitConfig struct {
	RPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
}

var (
	ErrBaseURLRequired      = errors.New("FOOD_API_BASE_URL is required")
	ErrUnknownStorageDriver = errors.New("unknown storage driver")
	ErrDBHostRequired       = errors.New("DB_HOST is required for the postgres storage driver")
	ErrRedisAddrRequired    = errors.New("REDIS_URL or REDIS_ADDR is required for the redis storage driver")
)

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return ErrBaseURLRequired
	}
	switch strings.ToLower(c.Storage.Driver) {
	case StorageMemory:
	case StorageRedis:
		if c.Redis.URL == "" && c.Redis.Addr == "" {
			return ErrRedisAddrRequired
		}
	case StoragePostgres:
		if c.DB.Host == "" {
			return ErrDBHostRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorageDriver, c.Storage.Driver)
	}
	return nil
}

// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	DatabaseMongo     = "mongo"
	DatabaseFirestore = "firestore"
	DatabaseMemory    = "memory"

	defaultJWTSecret = "brew_reviews_secret_key_should_be_loaded_from_env"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int           `env:"PORT" envDefault:"8080"`
	Host           string        `env:"HOST" envDefault:"0.0.0.0"`
	MetricsEnabled bool          `env:"METRICS_ENABLED" envDefault:"true"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
}

// DatabaseConfig selects and configures the document store backend
type DatabaseConfig struct {
	Type                 string `env:"DB_TYPE" envDefault:"mongo"`
	URI                  string `env:"MONGODB_URI"`
	Name                 string `env:"DB_NAME" envDefault:"brew_reviews"`
	FirestoreProject     string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreCredentials string `env:"FIRESTORE_CREDENTIALS_FILE"`
}

// ReviewsConfig holds the storage layout and policy of the review engine
type ReviewsConfig struct {
	// Product collections probed in priority order when locating a product.
	ProductCollections []string `env:"PRODUCT_COLLECTIONS" envDefault:"brewed-drinks,raw-beans" envSeparator:","`
	FallbackCollection string   `env:"PRODUCT_FALLBACK_COLLECTION" envDefault:"products"`
	RequirePurchase    bool     `env:"REVIEWS_REQUIRE_PURCHASE" envDefault:"true"`
}

// RedisConfig configures the optional product-location cache. An empty Addr disables it.
type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB" envDefault:"0"`
	LocatorTTL time.Duration `env:"LOCATOR_CACHE_TTL" envDefault:"10m"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET" envDefault:"brew_reviews_secret_key_should_be_loaded_from_env"`
}

// Config holds the complete application configuration
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Reviews        ReviewsConfig
	Redis          RedisConfig
	Auth           AuthConfig
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	Debug          bool     `env:"DEBUG" envDefault:"false"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT" envDefault:"text"`
}

// LoadConfig loads configuration from an optional .env file and the environment
func LoadConfig() (*Config, error) {
	// Try to load .env file from multiple possible locations
	envLocations := []string{
		".env",          // Current directory
		"../../.env",    // Project root when running from cmd/engine
		"../../../.env", // Even higher directory
		filepath.Join(os.Getenv("GOPATH"), "src/brew-reviews/.env"),
	}

	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}

	return Parse()
}

// Parse reads the configuration from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	c.Reviews.ProductCollections = trimAll(c.Reviews.ProductCollections)
	c.AllowedOrigins = trimAll(c.AllowedOrigins)
	if c.Debug {
		c.LogLevel = "debug"
	}
}

// Validate rejects configurations the engine cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.Database.Type {
	case DatabaseMongo:
		if c.Database.URI == "" {
			return fmt.Errorf("MONGODB_URI is required when DB_TYPE is %s", DatabaseMongo)
		}
	case DatabaseFirestore:
		if c.Database.FirestoreProject == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required when DB_TYPE is %s", DatabaseFirestore)
		}
	case DatabaseMemory:
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type)
	}

	if len(c.Reviews.ProductCollections) == 0 {
		return fmt.Errorf("PRODUCT_COLLECTIONS must name at least one collection")
	}
	if c.Reviews.FallbackCollection == "" {
		return fmt.Errorf("PRODUCT_FALLBACK_COLLECTION must not be empty")
	}
	return nil
}

// UsesDefaultSecret reports whether JWT_SECRET was left at its development default.
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == defaultJWTSecret
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/cartpilot/backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Matching  MatchingConfig
	Geo       GeoConfig
	Stores    StoresConfig
	Lookup    LookupConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Debug           bool          `mapstructure:"debug"`
}

// CatalogConfig holds product catalog configuration
type CatalogConfig struct {
	Path  string `mapstructure:"path"` // empty uses the embedded catalog
	Watch bool   `mapstructure:"watch"`
}

// MatchingConfig holds fuzzy matching configuration
type MatchingConfig struct {
	MinScore           float64 `mapstructure:"min_score"`
	Limit              int     `mapstructure:"limit"`
	MinQueryLength     int     `mapstructure:"min_query_length"`
	EnableDebugLogging bool    `mapstructure:"debug"`
}

// GeoConfig holds store ranking configuration
type GeoConfig struct {
	DefaultRadiusMiles float64            `mapstructure:"default_radius_miles"`
	MaxRadiusMiles     float64            `mapstructure:"max_radius_miles"`
	BoundingBox        domain.BoundingBox `mapstructure:"bounding_box"`
}

// StoresConfig selects the store data source
type StoresConfig struct {
	Backend    string `mapstructure:"backend"` // "memory" or "sqlite"
	File       string `mapstructure:"file"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LookupConfig holds product lookup API configuration
type LookupConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	SuggestTTL time.Duration `mapstructure:"suggest_ttl"`
}

// RateLimitConfig holds rate limiting configuration (requests per minute)
type RateLimitConfig struct {
	PerIP  int `mapstructure:"per_ip"`
	Lookup int `mapstructure:"lookup"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartpilot/")

	// CARTPILOT_SERVER_PORT -> server.port
	v.SetEnvPrefix("CARTPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; env vars and defaults apply
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env if present without overriding variables already set
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return gotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.debug", false)

	// Catalog defaults
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.watch", false)

	// Matching defaults
	v.SetDefault("matching.min_score", 0.3)
	v.SetDefault("matching.limit", 8)
	v.SetDefault("matching.min_query_length", 2)
	v.SetDefault("matching.debug", false)

	// Geo defaults: UK mainland and islands
	v.SetDefault("geo.default_radius_miles", 10.0)
	v.SetDefault("geo.max_radius_miles", 50.0)
	v.SetDefault("geo.bounding_box.min_lat", 49.8)
	v.SetDefault("geo.bounding_box.max_lat", 60.9)
	v.SetDefault("geo.bounding_box.min_lng", -8.7)
	v.SetDefault("geo.bounding_box.max_lng", 1.8)

	// Store source defaults
	v.SetDefault("stores.backend", "memory")
	v.SetDefault("stores.file", "data/stores.yaml")
	v.SetDefault("stores.sqlite_path", "")

	// Product lookup defaults
	v.SetDefault("lookup.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("lookup.user_agent", "CartPilot/1.0 (support@cartpilot.app)")
	v.SetDefault("lookup.timeout", "10s")

	// Cache defaults
	v.SetDefault("cache.ttl", "720h") // 30 days
	v.SetDefault("cache.suggest_ttl", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.lookup", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Matching.MinScore <= 0 || config.Matching.MinScore >= 1 {
		return fmt.Errorf("matching min score must be in (0, 1), got: %v", config.Matching.MinScore)
	}

	if config.Matching.Limit <= 0 {
		return fmt.Errorf("matching limit must be positive, got: %d", config.Matching.Limit)
	}

	if config.Geo.DefaultRadiusMiles <= 0 {
		return fmt.Errorf("default radius must be positive, got: %v", config.Geo.DefaultRadiusMiles)
	}

	if config.Geo.MaxRadiusMiles < config.Geo.DefaultRadiusMiles {
		return fmt.Errorf("max radius %v is below default radius %v", config.Geo.MaxRadiusMiles, config.Geo.DefaultRadiusMiles)
	}

	if err := config.Geo.BoundingBox.Validate(); err != nil {
		return err
	}

	switch config.Stores.Backend {
	case "memory":
	case "sqlite":
		if config.Stores.SQLitePath == "" {
			return fmt.Errorf("SQLite path is required when stores backend is 'sqlite' (set CARTPILOT_STORES_SQLITE_PATH)")
		}
	default:
		return fmt.Errorf("stores backend must be 'memory' or 'sqlite', got: %s", config.Stores.Backend)
	}

	if config.Lookup.BaseURL == "" {
		return fmt.Errorf("lookup base URL is required (set CARTPILOT_LOOKUP_BASE_URL)")
	}

	return nil
}

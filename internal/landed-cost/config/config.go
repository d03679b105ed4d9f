package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Rates    RatesConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Shipping ShippingConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ScraperConfig struct {
	Timeout       time.Duration
	Fetcher       string
	FailurePolicy string
	UserAgent     string
	MinInterval   time.Duration
	MaxInterval   time.Duration
}

type BrowserConfig struct {
	Headless bool
}

type RatesConfig struct {
	CacheTTL          time.Duration
	SourceTimeout     time.Duration
	FallbackRate      float64
	CurrConvAPIKey    string
	OpenExchangeAppID string
}

type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	SweepInterval time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int32
}

type ShippingConfig struct {
	Mode string
}

// Load reads .env files (if present) and then the process environment.
func Load() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getIntOrDefault("PORT", 8080),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://localhost:*"}),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
		},
		Scraper: ScraperConfig{
			Timeout:       getDurationOrDefault("SCRAPER_TIMEOUT", 15*time.Second),
			Fetcher:       strings.ToLower(getEnvOrDefault("SCRAPER_FETCHER", "http")),
			FailurePolicy: strings.ToLower(getEnvOrDefault("SCRAPER_FAILURE_POLICY", "fallback")),
			UserAgent:     getEnvOrDefault("SCRAPER_USER_AGENT", defaultUserAgent),
			MinInterval:   getDurationOrDefault("SCRAPER_MIN_INTERVAL", 0),
			MaxInterval:   getDurationOrDefault("SCRAPER_MAX_INTERVAL", 0),
		},
		Browser: BrowserConfig{
			Headless: getBoolOrDefault("BROWSER_HEADLESS", true),
		},
		Rates: RatesConfig{
			CacheTTL:          getDurationOrDefault("RATE_CACHE_TTL", 4*time.Hour),
			SourceTimeout:     getDurationOrDefault("RATE_SOURCE_TIMEOUT", 5*time.Second),
			FallbackRate:      getFloatOrDefault("RATE_FALLBACK", 1.60),
			CurrConvAPIKey:    getEnvOrDefault("CURRCONV_API_KEY", ""),
			OpenExchangeAppID: getEnvOrDefault("OPEN_EXCHANGE_RATES_APP_ID", ""),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(getEnvOrDefault("CACHE_BACKEND", "memory")),
			TTL:           getDurationOrDefault("CACHE_TTL", time.Hour),
			SweepInterval: getDurationOrDefault("CACHE_SWEEP_INTERVAL", 10*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			Name:     getEnvOrDefault("DB_NAME", "landed_cost"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Shipping: ShippingConfig{
			Mode: strings.ToLower(getEnvOrDefault("SHIPPING_MODE", "flat")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("SCRAPER_TIMEOUT must be positive")
	}

	if err := oneOf("SCRAPER_FETCHER", c.Scraper.Fetcher, "http", "browser"); err != nil {
		return err
	}

	if err := oneOf("SCRAPER_FAILURE_POLICY", c.Scraper.FailurePolicy, "fallback", "strict"); err != nil {
		return err
	}

	if c.Scraper.MinInterval < 0 || c.Scraper.MinInterval > c.Scraper.MaxInterval {
		return fmt.Errorf("SCRAPER_MIN_INTERVAL cannot be greater than SCRAPER_MAX_INTERVAL")
	}

	if c.Rates.FallbackRate <= 0 {
		return fmt.Errorf("RATE_FALLBACK must be positive")
	}

	if err := oneOf("CACHE_BACKEND", c.Cache.Backend, "memory", "redis"); err != nil {
		return err
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if err := oneOf("SHIPPING_MODE", c.Shipping.Mode, "flat", "weight"); err != nil {
		return err
	}

	if err := oneOf("LOG_FORMAT", c.Logging.Format, "json", "text"); err != nil {
		return err
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
	}

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, "|"), value)
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local and then .env.
// Variables already present in the environment are never overwritten.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

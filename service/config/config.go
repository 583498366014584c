package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "CAPM"

// Config is read from the environment, each key also accepts the CAPM_ prefix
type Config struct {
	Port               int           `envconfig:"PORT" default:"8080"`
	AlphaVantageApiKey string        `envconfig:"ALPHAVANTAGE_API_KEY"`
	FredApiKey         string        `envconfig:"FRED_API_KEY"`
	DatabaseUrl        string        `envconfig:"DATABASE_URL"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile            string        `envconfig:"LOG_FILE"`
	RequestsPerMinute  int           `envconfig:"REQUESTS_PER_MINUTE" default:"5"`
	RiskFreeRate       float64       `envconfig:"RISK_FREE_RATE" default:"0"`
	MarketSeriesId     string        `envconfig:"MARKET_SERIES" default:"SP500"`
	CacheMaxAge        time.Duration `envconfig:"CACHE_MAX_AGE" default:"24h"`
	AllowedOrigins     []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads .env files (if present) into the environment and then processes it.
// A missing .env file is reported through envLoadErr and is not fatal.
func Load(files ...string) (cfg *Config, envLoadErr error, err error) {
	envLoadErr = godotenv.Load(files...)

	cfg = &Config{}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, envLoadErr, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, envLoadErr, err
	}

	return cfg, envLoadErr, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests per minute must not be negative, got %d", c.RequestsPerMinute)
	}
	if c.RiskFreeRate < -1 || c.RiskFreeRate > 1 {
		return fmt.Errorf("risk free rate %v is outside [-1, 1]", c.RiskFreeRate)
	}
	if c.MarketSeriesId == "" {
		return fmt.Errorf("market series id is required")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// CacheEnabled reports whether a database was configured for the price cache and run history
func (c *Config) CacheEnabled() bool {
	return c.DatabaseUrl != ""
}

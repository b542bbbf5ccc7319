package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Database driver names accepted in DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppEnv         string `env:"APP_ENV" envDefault:"local"`
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	PostgresDSN    string `env:"POSTGRES_DSN"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"danmaku.db"`
	HealthPort     int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Statistics aggregation
	StatsSampleLimit  int  `env:"STATS_SAMPLE_LIMIT" envDefault:"1000"`
	StatsPreferNative bool `env:"STATS_PREFER_NATIVE" envDefault:"true"`

	// Density detection
	PopularWindowSeconds float64 `env:"POPULAR_WINDOW_SECONDS" envDefault:"5"`
	PopularLimit         int     `env:"POPULAR_LIMIT" envDefault:"50"`

	// Duplicate resolution
	DuplicateThreshold float64 `env:"DUPLICATE_THRESHOLD" envDefault:"0.9"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyDatabaseAliases(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDatabaseAliases accepts the conventional DATABASE_URL spelling when
// POSTGRES_DSN is not set.
func applyDatabaseAliases(cfg *Config) {
	if !hasEnv("POSTGRES_DSN") {
		setStringFromEnv("DATABASE_URL", &cfg.PostgresDSN)
	}
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when DATABASE_DRIVER is %q", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DATABASE_DRIVER is %q", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	return nil
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

package config

import (
	"os"
	"testing"
	"time"
)

// Test environment variable keys.
const (
	testEnvDriver      = "DATABASE_DRIVER"
	testEnvPostgresDSN = "POSTGRES_DSN"
	testEnvDatabaseURL = "DATABASE_URL"
	testEnvSQLitePath  = "SQLITE_PATH"
)

// Test values.
const (
	testPostgresDSN = "postgres://localhost/danmaku_test"
	testErrLoad     = "Load() error = %v"
	testDefaultEnv  = "local"
)

func setPostgresEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvDriver, DriverPostgres)
	t.Setenv(testEnvPostgresDSN, testPostgresDSN)
}

func TestLoad_MissingDSN(t *testing.T) {
	t.Setenv(testEnvDriver, DriverPostgres)
	os.Unsetenv(testEnvPostgresDSN)
	os.Unsetenv(testEnvDatabaseURL)

	_, err := Load()
	if err == nil {
		t.Error("expected error for postgres driver without DSN")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	setPostgresEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.DatabaseDriver != DriverPostgres {
		t.Errorf("DatabaseDriver = %q, want %q", cfg.DatabaseDriver, DriverPostgres)
	}

	if cfg.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want %q", cfg.PostgresDSN, testPostgresDSN)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setPostgresEnvVars(t)

	// Explicitly unset variables that might be in .env to test actual defaults
	os.Unsetenv("APP_ENV")
	os.Unsetenv("HEALTH_PORT")
	os.Unsetenv("STATS_SAMPLE_LIMIT")
	os.Unsetenv("STATS_PREFER_NATIVE")
	os.Unsetenv("POPULAR_WINDOW_SECONDS")
	os.Unsetenv("POPULAR_LIMIT")
	os.Unsetenv("DUPLICATE_THRESHOLD")
	os.Unsetenv("DB_MAX_CONNECTIONS")
	os.Unsetenv("DB_MAX_CONN_IDLE_TIME")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AppEnv != testDefaultEnv {
		t.Errorf("AppEnv default = %q, want %q", cfg.AppEnv, testDefaultEnv)
	}

	if cfg.HealthPort != 8080 {
		t.Errorf("HealthPort default = %d, want %d", cfg.HealthPort, 8080)
	}

	if cfg.StatsSampleLimit != 1000 {
		t.Errorf("StatsSampleLimit default = %d, want %d", cfg.StatsSampleLimit, 1000)
	}

	if !cfg.StatsPreferNative {
		t.Error("StatsPreferNative should default to true")
	}

	if cfg.PopularWindowSeconds != 5 {
		t.Errorf("PopularWindowSeconds default = %v, want %v", cfg.PopularWindowSeconds, 5.0)
	}

	if cfg.PopularLimit != 50 {
		t.Errorf("PopularLimit default = %d, want %d", cfg.PopularLimit, 50)
	}

	if cfg.DuplicateThreshold != 0.9 {
		t.Errorf("DuplicateThreshold default = %v, want %v", cfg.DuplicateThreshold, 0.9)
	}

	if cfg.DBMaxConnections != 25 {
		t.Errorf("DBMaxConnections default = %d, want %d", cfg.DBMaxConnections, 25)
	}

	if cfg.DBMaxConnIdleTime != 30*time.Minute {
		t.Errorf("DBMaxConnIdleTime default = %v, want %v", cfg.DBMaxConnIdleTime, 30*time.Minute)
	}
}

func TestLoad_SQLiteDriver(t *testing.T) {
	t.Setenv(testEnvDriver, DriverSQLite)
	os.Unsetenv(testEnvPostgresDSN)
	os.Unsetenv(testEnvSQLitePath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.SQLitePath != "danmaku.db" {
		t.Errorf("SQLitePath default = %q, want %q", cfg.SQLitePath, "danmaku.db")
	}
}

func TestLoad_DatabaseURLAlias(t *testing.T) {
	t.Setenv(testEnvDriver, DriverPostgres)
	os.Unsetenv(testEnvPostgresDSN)
	t.Setenv(testEnvDatabaseURL, testPostgresDSN)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want aliased %q", cfg.PostgresDSN, testPostgresDSN)
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv(testEnvDriver, "oracle")

	_, err := Load()
	if err == nil {
		t.Error("expected error for unknown DATABASE_DRIVER")
	}
}

func TestLoad_InvalidNumeric(t *testing.T) {
	setPostgresEnvVars(t)
	t.Setenv("POPULAR_LIMIT", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Error("expected error for invalid POPULAR_LIMIT")
	}
}

// Package config loads server configuration from the environment, with
// flag overrides applied in cmd/server. Environment wins over defaults;
// flags win over environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Driver selects the store backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Config is everything the server needs to start.
type Config struct {
	Port int

	// Store selection. SQLitePath is used by the sqlite driver,
	// PostgresDSN by the postgres driver; memory needs neither.
	StoreDriver Driver
	SQLitePath  string
	PostgresDSN string

	// JWTSecret signs and verifies bearer tokens. Must be non-empty.
	JWTSecret string
}

// FromEnv builds a Config from environment variables:
//
//	PORT            HTTP port (default 8080)
//	STORE_DRIVER    sqlite | postgres | memory (default sqlite)
//	SQLITE_PATH     SQLite database path (default custody.db)
//	DATABASE_URL    Postgres DSN (required for postgres driver)
//	JWT_SECRET      token signing secret (required)
func FromEnv() (Config, error) {
	cfg := Config{
		Port:        8080,
		StoreDriver: DriverSQLite,
		SQLitePath:  "custody.db",
		PostgresDSN: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.StoreDriver = Driver(v)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite driver requires a database path")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres driver requires DATABASE_URL")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

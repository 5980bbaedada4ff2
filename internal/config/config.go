// Package config loads service configuration from the environment and
// provides pre-tuned database connection factories for the supported
// PostgreSQL drivers (pgx.Pool and sqlx.DB).
//
// An optional .env file in the working directory is merged into the
// environment before reading; real environment variables win.
package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // postgres driver
)

const (
	envPort        = "PORT"
	envDatabaseURL = "DATABASE_URL"

	defaultPort = "8080"
)

// Config carries everything the binaries need to start up. An empty
// DatabaseURL selects the in-memory engine instead of PostgreSQL.
type Config struct {
	Port        string
	DatabaseURL string
}

// Load reads the configuration from the environment, merging in a .env file
// when one is present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:        os.Getenv(envPort),
		DatabaseURL: os.Getenv(envDatabaseURL),
	}

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	return cfg
}

// ListenAddr returns the address for the HTTP server to bind to.
func (c Config) ListenAddr() string {
	return ":" + c.Port
}

// PostgresPGXPoolConfig creates a pgxpool.Config for the given DSN with the
// service's connection pool tuning applied.
func PostgresPGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	const defaultMaxConnections = int32(8)
	const defaultMinConnections = int32(2)
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5
	const defaultHealthCheckPeriod = time.Minute
	const defaultConnectTimeout = time.Second * 5

	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.MinConns = defaultMinConnections
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return dbConfig, nil
}

// PostgresSQLXConfig creates a configured *sqlx.DB for the given DSN, used by
// the one-shot tooling that does not need a pgx pool.
func PostgresSQLXConfig(ctx context.Context, dsn string) (*sqlx.DB, error) {
	const defaultMaxOpenConnections = 10
	const defaultMaxIdleConnections = 2
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConnections)
	db.SetMaxIdleConns(defaultMaxIdleConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("pinging database: %w (close: %w)", pingErr, closeErr)
		}

		return nil, fmt.Errorf("pinging database: %w", pingErr)
	}

	return db, nil
}

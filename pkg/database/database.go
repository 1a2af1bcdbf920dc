// Package database opens the SQL connection pool and owns the schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jordanlanch/recoverydesk/pkg/logger"
)

// Client wraps the ent SQL driver used by the store.
type Client struct {
	Driver  *entsql.Driver
	Dialect string
	db      *sql.DB // Underlying database for pool stats
}

// PoolConfig holds connection pool configuration. Zero fields use the
// DefaultPoolConfig value.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// SSLConfig holds Postgres SSL settings. They override the URL's own params.
type SSLConfig struct {
	Mode         string // disable, require, verify-ca, verify-full
	CertPath     string
	KeyPath      string
	RootCertPath string
}

// DefaultPoolConfig returns the default connection pool settings
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

func (p PoolConfig) withDefaults() PoolConfig {
	d := DefaultPoolConfig()
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = d.MaxOpenConns
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = d.MaxIdleConns
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = d.ConnMaxLifetime
	}
	if p.ConnMaxIdleTime <= 0 {
		p.ConnMaxIdleTime = d.ConnMaxIdleTime
	}
	return p
}

// BuildConnectionString sets the SSL query params of a Postgres URL.
func BuildConnectionString(baseURL string, sslCfg *SSLConfig) (string, error) {
	if sslCfg == nil {
		return baseURL, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	q := u.Query()
	for param, v := range map[string]string{
		"sslmode":     sslCfg.Mode,
		"sslcert":     sslCfg.CertPath,
		"sslkey":      sslCfg.KeyPath,
		"sslrootcert": sslCfg.RootCertPath,
	} {
		if v != "" {
			q.Set(param, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// resolve picks the driver from the URL. postgres:// and postgresql:// go to
// lib/pq; sqlite://path and file: DSNs go to go-sqlite3 for local runs.
func resolve(databaseURL string, sslCfg *SSLConfig) (driverName, dialectName, dsn string, err error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		dsn, err = BuildConnectionString(databaseURL, sslCfg)
		if err != nil {
			return "", "", "", err
		}
		return "postgres", dialect.Postgres, dsn, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return "sqlite3", dialect.SQLite, "file:" + strings.TrimPrefix(databaseURL, "sqlite://"), nil
	case strings.HasPrefix(databaseURL, "file:"):
		return "sqlite3", dialect.SQLite, databaseURL, nil
	default:
		return "", "", "", fmt.Errorf("unsupported database URL scheme")
	}
}

// NewClient opens the connection pool, applies the schema and returns the
// ready client.
func NewClient(ctx context.Context, databaseURL string, poolCfg PoolConfig, sslCfg *SSLConfig, log logger.Logger) (*Client, error) {
	driverName, dialectName, dsn, err := resolve(databaseURL, sslCfg)
	if err != nil {
		return nil, fmt.Errorf("failed building connection string: %w", err)
	}
	if dialectName == dialect.Postgres && sslCfg != nil && sslCfg.Mode != "" && sslCfg.Mode != "disable" {
		log.Info("database SSL enabled", "mode", sslCfg.Mode, "root_cert", sslCfg.RootCertPath)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening connection to %s: %w", dialectName, err)
	}

	pool := poolCfg.withDefaults()
	if dialectName == dialect.SQLite {
		// sqlite allows a single writer
		pool.MaxOpenConns, pool.MaxIdleConns = 1, 1
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	client := NewFromDB(dialectName, db)
	if err := client.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed connecting to %s: %w", dialectName, err)
	}
	if err := Migrate(ctx, client.Driver); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("database connected and migrations applied",
		"dialect", dialectName,
		"max_open", pool.MaxOpenConns,
		"max_idle", pool.MaxIdleConns,
	)
	return client, nil
}

// NewFromDB wraps an already opened *sql.DB of the given dialect.
func NewFromDB(dialectName string, db *sql.DB) *Client {
	return &Client{
		Driver:  entsql.OpenDB(dialectName, db),
		Dialect: dialectName,
		db:      db,
	}
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.Driver.Close()
}

// Ping checks if the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (c *Client) Stats() sql.DBStats {
	return c.db.Stats()
}

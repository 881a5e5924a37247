// Package postgresql opens the sqlx pool behind the company analysis store
// and applies its schema.
package postgresql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const connectTimeout = 5 * time.Second

// Config describes the analysis database and its pool limits
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN renders the lib/pq keyword/value string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Client owns the pool shared by the company, token and job repositories
type Client struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewClient opens the pool, applies the limits and waits for the first ping
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	logger = logger.With(
		slog.String("db_host", config.Host),
		slog.String("db_name", config.Database),
	)

	db, err := sqlx.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Error("Analysis database unreachable", slog.Any("error", err))
		return nil, fmt.Errorf("failed to reach analysis database: %w", err)
	}

	logger.Info("Analysis database ready",
		slog.Int("max_open_conns", config.MaxOpenConns),
		slog.Int("max_idle_conns", config.MaxIdleConns),
	)

	return &Client{db: db, logger: logger}, nil
}

// GetDB exposes the pool to the postgres storage backend
func (c *Client) GetDB() *sqlx.DB {
	return c.db
}

// Close drains the pool
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		c.logger.Error("Analysis database pool did not close cleanly", slog.Any("error", err))
		return err
	}
	c.logger.Info("Analysis database pool closed")
	return nil
}

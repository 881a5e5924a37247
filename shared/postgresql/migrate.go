package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// gooseUpContext is a seam for tests
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies every pending goose migration found in dir of fsys
func (c *Client) RunMigrations(ctx context.Context, fsys fs.FS, dir string) error {
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	c.logger.Info("Running database migrations", slog.String("dir", dir))

	if err := gooseUpContext(ctx, c.db.DB, dir); err != nil {
		c.logger.Error("Failed to run migrations", slog.Any("error", err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.logger.Info("Database migrations applied")
	return nil
}

// EnsureExtension creates a PostgreSQL extension if it is missing. Lacking
// the privilege to create it is logged and ignored.
func (c *Client) EnsureExtension(ctx context.Context, name string) error {
	_, err := c.db.ExecContext(ctx, fmt.Sprintf("CREATE EXTENSION IF NOT EXISTS %s", pq.QuoteIdentifier(name)))
	if err == nil {
		c.logger.Info("PostgreSQL extension available", slog.String("extension", name))
		return nil
	}

	if IsInsufficientPrivilege(err) {
		c.logger.Warn("Insufficient privilege to create extension, fuzzy search falls back to plain LIKE",
			slog.String("extension", name),
			slog.Any("error", err),
		)
		return nil
	}

	return fmt.Errorf("failed to create extension %s: %w", name, err)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation
func IsUniqueViolation(err error) bool {
	return hasCode(err, pgerrcode.UniqueViolation)
}

// IsInsufficientPrivilege reports whether err is a PostgreSQL insufficient_privilege
func IsInsufficientPrivilege(err error) bool {
	return hasCode(err, pgerrcode.InsufficientPrivilege)
}

func hasCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

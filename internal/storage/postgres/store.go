// Package postgres implements the storage contracts on PostgreSQL with sqlx.
package postgres

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/company-intel/internal/storage"
)

// Store is the PostgreSQL-backed storage.Store
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore wraps an open connection pool
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

func (s *Store) Companies() storage.CompanyRepository { return &companyRepo{db: s.db} }
func (s *Store) Tokens() storage.TokenRepository      { return &tokenRepo{db: s.db} }
func (s *Store) Jobs() storage.JobRepository          { return &jobRepo{db: s.db, logger: s.logger} }

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool is owned by shared/postgresql.Client
func (s *Store) Close() error {
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching term anywhere in a value
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

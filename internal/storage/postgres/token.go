package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/shared/postgresql"
)

type tokenRepo struct {
	db *sqlx.DB
}

func (r *tokenRepo) CreateToken(ctx context.Context, token *domain.AccessToken) error {
	query := `
		INSERT INTO access_tokens (token, client_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, token.Token, token.ClientID, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		if postgresql.IsUniqueViolation(err) {
			return domain.ErrTokenConflict
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// GetToken returns nil without error when the token does not exist
func (r *tokenRepo) GetToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	query := `SELECT token, client_id, created_at, expires_at FROM access_tokens WHERE token = $1`

	var row tokenRow
	if err := r.db.GetContext(ctx, &row, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	return &domain.AccessToken{
		Token:     row.Token,
		ClientID:  row.ClientID,
		CreatedAt: row.CreatedAt.UTC(),
		ExpiresAt: row.ExpiresAt.UTC(),
	}, nil
}

func (r *tokenRepo) DeleteToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

func (r *tokenRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

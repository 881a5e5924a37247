// Package auth issues and validates opaque bearer tokens for the single
// configured client credential pair.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/internal/storage"
)

const (
	TokenType = "bearer"

	tokenBytes    = 32
	issueAttempts = 2
)

// Config holds the accepted credentials and token lifetime
type Config struct {
	ClientID     string
	ClientSecret string
	TokenTTL     time.Duration
}

// Store is the credential store
type Store struct {
	tokens storage.TokenRepository
	config Config
	clock  Clock
	logger *slog.Logger
}

// NewStore creates a credential store. A nil clock means UTCClock.
func NewStore(tokens storage.TokenRepository, config Config, clock Clock, logger *slog.Logger) *Store {
	if clock == nil {
		clock = UTCClock{}
	}
	return &Store{
		tokens: tokens,
		config: config,
		clock:  clock,
		logger: logger,
	}
}

// Issue exchanges a client credential pair for a new token
func (s *Store) Issue(ctx context.Context, clientID, clientSecret string) (*domain.IssuedToken, error) {
	if !s.credentialsMatch(clientID, clientSecret) {
		s.logger.Warn("Rejected token request", slog.String("client_id", clientID))
		return nil, domain.ErrInvalidCredentials
	}

	for attempt := 1; attempt <= issueAttempts; attempt++ {
		value, err := generateToken()
		if err != nil {
			return nil, err
		}

		now := s.clock.Now()
		token := &domain.AccessToken{
			Token:     value,
			ClientID:  clientID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.config.TokenTTL),
		}

		err = s.tokens.CreateToken(ctx, token)
		if errors.Is(err, domain.ErrTokenConflict) {
			s.logger.Warn("Generated token collided, retrying", slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store token: %w", err)
		}

		s.logger.Info("Issued access token",
			slog.String("client_id", clientID),
			slog.Time("expires_at", token.ExpiresAt),
		)

		return &domain.IssuedToken{
			AccessToken: value,
			TokenType:   TokenType,
			ExpiresIn:   int64(s.config.TokenTTL / time.Second),
			ExpiresAt:   token.ExpiresAt,
		}, nil
	}

	return nil, fmt.Errorf("failed to store token: %w", domain.ErrTokenConflict)
}

// Validate reports whether token is present and unexpired. An expired token
// is deleted as a side effect.
func (s *Store) Validate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	stored, err := s.tokens.GetToken(ctx, token)
	if err != nil {
		return false, fmt.Errorf("failed to look up token: %w", err)
	}
	if stored == nil {
		return false, nil
	}

	if stored.Expired(s.clock.Now()) {
		if err := s.tokens.DeleteToken(ctx, token); err != nil {
			s.logger.Error("Failed to delete expired token", slog.Any("error", err))
		}
		return false, nil
	}

	return true, nil
}

// SweepExpired deletes every token whose expiry has passed
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := s.tokens.DeleteExpiredTokens(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired tokens: %w", err)
	}

	s.logger.Info("Swept expired tokens", slog.Int64("deleted", deleted))
	return deleted, nil
}

// RunSweeper calls SweepExpired every interval until ctx is done
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Token sweep failed", slog.Any("error", err))
			}
		}
	}
}

func (s *Store) credentialsMatch(clientID, clientSecret string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(clientID), []byte(s.config.ClientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(clientSecret), []byte(s.config.ClientSecret)) == 1
	return idOK && secretOK
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

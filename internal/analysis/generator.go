// Package analysis produces structured company-intelligence documents from a
// generative AI provider.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cuongbtq/company-intel/internal/domain"
)

// Config controls retries and document post-processing
type Config struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestTimeout    time.Duration
	CanonicalNamePath string
}

// Analysis is a validated document and the canonical name found in it
type Analysis struct {
	Document      json.RawMessage
	CanonicalName *string
}

// Generator runs the provider with capped exponential retries
type Generator struct {
	backend Backend
	keys    *KeyStore
	config  Config
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewGenerator creates a generator. Zero config values fall back to
// 3 attempts, 1s base delay, 16s max delay.
func NewGenerator(backend Backend, keys *KeyStore, config Config, logger *slog.Logger) *Generator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 16 * time.Second
	}
	if config.CanonicalNamePath == "" {
		config.CanonicalNamePath = DefaultCanonicalNamePath
	}

	return &Generator{
		backend: backend,
		keys:    keys,
		config:  config,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Generate produces an analysis for companyName. Every failure is reported
// as a *domain.GenerationError.
func (g *Generator) Generate(ctx context.Context, companyName string) (*Analysis, error) {
	prompt := buildPrompt(companyName)

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < g.config.MaxAttempts; attempt++ {
		attempts++

		g.logger.Info("Generating analysis",
			slog.String("company_name", companyName),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", g.config.MaxAttempts),
		)

		result, err := g.attempt(ctx, prompt)
		if err == nil {
			g.logger.Info("Analysis generated",
				slog.String("company_name", companyName),
				slog.Int("attempt", attempt+1),
			)
			return result, nil
		}
		lastErr = err

		if errors.Is(err, domain.ErrMissingAPIKey) || ctx.Err() != nil {
			break
		}
		if attempt == g.config.MaxAttempts-1 {
			break
		}

		delay := Backoff(attempt, g.config.BaseDelay, g.config.MaxDelay)
		g.logger.Warn("Analysis attempt failed, retrying",
			slog.String("company_name", companyName),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)

		if err := g.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	g.logger.Error("Analysis generation failed",
		slog.String("company_name", companyName),
		slog.Int("attempts", attempts),
		slog.Any("error", lastErr),
	)

	return nil, &domain.GenerationError{
		CompanyName: companyName,
		Attempts:    attempts,
		Err:         lastErr,
	}
}

func (g *Generator) attempt(ctx context.Context, prompt string) (*Analysis, error) {
	if g.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.RequestTimeout)
		defer cancel()
	}

	// one key snapshot per attempt
	text, err := g.backend.GenerateText(ctx, g.keys.Get(), prompt)
	if err != nil {
		return nil, err
	}

	doc, err := ExtractDocument(text)
	if err != nil {
		return nil, err
	}

	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	return &Analysis{
		Document:      doc,
		CanonicalName: CanonicalName(doc, g.config.CanonicalNamePath),
	}, nil
}


package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cuongbtq/company-intel/internal/auth"
)

var sweepTokensCmd = &cobra.Command{
	Use:   "sweep-tokens",
	Short: "Delete expired access tokens",
	RunE:  runSweepTokens,
}

func runSweepTokens(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	store, closeStore, err := openStore(cmd.Context(), &cfg.Database, appLogger.Logger)
	if err != nil {
		return err
	}
	defer closeStore()

	credentials := auth.NewStore(store.Tokens(), auth.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		TokenTTL:     cfg.Auth.TokenTTL(),
	}, nil, appLogger.Logger)

	removed, err := credentials.SweepExpired(cmd.Context())
	if err != nil {
		return err
	}

	appLogger.Info("Expired tokens removed", slog.Int64("removed", removed))
	return nil
}

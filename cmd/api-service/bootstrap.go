package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/cuongbtq/company-intel/internal/config"
	"github.com/cuongbtq/company-intel/internal/migrations"
	"github.com/cuongbtq/company-intel/internal/storage"
	"github.com/cuongbtq/company-intel/internal/storage/memory"
	"github.com/cuongbtq/company-intel/internal/storage/postgres"
	"github.com/cuongbtq/company-intel/shared/logger"
	"github.com/cuongbtq/company-intel/shared/postgresql"
	"github.com/cuongbtq/company-intel/shared/rabbitmq"
)

// loadConfig reads the config file when present, then the environment
func loadConfig() (*config.Config, error) {
	path := configPath
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}

// migrate applies the embedded schema and enables pg_trgm when permitted
func migrate(ctx context.Context, client *postgresql.Client) error {
	if err := client.EnsureExtension(ctx, "pg_trgm"); err != nil {
		return err
	}
	return client.RunMigrations(ctx, migrations.FS, migrations.Dir)
}

// openStore builds the configured storage backend. The returned close
// function releases the database connection, if any.
func openStore(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (storage.Store, func(), error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	client, err := initPostgreSQL(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.RunMigrations {
		if err := migrate(ctx, client); err != nil {
			client.Close()
			return nil, nil, err
		}
	}

	return postgres.NewStore(client.GetDB(), logger), func() { client.Close() }, nil
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}, logger)
}

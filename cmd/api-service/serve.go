package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cuongbtq/company-intel/internal/analysis"
	"github.com/cuongbtq/company-intel/internal/api/handler"
	"github.com/cuongbtq/company-intel/internal/api/router"
	"github.com/cuongbtq/company-intel/internal/auth"
	"github.com/cuongbtq/company-intel/internal/config"
	"github.com/cuongbtq/company-intel/internal/search"
	"github.com/cuongbtq/company-intel/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the background job pool",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := analysis.ValidateCanonicalNamePath(cfg.Gemini.CanonicalNamePath); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()
	log := appLogger.Logger

	log.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, &cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var events worker.EventPublisher
	if cfg.Events.Enabled {
		rabbitClient, err := initRabbitMQ(&cfg.Events.RabbitMQ, log)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		defer rabbitClient.Close()
		events = worker.NewRabbitEventPublisher(rabbitClient, appLogger.Component("events"))
	}

	keys := analysis.NewKeyStore(cfg.Gemini.APIKey)
	if keys.Get() == "" {
		log.Warn("Gemini API key is not configured; generation fails until it is set via /admin/gemini-key")
	}

	generator := analysis.NewGenerator(
		&analysis.GeminiBackend{Model: cfg.Gemini.Model, Temperature: cfg.Gemini.Temperature},
		keys,
		analysis.Config{
			MaxAttempts:       cfg.Gemini.MaxAttempts,
			BaseDelay:         cfg.Gemini.BaseDelay,
			MaxDelay:          cfg.Gemini.MaxDelay,
			RequestTimeout:    cfg.Gemini.RequestTimeout,
			CanonicalNamePath: cfg.Gemini.CanonicalNamePath,
		},
		appLogger.Component("analysis"),
	)

	credentials := auth.NewStore(store.Tokens(), auth.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		TokenTTL:     cfg.Auth.TokenTTL(),
	}, nil, appLogger.Component("auth"))

	searchService := search.NewService(store.Companies(), generator, appLogger.Component("search"))

	jobWorker := worker.NewWorker(&worker.Config{
		Logger:            appLogger.Component("worker"),
		Jobs:              store.Jobs(),
		Searcher:          searchService,
		Events:            events,
		Concurrency:       cfg.Worker.Concurrency,
		QueueSize:         cfg.Worker.QueueSize,
		EstimatedDuration: cfg.Worker.EstimatedDuration,
	})
	jobWorker.Start(ctx)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: initRouter(cfg, &handler.Dependencies{
			Logger:      log,
			Store:       store,
			Auth:        credentials,
			Search:      searchService,
			Worker:      jobWorker,
			Keys:        keys,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return credentials.RunSweeper(gctx, cfg.Auth.SweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
		}

		workerCtx, cancelWorker := context.WithTimeout(context.WithoutCancel(gctx), cfg.Worker.ShutdownTimeout)
		defer cancelWorker()
		if err := jobWorker.Stop(workerCtx); err != nil {
			errs = append(errs, fmt.Errorf("worker stop: %w", err))
		}

		if n, err := credentials.SweepExpired(shutdownCtx); err != nil {
			log.Warn("Final token sweep failed", slog.Any("error", err))
		} else {
			log.Info("Final token sweep complete", slog.Int64("removed", n))
		}

		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Server shutdown complete")
	return nil
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, deps *handler.Dependencies) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps, router.Options{AllowedOrigins: cfg.Server.AllowedOrigins})
}

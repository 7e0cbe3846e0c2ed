package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/association-tournaments/brackets"
	"github.com/Dosada05/association-tournaments/config"
	"github.com/Dosada05/association-tournaments/db"
	"github.com/Dosada05/association-tournaments/handlers"
	"github.com/Dosada05/association-tournaments/middleware"
	"github.com/Dosada05/association-tournaments/notifications"
	"github.com/Dosada05/association-tournaments/repositories"
	api "github.com/Dosada05/association-tournaments/routes"
	"github.com/Dosada05/association-tournaments/services"
	"github.com/Dosada05/association-tournaments/storage"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
)

//go:generate swag init -g cmd/main.go -d ../ -o ../docs

// @title                       Association Tournaments API
// @version                     1.0
// @description                 Tournament lifecycle, registration and bracket generation.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("database_driver", cfg.DatabaseDriver),
		slog.Bool("strict_status_transitions", cfg.StrictStatusTransitions))

	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(dbConn, cfg.DatabaseDriver, cfg.DatabaseURL); err != nil {
		return err
	}
	logger.Info("database connection established")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	tournamentRepo := repositories.NewSQLTournamentRepository(dbConn)
	playerRepo := repositories.NewSQLPlayerRepository(dbConn)

	var notifier services.Notifier
	if cfg.SMTPEnabled() {
		notifier = notifications.NewEmailNotifier(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
		}, playerRepo)
		logger.Info("SMTP notifier configured", slog.String("host", cfg.SMTPHost))
	} else {
		notifier = notifications.NewLogNotifier(logger)
		logger.Warn("SMTP is not configured, notifications are only logged")
	}

	var archive services.BracketArchiver
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewObjectStorageUploader(ctx, storage.ObjectStorageConfig{
			AccountID:       cfg.R2AccountID,
			Endpoint:        cfg.R2Endpoint,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
		archive = storage.NewBracketArchive(uploader)
		logger.Info("Bracket archive initialized", slog.String("bucket", cfg.R2BucketName))
	}

	policy := services.PermissiveTransitions()
	if cfg.StrictStatusTransitions {
		policy = services.StrictTransitions()
	}

	clock := clockwork.NewRealClock()
	aggregates := services.NewAggregateStore(tournamentRepo)
	dispatcher := services.NewNotificationDispatcher(notifier, wsHub, cfg.NotificationConcurrency, logger)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := dispatcher.Drain(drainCtx); err != nil {
			logger.Warn("pending notifications dropped at shutdown", slog.Any("error", err))
		}
	}()

	tournamentService := services.NewTournamentService(tournamentRepo, aggregates, policy, dispatcher, clock, logger)
	registrationService := services.NewRegistrationService(aggregates, playerRepo, dispatcher, clock, logger)
	bracketService := services.NewBracketService(
		aggregates,
		brackets.NewSingleEliminationGenerator(clock.Now),
		services.CryptoSeed,
		archive,
		dispatcher,
		logger,
	)
	logger.Info("Services initialized")

	scheduler, err := services.NewStatusScheduler(ctx, tournamentService, cfg.StatusSweepInterval, clock, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Tournament:   handlers.NewTournamentHandler(tournamentService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		Bracket:      handlers.NewBracketHandler(bracketService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
	}, middleware.NewAuthenticator(cfg.JWTSecretKey), cfg.CORSAllowedOrigins)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}
	return nil
}

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

	"github.com/Dosada05/duel-vault/brackets"
	"github.com/Dosada05/duel-vault/config"
	"github.com/Dosada05/duel-vault/db"
	"github.com/Dosada05/duel-vault/handlers"
	"github.com/Dosada05/duel-vault/metrics"
	"github.com/Dosada05/duel-vault/repositories"
	api "github.com/Dosada05/duel-vault/routes"
	"github.com/Dosada05/duel-vault/services"
	"github.com/Dosada05/duel-vault/storage"
	"github.com/go-chi/chi/v5"
)

const statusJobTimeout = 30 * time.Second

// @title Duel Vault API
// @version 1.0
// @description Deck, match and tournament tracking with bracket synchronisation.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	if cfg.RunMigrations {
		version, err := db.Migrate(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied", slog.Uint64("version", uint64(version)))
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	store, err := newObjectStore(cfg.S3, logger)
	if err != nil {
		logger.Error("failed to initialize object storage", slog.Any("error", err))
		os.Exit(1)
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	m := metrics.New()

	txManager := repositories.NewTxManager(dbConn)
	deckRepo := repositories.NewPostgresDeckRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	formatRepo := repositories.NewPostgresFormatRepository(dbConn)
	archetypeRepo := repositories.NewPostgresArchetypeRepository(dbConn)
	logger.Info("Repositories initialized")

	syncer := services.NewBracketSynchronizer(stageRepo, store, brackets.NewManager(), logger, m)
	matchService := services.NewMatchService(
		txManager,
		matchRepo,
		deckRepo,
		tournamentRepo,
		services.NewStandingsRecalculator(matchRepo, standingRepo),
		syncer,
		wsHub,
		m,
		logger,
	)
	deckService := services.NewDeckService(txManager, deckRepo, matchRepo, standingRepo, formatRepo, archetypeRepo, logger)
	tournamentService := services.NewTournamentService(
		txManager,
		tournamentRepo,
		matchRepo,
		deckRepo,
		standingRepo,
		stageRepo,
		formatRepo,
		store,
		wsHub,
		m,
		logger,
	)
	formatService := services.NewFormatService(formatRepo, archetypeRepo)
	dashboardService := services.NewDashboardService(deckRepo, matchRepo, tournamentRepo)
	logger.Info("Services initialized")

	scheduler, err := services.NewStatusScheduler(tournamentService, cfg.StatusSchedulerInterval, statusJobTimeout, logger)
	if err != nil {
		logger.Error("failed to create status scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to stop status scheduler", slog.Any("error", err))
		}
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Match:      handlers.NewMatchHandler(matchService),
		Deck:       handlers.NewDeckHandler(deckService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Format:     handlers.NewFormatHandler(formatService),
		Dashboard:  handlers.NewDashboardHandler(dashboardService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins),
		Metrics:    m.Handler(),
	}, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			return
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}

// newObjectStore connects to the configured S3 bucket, or keeps stage
// documents in memory when no bucket is configured.
func newObjectStore(cfg config.S3Config, logger *slog.Logger) (storage.ObjectStore, error) {
	if !cfg.Enabled() {
		logger.Warn("S3_BUCKET_BRACKETS is not set, stage documents are kept in memory")
		return storage.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.NewS3Store(ctx, storage.S3StoreConfig{
		Endpoint:        cfg.Endpoint,
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		BucketName:      cfg.Bucket,
		UsePathStyle:    cfg.UsePathStyle,
	})
	if err != nil {
		return nil, err
	}

	exists, err := store.BucketExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}
	logger.Info("S3 object storage initialized", slog.String("bucket", cfg.Bucket))
	return store, nil
}

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

	"github.com/Dosada05/esports-registration/config"
	"github.com/Dosada05/esports-registration/db"
	"github.com/Dosada05/esports-registration/handlers"
	"github.com/Dosada05/esports-registration/metrics"
	"github.com/Dosada05/esports-registration/repositories"
	api "github.com/Dosada05/esports-registration/routes"
	"github.com/Dosada05/esports-registration/services"
	"github.com/Dosada05/esports-registration/storage"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// @title E-sports Registration API
// @version 1.0
// @description Tournament lifecycle and single-elimination brackets for college e-sports.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("store", cfg.StoreDriver),
	)

	// Хранилище и R2 поднимаются параллельно: оба ходят в сеть.
	var (
		store      repositories.Store
		closeStore = func() {}
		uploader   storage.FileUploader
	)
	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		st, closeFn, err := openStore(cfg, logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		store, closeStore = st, closeFn
		return nil
	})
	// Загрузчик логотипов (Cloudflare R2) опционален
	if cfg.R2Enabled() {
		g.Go(func() error {
			u, err := storage.NewR2Uploader(gctx, storage.R2Config{
				AccountID:       cfg.R2AccountID,
				AccessKeyID:     cfg.R2AccessKeyID,
				SecretAccessKey: cfg.R2SecretAccessKey,
				BucketName:      cfg.R2BucketName,
				PublicBaseURL:   cfg.R2PublicBaseURL,
			})
			if err != nil {
				return fmt.Errorf("initialize Cloudflare R2 uploader: %w", err)
			}
			uploader = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		closeStore()
		logger.Error("startup failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()
	if uploader != nil {
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, logo upload disabled")
	}

	metrics.Register()

	// Инициализация сервисов
	locker := services.NewTournamentLocker()
	bracketService := services.NewBracketService(store, locker, logger)
	matchService := services.NewMatchService(store, locker, bracketService, uploader, logger)
	participantService := services.NewParticipantService(store, locker, matchService, bracketService, logger)
	tournamentService := services.NewTournamentService(store, locker, bracketService, uploader, logger)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, matchService, logger)
	participantHandler := handlers.NewParticipantHandler(participantService, logger)
	matchHandler := handlers.NewMatchHandler(matchService, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			JWTSecret:      cfg.JWTSecretKey,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			RequestTimeout: cfg.RequestTimeout,
		},
		tournamentHandler,
		participantHandler,
		matchHandler,
	)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// openStore выбирает хранилище по STORE_DRIVER.
func openStore(cfg *config.Config, logger *slog.Logger) (repositories.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return repositories.NewMemoryStore(cfg.StoreTimeout), func() {}, nil
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, cfg.StoreTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := db.Migrate(dbConn); err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database connection established")

	closeFn := func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
			return
		}
		logger.Info("database connection closed")
	}
	return repositories.NewPostgresStore(dbConn, cfg.StoreTimeout), closeFn, nil
}

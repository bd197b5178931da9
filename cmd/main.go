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

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/fencing-tableau/brackets"
	"github.com/Dosada05/fencing-tableau/config"
	"github.com/Dosada05/fencing-tableau/db"
	"github.com/Dosada05/fencing-tableau/handlers"
	"github.com/Dosada05/fencing-tableau/middleware"
	"github.com/Dosada05/fencing-tableau/repositories"
	api "github.com/Dosada05/fencing-tableau/routes"
	"github.com/Dosada05/fencing-tableau/services"
	"github.com/Dosada05/fencing-tableau/storage"
)

const localResultsPrefix = "/results"

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
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

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.Migrate(migrateCtx, dbConn)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to apply schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	// Публикация результатов: Cloudflare R2 или локальное хранилище в памяти
	var (
		uploader    storage.FileUploader
		localResult *storage.MemoryUploader
	)
	if cfg.R2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2.BucketName))
	} else {
		localResult = storage.NewMemoryUploader(fmt.Sprintf("http://localhost:%d%s", cfg.ServerPort, localResultsPrefix))
		uploader = localResult
		logger.Warn("R2 is not configured, published results are kept in memory")
	}

	// Инициализация WebSocket Hub
	hubDone := make(chan struct{})
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(hubDone)
	logger.Info("WebSocket Hub started")

	sessionRepo := repositories.NewPostgresSessionRepository(dbConn)

	authService := services.NewAuthService(sessionRepo, logger)
	sessionService := services.NewSessionService(sessionRepo, uploader, wsHub, logger, services.SessionDefaults{
		MaxScore: cfg.DefaultMaxScore,
	})
	logger.Info("services initialized")

	scoreLimiter := middleware.NewSessionRateLimiter(cfg.ScoreRateLimit, cfg.ScoreRateBurst)

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey, cfg.TokenTTL)
	sessionHandler := handlers.NewSessionHandler(sessionService, scoreLimiter)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, sessionService, cfg.CORSAllowedOrigins, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		ScoreLimiter:   scoreLimiter,
	}, authHandler, sessionHandler, webSocketHandler)
	if localResult != nil {
		router.Handle(localResultsPrefix+"/*", http.StripPrefix(localResultsPrefix, localResult))
	}
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			close(hubDone)
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	close(hubDone)
	logger.Info("application exited")
}

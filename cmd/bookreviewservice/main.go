// cmd/bookreviewservice/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"book-review-service/internal/api"
	"book-review-service/internal/config"
	"book-review-service/internal/store"
	"book-review-service/pkg/auth"
)

// connectToDB инициализирует соединение с базой данных.
func connectToDB(dbURL string, logger *slog.Logger) (*sqlx.DB, error) {
	logger.Info("Attempting to connect to database", slog.String("dbURL_used", strings.Replace(dbURL, extractPassword(dbURL), "********", 1)))

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping PostgreSQL database", slog.String("error", err.Error()))
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL database.")
	return db, nil
}

// extractPassword - вспомогательная функция для логирования URL без пароля (упрощенная)
func extractPassword(dbURL string) string {
	parts := strings.Split(dbURL, ":")
	if len(parts) > 2 {
		passAndHost := strings.Split(parts[2], "@")
		if len(passAndHost) > 0 {
			return passAndHost[0]
		}
	}
	return ""
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.IsDefaultJWTKey() {
		logger.Warn("JWT_SECRET_KEY environment variable not set, using insecure default. Do not use this in production.")
	}

	db, err := connectToDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		logger.Info("Closing PostgreSQL database connection...")
		if err := db.Close(); err != nil {
			logger.Error("Failed to close PostgreSQL connection", slog.String("error", err.Error()))
		}
	}()

	bookStore, err := store.NewPostgresBookStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize PostgreSQL book store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	userStore, err := store.NewPostgresUserStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize PostgreSQL user store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	reviewStore, err := store.NewPostgresReviewStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize PostgreSQL review store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("PostgreSQL stores initialized.")

	tokenManager, err := auth.NewTokenManager(cfg.JWTSecretKey, cfg.TokenTTL)
	if err != nil {
		logger.Error("Failed to initialize token manager", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handler := api.NewHTTPHandler(bookStore, reviewStore, userStore, logger, api.NewValidator(), tokenManager, api.RateLimitConfig{
		AuthenticatedPerMinute: cfg.RateLimitAuthenticatedPerMinute,
		AnonymousPerMinute:     cfg.RateLimitAnonymousPerMinute,
		ReviewsPerMinute:       cfg.RateLimitReviewsPerMinute,
	})
	router := api.NewRouter(handler)

	// CORS: заголовок Link должен быть доступен браузерным клиентам.
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler(router)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      corsHandler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", slog.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server ListenAndServe() failed", slog.String("error", err.Error()))
		}
	}()

	// Ожидание сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP Server Shutdown Failed", slog.String("error", err.Error()))
	} else {
		logger.Info("HTTP Server gracefully stopped.")
	}
}

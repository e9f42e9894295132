// cmd/createadmin/main.go
//
// Утилита для создания учетной записи администратора. По умолчанию создает
// пользователя admin/admin123; если пользователь уже существует, ничего не делает.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"book-review-service/internal/config"
	"book-review-service/internal/domain"
	"book-review-service/internal/store"
	"book-review-service/pkg/auth"
)

// createAdmin создает администратора, если пользователя с таким именем еще
// нет. Возвращает nil без ошибки, когда пользователь уже существует.
func createAdmin(ctx context.Context, users store.UserStore, username, password string) (*domain.User, error) {
	if _, err := users.GetByUsername(ctx, username); err == nil {
		return nil, nil
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	admin := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	username := flag.String("username", "admin", "имя учетной записи администратора")
	password := flag.String("password", "admin123", "пароль учетной записи администратора")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	userStore, err := store.NewPostgresUserStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize PostgreSQL user store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admin, err := createAdmin(ctx, userStore, *username, *password)
	if err != nil {
		logger.Error("Failed to create admin user", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if admin == nil {
		logger.Info("Admin user already exists", slog.String("username", *username))
		return
	}

	logger.Info("Admin user created successfully", slog.String("username", *username))
}

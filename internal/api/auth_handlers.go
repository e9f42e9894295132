package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"book-review-service/internal/domain"
	"book-review-service/internal/store"
	"book-review-service/pkg/auth"
)

// Register создает нового пользователя. Флаг администратора из тела запроса
// игнорируется: самостоятельная регистрация всегда дает обычного пользователя.
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP Register request received", slog.String("path", r.URL.Path))

	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode registration request body", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to hash password", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Error processing registration")
		return
	}

	newUser := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hashedPassword,
		IsAdmin:      false,
	}

	if err := h.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			h.respondError(w, r, http.StatusBadRequest, "The username has been used")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create user in store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to register user")
		return
	}

	h.logger.InfoContext(ctx, "User registered successfully",
		slog.String("userID", newUser.ID), slog.String("username", newUser.Username))
	h.respondJSON(w, r, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// Login проверяет учетные данные и выдает bearer-токен.
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP Login request received", slog.String("path", r.URL.Path))

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode login request body", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "Login attempt for non-existent username", slog.String("username", req.Username))
			h.respondError(w, r, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get user by username from store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Login failed")
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		h.logger.WarnContext(ctx, "Invalid password attempt",
			slog.String("username", req.Username), slog.String("userID", user.ID))
		h.respondError(w, r, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	tokenString, err := h.tokenManager.Generate(user.ID, user.IsAdmin)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to generate JWT token",
			slog.String("userID", user.ID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Login failed")
		return
	}

	h.logger.InfoContext(ctx, "User logged in successfully",
		slog.String("userID", user.ID), slog.String("username", user.Username))
	h.respondJSON(w, r, http.StatusOK, domain.LoginResponse{Token: tokenString})
}

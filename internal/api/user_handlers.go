package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"book-review-service/internal/domain"
	"book-review-service/internal/store"
	"book-review-service/pkg/auth"
)

// ListUsers возвращает страницу пользователей, отсортированную по имени.
// Хеш пароля не сериализуется никогда.
func (h *HTTPHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pageReq, fieldErrs := parsePageRequest(r)
	if fieldErrs != nil {
		h.respondFieldErrors(w, r, fieldErrs)
		return
	}

	page, err := h.users.List(ctx, pageReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list users from store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	writePage(h, w, r, page)
}

// GetUser возвращает одного пользователя по ID.
func (h *HTTPHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := mux.Vars(r)["id"]

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusNotFound, "The user does not exist.")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get user from store", slog.String("userID", userID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	h.respondJSON(w, r, http.StatusOK, user)
}

// CreateUser создает пользователя от имени администратора; в отличие от
// регистрации здесь можно сразу выдать права администратора.
func (h *HTTPHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode user request body", slog.String("error", err.Error()))
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
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hashedPassword,
		IsAdmin:      req.IsAdmin,
	}

	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			h.respondError(w, r, http.StatusBadRequest, "The username has been used")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create user in store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create user")
		return
	}

	h.logger.InfoContext(ctx, "User created successfully",
		slog.String("userID", user.ID), slog.String("username", user.Username))
	h.respondJSON(w, r, http.StatusCreated, user)
}

// UpdateUser частично обновляет пользователя; новый пароль хешируется заново.
func (h *HTTPHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := mux.Vars(r)["id"]

	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode user update body", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusNotFound, "The user does not exist.")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get user for update", slog.String("userID", userID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update user")
		return
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Password != nil {
		hashedPassword, err := auth.HashPassword(*req.Password)
		if err != nil {
			h.logger.ErrorContext(ctx, "Failed to hash password", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to update user")
			return
		}
		user.PasswordHash = hashedPassword
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	if err := h.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrUserAlreadyExists):
			h.respondError(w, r, http.StatusBadRequest, "The username has been used")
		case errors.Is(err, store.ErrUserNotFound):
			h.respondError(w, r, http.StatusNotFound, "The user does not exist.")
		default:
			h.logger.ErrorContext(ctx, "Failed to update user in store", slog.String("userID", userID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}

	h.logger.InfoContext(ctx, "User updated successfully", slog.String("userID", user.ID))
	h.respondJSON(w, r, http.StatusOK, user)
}

// DeleteUser удаляет пользователя. Удаление собственной учетной записи
// запрещено, чтобы администратор не выпилил сам себя.
func (h *HTTPHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := mux.Vars(r)["id"]

	p, _ := PrincipalFromContext(ctx)
	if p.UserID == userID {
		h.respondError(w, r, http.StatusBadRequest, "The currently logged-in user cannot be deleted")
		return
	}

	if err := h.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusNotFound, "The user does not exist.")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete user from store", slog.String("userID", userID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	h.logger.InfoContext(ctx, "User deleted successfully", slog.String("userID", userID))
	h.respondJSON(w, r, http.StatusOK, map[string]string{"message": "The user has been successfully deleted"})
}

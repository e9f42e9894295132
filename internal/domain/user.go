package domain

import (
	"time"
)

// User представляет модель пользователя.
type User struct {
	ID           string    `json:"id" db:"id"` // UUID
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // Хеш пароля никогда не сериализуется
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// RegisterRequest для самостоятельной регистрации.
// Флаг администратора здесь сознательно отсутствует: регистрация всегда
// создает обычного пользователя, администраторов заводят через /users.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest для входа по имени пользователя и паролю.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse возвращает bearer-токен при успешном входе.
type LoginResponse struct {
	Token string `json:"token"`
}

// CreateUserRequest — создание пользователя администратором.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	IsAdmin  bool   `json:"is_admin"`
}

// UpdateUserRequest — частичное обновление пользователя администратором.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
}

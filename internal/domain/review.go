package domain

import (
	"time"
)

// Review представляет отзыв пользователя на книгу.
// Пара (book, user) уникальна: один пользователь — один отзыв на книгу,
// инвариант закреплен уникальным ограничением в хранилище.
type Review struct {
	ID        string    `json:"id" db:"id"`     // UUID
	BookID    string    `json:"book" db:"book_id"`
	UserID    string    `json:"user" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"` // Оценка 1-5
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Не хранятся в таблице reviews, подтягиваются JOIN-ом для ответов API.
	Username   string `json:"username,omitempty" db:"username"`
	BookTitle  string `json:"book_title,omitempty" db:"book_title"`
	BookAuthor string `json:"book_author,omitempty" db:"book_author"`
}

// CreateReviewRequest определяет тело запроса для создания отзыва.
type CreateReviewRequest struct {
	BookID  string `json:"book" validate:"required,uuid"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// UpdateReviewRequest определяет тело запроса для обновления отзыва.
// Поля опциональны: указатели отличают "не передано" от нулевого значения.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,min=1"`
}

package domain

import (
	"time"
)

// DefaultCoverImage используется, если клиент не передал собственную обложку.
const DefaultCoverImage = "https://covers.openlibrary.org/b/id/8091016-L.jpg"

// Book представляет модель книги в каталоге.
// AverageRating и TotalRatings — производные поля: их пишет только агрегатор
// рейтинга на основе отзывов, клиент не может задать их напрямую.
type Book struct {
	ID            string    `json:"id" db:"id"` // UUID
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	Description   string    `json:"description" db:"description"`
	PublishDate   time.Time `json:"publishDate" db:"publish_date"`
	ISBN          string    `json:"isbn" db:"isbn"`
	CoverImage    string    `json:"coverImage" db:"cover_image"`
	AverageRating float64   `json:"averageRating" db:"average_rating"`
	TotalRatings  int       `json:"totalRatings" db:"total_ratings"`
	AddedBy       string    `json:"addedBy" db:"added_by"` // ID администратора, добавившего книгу
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// BookRequest определяет тело запроса для создания и полного обновления книги.
// PublishDate принимается строкой и разбирается обработчиком: клиенты
// присылают как "2006-01-02", так и полный RFC 3339.
type BookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Description string `json:"description" validate:"required"`
	PublishDate string `json:"publishDate" validate:"required"`
	ISBN        string `json:"isbn" validate:"required"`
	CoverImage  string `json:"coverImage,omitempty" validate:"omitempty,url"`
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // Для обработки ошибок PostgreSQL

	"book-review-service/internal/domain"
)

// reviewSelect подтягивает имя пользователя и атрибуты книги JOIN-ом, чтобы
// ответы API не требовали дополнительных запросов.
const reviewSelect = `SELECT r.id, r.book_id, r.user_id, r.rating, r.comment, r.created_at, r.updated_at,
       u.username AS username, b.title AS book_title, b.author AS book_author
FROM reviews r
JOIN users u ON u.id = r.user_id
JOIN books b ON b.id = r.book_id`

const reviewCount = `SELECT COUNT(*) FROM reviews r`

// PostgresReviewStore реализует ReviewStore для PostgreSQL.
type PostgresReviewStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresReviewStore создает новый экземпляр PostgresReviewStore.
// db должен быть уже подключен.
func NewPostgresReviewStore(db *sqlx.DB, logger *slog.Logger) (*PostgresReviewStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil for PostgresReviewStore")
	}
	return &PostgresReviewStore{db: db, logger: logger}, nil
}

// Create создает новый отзыв. Дубликат пары (book, user) перехватывается
// уникальным ограничением uq_user_book_review: при гонке двух одинаковых
// вставок ровно одна завершится успехом, вторая получит ErrDuplicateReview.
func (s *PostgresReviewStore) Create(ctx context.Context, review *domain.Review) error {
	query := `INSERT INTO reviews (id, book_id, user_id, rating, comment, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`

	review.CreatedAt = time.Now().UTC()
	review.UpdatedAt = review.CreatedAt

	s.logger.DebugContext(ctx, "Executing Create review query",
		slog.String("reviewID", review.ID),
		slog.String("bookID", review.BookID),
		slog.String("userID", review.UserID))

	_, err := s.db.ExecContext(ctx, query,
		review.ID, review.BookID, review.UserID, review.Rating, review.Comment,
		review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			if pqErr.Constraint == "uq_user_book_review" {
				s.logger.WarnContext(ctx, "User has already reviewed this book (DB constraint)",
					slog.String("bookID", review.BookID), slog.String("userID", review.UserID))
				return ErrDuplicateReview
			}
			return fmt.Errorf("failed to create review due to unique constraint %s: %w", pqErr.Constraint, err)
		}
		s.logger.ErrorContext(ctx, "Failed to create review in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create review: %w", err)
	}
	s.logger.InfoContext(ctx, "Review created successfully in DB", slog.String("reviewID", review.ID))
	return nil
}

// GetByID находит отзыв по его ID.
func (s *PostgresReviewStore) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := reviewSelect + ` WHERE r.id = $1`
	var review domain.Review

	s.logger.DebugContext(ctx, "Executing GetReviewByID query", slog.String("reviewID", id))
	err := s.db.GetContext(ctx, &review, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "Review not found by ID in DB", slog.String("reviewID", id))
			return nil, ErrReviewNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get review by ID from DB", slog.String("reviewID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get review by ID: %w", err)
	}
	return &review, nil
}

// Update обновляет оценку и комментарий существующего отзыва.
func (s *PostgresReviewStore) Update(ctx context.Context, review *domain.Review) error {
	query := `UPDATE reviews SET rating = $1, comment = $2, updated_at = $3 WHERE id = $4`
	review.UpdatedAt = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing Update review query", slog.String("reviewID", review.ID))
	result, err := s.db.ExecContext(ctx, query, review.Rating, review.Comment, review.UpdatedAt, review.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update review in DB", slog.String("reviewID", review.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check review update result: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "No review found to update", slog.String("reviewID", review.ID))
		return ErrReviewNotFound
	}
	s.logger.InfoContext(ctx, "Review updated successfully in DB", slog.String("reviewID", review.ID))
	return nil
}

// Delete удаляет отзыв. Пересчет рейтинга книги — явный отдельный шаг
// обработчика, а не триггер хранилища.
func (s *PostgresReviewStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	s.logger.DebugContext(ctx, "Executing Delete review query", slog.String("reviewID", id))
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete review from DB", slog.String("reviewID", id), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check review delete result: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "No review found to delete", slog.String("reviewID", id))
		return ErrReviewNotFound
	}
	s.logger.InfoContext(ctx, "Review deleted successfully from DB", slog.String("reviewID", id))
	return nil
}

// List возвращает страницу всех отзывов, новые первыми.
func (s *PostgresReviewStore) List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Review], error) {
	return s.paginate(ctx, "", nil, req)
}

// ListByBook возвращает страницу отзывов на указанную книгу.
func (s *PostgresReviewStore) ListByBook(ctx context.Context, bookID string, req domain.PageRequest) (domain.Page[domain.Review], error) {
	return s.paginate(ctx, "r.book_id = $1", []interface{}{bookID}, req)
}

// ListByUser возвращает страницу отзывов, оставленных пользователем.
func (s *PostgresReviewStore) ListByUser(ctx context.Context, userID string, req domain.PageRequest) (domain.Page[domain.Review], error) {
	return s.paginate(ctx, "r.user_id = $1", []interface{}{userID}, req)
}

func (s *PostgresReviewStore) paginate(ctx context.Context, where string, args []interface{}, req domain.PageRequest) (domain.Page[domain.Review], error) {
	page, err := Paginate[domain.Review](ctx, s.db, reviewSelect, reviewCount, where, args, "r.created_at DESC", req)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list reviews from DB", slog.String("error", err.Error()))
		return domain.Page[domain.Review]{}, fmt.Errorf("failed to list reviews: %w", err)
	}
	return page, nil
}

// RecalculateBookRating пересчитывает и записывает агрегаты книги одной
// командой: свежий агрегат по отзывам вычисляется в подзапросе того же
// UPDATE, поэтому чтение-и-запись для конкретной книги атомарны и два
// конкурентных пересчета не могут потерять обновление друг друга.
// COALESCE сбрасывает агрегаты в 0 после удаления последнего отзыва.
func (s *PostgresReviewStore) RecalculateBookRating(ctx context.Context, bookID string) error {
	query := `UPDATE books
              SET average_rating = agg.avg_rating,
                  total_ratings  = agg.rating_count,
                  updated_at     = $2
              FROM (SELECT COALESCE(AVG(rating), 0) AS avg_rating,
                           COUNT(*)                 AS rating_count
                    FROM reviews WHERE book_id = $1) AS agg
              WHERE books.id = $1`

	s.logger.DebugContext(ctx, "Executing RecalculateBookRating query", slog.String("bookID", bookID))
	result, err := s.db.ExecContext(ctx, query, bookID, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to recalculate book rating in DB", slog.String("bookID", bookID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to recalculate rating for book %s: %w", bookID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rating recalculation result: %w", err)
	}
	if rowsAffected == 0 {
		// Книга могла быть удалена между записью отзыва и пересчетом.
		s.logger.WarnContext(ctx, "No book found to recalculate rating", slog.String("bookID", bookID))
		return ErrBookNotFound
	}
	s.logger.InfoContext(ctx, "Book rating recalculated", slog.String("bookID", bookID))
	return nil
}

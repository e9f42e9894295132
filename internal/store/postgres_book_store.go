package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"book-review-service/internal/domain"
)

const bookColumns = `id, title, author, description, publish_date, isbn, cover_image, average_rating, total_ratings, added_by, created_at, updated_at`

// PostgresBookStore реализует BookStore для PostgreSQL.
type PostgresBookStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresBookStore создает новый экземпляр PostgresBookStore.
// db должен быть уже подключен.
func NewPostgresBookStore(db *sqlx.DB, logger *slog.Logger) (*PostgresBookStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil for PostgresBookStore")
	}
	return &PostgresBookStore{db: db, logger: logger}, nil
}

// Create создает новую книгу в базе данных.
func (s *PostgresBookStore) Create(ctx context.Context, book *domain.Book) error {
	query := `INSERT INTO books (` + bookColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	book.CreatedAt = time.Now().UTC()
	book.UpdatedAt = book.CreatedAt

	s.logger.DebugContext(ctx, "Executing Create book query",
		slog.String("bookID", book.ID), slog.String("title", book.Title))

	_, err := s.db.ExecContext(ctx, query,
		book.ID, book.Title, book.Author, book.Description, book.PublishDate, book.ISBN,
		book.CoverImage, book.AverageRating, book.TotalRatings, book.AddedBy,
		book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create book in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create book: %w", err)
	}
	s.logger.InfoContext(ctx, "Book created successfully in DB", slog.String("bookID", book.ID))
	return nil
}

// GetByID находит книгу по ее ID.
func (s *PostgresBookStore) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	var book domain.Book

	s.logger.DebugContext(ctx, "Executing GetBookByID query", slog.String("bookID", id))
	err := s.db.GetContext(ctx, &book, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "Book not found by ID in DB", slog.String("bookID", id))
			return nil, ErrBookNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get book by ID from DB", slog.String("bookID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}
	return &book, nil
}

// List возвращает страницу каталога, отсортированную по названию.
// Фильтры по названию и автору — регистронезависимый поиск подстроки,
// одни и те же условия применяются и к count, и к выборке.
func (s *PostgresBookStore) List(ctx context.Context, params ListBooksParams) (domain.Page[domain.Book], error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if params.Title != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argID))
		args = append(args, "%"+params.Title+"%")
		argID++
	}
	if params.Author != "" {
		conditions = append(conditions, fmt.Sprintf("author ILIKE $%d", argID))
		args = append(args, "%"+params.Author+"%")
		argID++
	}
	where := strings.Join(conditions, " AND ")

	s.logger.DebugContext(ctx, "Executing List books query",
		slog.String("title", params.Title), slog.String("author", params.Author),
		slog.Int("page", params.Page.Page), slog.Int("limit", params.Page.Limit))

	page, err := Paginate[domain.Book](ctx, s.db,
		`SELECT `+bookColumns+` FROM books`,
		`SELECT COUNT(*) FROM books`,
		where, args, "title ASC", params.Page)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list books from DB", slog.String("error", err.Error()))
		return domain.Page[domain.Book]{}, fmt.Errorf("failed to list books: %w", err)
	}
	return page, nil
}

// Update обновляет существующую книгу. Поля рейтинга не трогает: они
// принадлежат агрегатору.
func (s *PostgresBookStore) Update(ctx context.Context, book *domain.Book) error {
	query := `UPDATE books SET title = $1, author = $2, description = $3, publish_date = $4,
                  isbn = $5, cover_image = $6, updated_at = $7
              WHERE id = $8`
	book.UpdatedAt = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing Update book query", slog.String("bookID", book.ID))
	result, err := s.db.ExecContext(ctx, query,
		book.Title, book.Author, book.Description, book.PublishDate,
		book.ISBN, book.CoverImage, book.UpdatedAt, book.ID,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update book in DB", slog.String("bookID", book.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update book: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check book update result: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "No book found to update", slog.String("bookID", book.ID))
		return ErrBookNotFound
	}
	s.logger.InfoContext(ctx, "Book updated successfully in DB", slog.String("bookID", book.ID))
	return nil
}

// Delete удаляет книгу; связанные отзывы удаляются каскадом на уровне схемы.
func (s *PostgresBookStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM books WHERE id = $1`

	s.logger.DebugContext(ctx, "Executing Delete book query", slog.String("bookID", id))
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete book from DB", slog.String("bookID", id), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete book: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check book delete result: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "No book found to delete", slog.String("bookID", id))
		return ErrBookNotFound
	}
	s.logger.InfoContext(ctx, "Book deleted successfully from DB", slog.String("bookID", id))
	return nil
}

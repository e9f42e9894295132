package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"book-review-service/internal/domain"
)

// Кастомные ошибки хранилища отзывов.
var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("user has already reviewed this book")
)

// ReviewStore определяет интерфейс для операций с данными отзывов.
//
// RecalculateBookRating — агрегатор рейтинга: пересчитывает averageRating и
// totalRatings книги по всем ее отзывам и записывает их в книгу. Вызывается
// синхронно после каждого создания, изменения и удаления отзыва; при нуле
// отзывов сбрасывает оба поля в 0. Для одной и той же книги конкурентные
// пересчеты сериализуются хранилищем.
type ReviewStore interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Review], error)
	ListByBook(ctx context.Context, bookID string, req domain.PageRequest) (domain.Page[domain.Review], error)
	ListByUser(ctx context.Context, userID string, req domain.PageRequest) (domain.Page[domain.Review], error)
	RecalculateBookRating(ctx context.Context, bookID string) error
}

// MockReviewStore — потокобезопасное хранилище в памяти для тестов.
// Ссылки на мок-хранилища книг и пользователей нужны для пересчета рейтинга
// и обогащения отзывов именем пользователя и названием книги (в PostgreSQL
// это делает JOIN).
type MockReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]*domain.Review
	books   *MockBookStore
	users   *MockUserStore
}

// NewMockReviewStore создает новый экземпляр MockReviewStore.
func NewMockReviewStore(books *MockBookStore, users *MockUserStore) *MockReviewStore {
	return &MockReviewStore{
		reviews: make(map[string]*domain.Review),
		books:   books,
		users:   users,
	}
}

func (m *MockReviewStore) Create(_ context.Context, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.reviews {
		if existing.BookID == review.BookID && existing.UserID == review.UserID {
			return ErrDuplicateReview
		}
	}
	review.CreatedAt = time.Now().UTC()
	review.UpdatedAt = review.CreatedAt
	reviewCopy := *review
	m.reviews[review.ID] = &reviewCopy
	return nil
}

func (m *MockReviewStore) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	review, ok := m.reviews[id]
	if !ok {
		return nil, ErrReviewNotFound
	}
	reviewCopy := *review
	m.enrich(ctx, &reviewCopy)
	return &reviewCopy, nil
}

func (m *MockReviewStore) Update(_ context.Context, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.reviews[review.ID]
	if !ok {
		return ErrReviewNotFound
	}
	existing.Rating = review.Rating
	existing.Comment = review.Comment
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockReviewStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reviews[id]; !ok {
		return ErrReviewNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m *MockReviewStore) List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Review], error) {
	return m.listWhere(ctx, req, func(*domain.Review) bool { return true })
}

func (m *MockReviewStore) ListByBook(ctx context.Context, bookID string, req domain.PageRequest) (domain.Page[domain.Review], error) {
	return m.listWhere(ctx, req, func(r *domain.Review) bool { return r.BookID == bookID })
}

func (m *MockReviewStore) ListByUser(ctx context.Context, userID string, req domain.PageRequest) (domain.Page[domain.Review], error) {
	return m.listWhere(ctx, req, func(r *domain.Review) bool { return r.UserID == userID })
}

func (m *MockReviewStore) listWhere(ctx context.Context, req domain.PageRequest, match func(*domain.Review) bool) (domain.Page[domain.Review], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]domain.Review, 0, len(m.reviews))
	for _, review := range m.reviews {
		if match(review) {
			reviewCopy := *review
			m.enrich(ctx, &reviewCopy)
			matched = append(matched, reviewCopy)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	return pageSlice(matched, req), nil
}

// RecalculateBookRating пересчитывает агрегаты книги по текущему набору
// отзывов. Сериализация обеспечивается мьютексом хранилища.
func (m *MockReviewStore) RecalculateBookRating(_ context.Context, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sum, count int
	for _, review := range m.reviews {
		if review.BookID == bookID {
			sum += review.Rating
			count++
		}
	}
	var average float64
	if count > 0 {
		average = float64(sum) / float64(count)
	}
	return m.books.setRating(bookID, average, count)
}

func (m *MockReviewStore) enrich(ctx context.Context, review *domain.Review) {
	if m.users != nil {
		if user, err := m.users.GetByID(ctx, review.UserID); err == nil {
			review.Username = user.Username
		}
	}
	if m.books != nil {
		if book, err := m.books.GetByID(ctx, review.BookID); err == nil {
			review.BookTitle = book.Title
			review.BookAuthor = book.Author
		}
	}
}

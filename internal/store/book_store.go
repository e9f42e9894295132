package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"book-review-service/internal/domain"
)

// Кастомные ошибки хранилища книг.
var (
	ErrBookNotFound = errors.New("book not found")
)

// ListBooksParams — параметры списка книг. Title и Author фильтруют по
// подстроке без учета регистра.
type ListBooksParams struct {
	Title  string
	Author string
	Page   domain.PageRequest
}

// BookStore определяет интерфейс для операций с данными книг.
// Поля рейтинга книги обновляет только ReviewStore.RecalculateBookRating.
type BookStore interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	List(ctx context.Context, params ListBooksParams) (domain.Page[domain.Book], error)
	Update(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, id string) error
}

// MockBookStore — потокобезопасное хранилище в памяти для тестов.
type MockBookStore struct {
	mu    sync.RWMutex
	books map[string]*domain.Book
}

// NewMockBookStore создает новый экземпляр MockBookStore.
func NewMockBookStore() *MockBookStore {
	return &MockBookStore{books: make(map[string]*domain.Book)}
}

func (m *MockBookStore) Create(_ context.Context, book *domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	book.CreatedAt = time.Now().UTC()
	book.UpdatedAt = book.CreatedAt
	bookCopy := *book
	m.books[book.ID] = &bookCopy
	return nil
}

func (m *MockBookStore) GetByID(_ context.Context, id string) (*domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	bookCopy := *book
	return &bookCopy, nil
}

func (m *MockBookStore) List(_ context.Context, params ListBooksParams) (domain.Page[domain.Book], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := strings.ToLower(params.Title)
	author := strings.ToLower(params.Author)

	matched := make([]domain.Book, 0, len(m.books))
	for _, book := range m.books {
		if title != "" && !strings.Contains(strings.ToLower(book.Title), title) {
			continue
		}
		if author != "" && !strings.Contains(strings.ToLower(book.Author), author) {
			continue
		}
		matched = append(matched, *book)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Title < matched[j].Title })

	return pageSlice(matched, params.Page), nil
}

func (m *MockBookStore) Update(_ context.Context, book *domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.books[book.ID]
	if !ok {
		return ErrBookNotFound
	}
	book.CreatedAt = existing.CreatedAt
	book.UpdatedAt = time.Now().UTC()
	bookCopy := *book
	m.books[book.ID] = &bookCopy
	return nil
}

func (m *MockBookStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return ErrBookNotFound
	}
	delete(m.books, id)
	return nil
}

// setRating применяет пересчитанные агрегаты; вызывается только
// MockReviewStore.RecalculateBookRating.
func (m *MockBookStore) setRating(id string, average float64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[id]
	if !ok {
		return ErrBookNotFound
	}
	book.AverageRating = average
	book.TotalRatings = count
	book.UpdatedAt = time.Now().UTC()
	return nil
}

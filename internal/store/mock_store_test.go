package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-review-service/internal/domain"
)

func seedMockBook(t *testing.T, books *MockBookStore, title string) *domain.Book {
	t.Helper()
	book := &domain.Book{ID: uuid.NewString(), Title: title, Author: "Author"}
	require.NoError(t, books.Create(context.Background(), book))
	return book
}

func TestMockReviewStoreDuplicate(t *testing.T) {
	books := NewMockBookStore()
	users := NewMockUserStore()
	reviews := NewMockReviewStore(books, users)
	ctx := context.Background()

	book := seedMockBook(t, books, "Target")
	userID := uuid.NewString()

	first := &domain.Review{ID: uuid.NewString(), BookID: book.ID, UserID: userID, Rating: 5, Comment: "One"}
	require.NoError(t, reviews.Create(ctx, first))

	second := &domain.Review{ID: uuid.NewString(), BookID: book.ID, UserID: userID, Rating: 3, Comment: "Two"}
	assert.ErrorIs(t, reviews.Create(ctx, second), ErrDuplicateReview)
}

func TestMockReviewStoreRecalculateBookRating(t *testing.T) {
	books := NewMockBookStore()
	users := NewMockUserStore()
	reviews := NewMockReviewStore(books, users)
	ctx := context.Background()

	book := seedMockBook(t, books, "Rated")

	first := &domain.Review{ID: uuid.NewString(), BookID: book.ID, UserID: uuid.NewString(), Rating: 5, Comment: "A"}
	second := &domain.Review{ID: uuid.NewString(), BookID: book.ID, UserID: uuid.NewString(), Rating: 2, Comment: "B"}
	require.NoError(t, reviews.Create(ctx, first))
	require.NoError(t, reviews.Create(ctx, second))
	require.NoError(t, reviews.RecalculateBookRating(ctx, book.ID))

	got, err := books.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, got.AverageRating)
	assert.Equal(t, 2, got.TotalRatings)

	// удаление всех отзывов сбрасывает агрегаты в ноль
	require.NoError(t, reviews.Delete(ctx, first.ID))
	require.NoError(t, reviews.Delete(ctx, second.ID))
	require.NoError(t, reviews.RecalculateBookRating(ctx, book.ID))

	got, err = books.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AverageRating)
	assert.Zero(t, got.TotalRatings)
}

func TestMockUserStoreUsernameUniqueness(t *testing.T) {
	users := NewMockUserStore()
	ctx := context.Background()

	first := &domain.User{ID: uuid.NewString(), Username: "alice", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, first))

	dup := &domain.User{ID: uuid.NewString(), Username: "alice", PasswordHash: "y"}
	assert.ErrorIs(t, users.Create(ctx, dup), ErrUserAlreadyExists)
}

func TestPageSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	t.Run("middle window", func(t *testing.T) {
		page := pageSlice(items, domain.PageRequest{Page: 2, Limit: 3})
		assert.Equal(t, []int{4, 5, 6}, page.Items)
		assert.Equal(t, 7, page.TotalDocs)
		assert.Equal(t, 3, page.TotalPages)
		assert.True(t, page.HasPrevPage)
		assert.True(t, page.HasNextPage)
	})

	t.Run("short final window", func(t *testing.T) {
		page := pageSlice(items, domain.PageRequest{Page: 3, Limit: 3})
		assert.Equal(t, []int{7}, page.Items)
		assert.False(t, page.HasNextPage)
	})

	t.Run("beyond the set", func(t *testing.T) {
		page := pageSlice(items, domain.PageRequest{Page: 10, Limit: 3})
		assert.Empty(t, page.Items)
		assert.Equal(t, 7, page.TotalDocs)
	})
}

func TestMockBookStoreFilters(t *testing.T) {
	books := NewMockBookStore()
	ctx := context.Background()

	require.NoError(t, books.Create(ctx, &domain.Book{ID: uuid.NewString(), Title: "The Go Programming Language", Author: "Alan Donovan"}))
	require.NoError(t, books.Create(ctx, &domain.Book{ID: uuid.NewString(), Title: "Learning Python", Author: "Mark Lutz"}))

	page, err := books.List(ctx, ListBooksParams{Title: "GO", Page: domain.PageRequest{}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "The Go Programming Language", page.Items[0].Title)

	page, err = books.List(ctx, ListBooksParams{Author: "lutz", Page: domain.PageRequest{}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Learning Python", page.Items[0].Title)
}

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-review-service/internal/domain"
)

func TestListBooksPagination(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.adminToken(t)
	for i := 1; i <= 7; i++ {
		env.seedBook(t, fmt.Sprintf("Book %d", i), "Author", admin.ID)
	}

	rec := env.do(t, http.MethodGet, "/api/books?page=2&limit=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var books []domain.Book
	decodeBody(t, rec, &books)
	require.Len(t, books, 3)
	assert.Equal(t, "Book 4", books[0].Title)
	assert.Equal(t, "Book 6", books[2].Title)

	link := rec.Header().Get("Link")
	assert.Contains(t, link, `</api/books?limit=3&page=1>; rel="first"`)
	assert.Contains(t, link, `</api/books?limit=3&page=1>; rel="prev"`)
	assert.Contains(t, link, `</api/books?limit=3&page=3>; rel="next"`)
	assert.Contains(t, link, `</api/books?limit=3&page=3>; rel="last"`)
}

func TestListBooksEmptyCatalog(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/books", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Link"))
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListBooksTitleFilter(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.adminToken(t)
	env.seedBook(t, "The Go Programming Language", "Donovan", admin.ID)
	env.seedBook(t, "Learning Python", "Lutz", admin.ID)

	rec := env.do(t, http.MethodGet, "/api/books?title=go", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var books []domain.Book
	decodeBody(t, rec, &books)
	require.Len(t, books, 1)
	assert.Equal(t, "The Go Programming Language", books[0].Title)
}

func TestListBooksInvalidPageParam(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/books?page=abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Errors []FieldError `json:"errors"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "page", body.Errors[0].Field)
	assert.Equal(t, "Page must be a positive integer", body.Errors[0].Message)
}

func TestGetBookNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/books/00000000-0000-0000-0000-000000000000", "", nil)
	requireErrorBody(t, rec, http.StatusNotFound, "no book")
}

func TestCreateBookRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	userToken, _ := env.userToken(t, "reader", false)

	body := map[string]string{
		"title":       "New Book",
		"author":      "Somebody",
		"description": "About something",
		"publishDate": "2020-01-01",
		"isbn":        "9780000000001",
	}

	t.Run("no token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/books", "", body)
		requireErrorBody(t, rec, http.StatusUnauthorized, "Unauthorized")
	})

	t.Run("non-admin token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/books", userToken, body)
		requireErrorBody(t, rec, http.StatusForbidden, "Only administrators can perform this operation")
	})
}

func TestCreateBook(t *testing.T) {
	env := newTestEnv(t)
	adminToken, admin := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/books", adminToken, map[string]string{
		"title":       "New Book",
		"author":      "Somebody",
		"description": "About something",
		"publishDate": "2020-01-01",
		"isbn":        "9780000000001",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var book domain.Book
	decodeBody(t, rec, &book)
	assert.Equal(t, "New Book", book.Title)
	assert.Equal(t, domain.DefaultCoverImage, book.CoverImage)
	assert.Equal(t, admin.ID, book.AddedBy)
	assert.Zero(t, book.AverageRating)
	assert.Zero(t, book.TotalRatings)
}

func TestCreateBookValidation(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.adminToken(t)

	t.Run("missing title", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/books", adminToken, map[string]string{
			"author":      "Somebody",
			"description": "About something",
			"publishDate": "2020-01-01",
			"isbn":        "9780000000001",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Errors []FieldError `json:"errors"`
		}
		decodeBody(t, rec, &body)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "title", body.Errors[0].Field)
		assert.Equal(t, "The title cannot be empty", body.Errors[0].Message)
	})

	t.Run("bad publish date", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/books", adminToken, map[string]string{
			"title":       "New Book",
			"author":      "Somebody",
			"description": "About something",
			"publishDate": "not-a-date",
			"isbn":        "9780000000001",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Errors []FieldError `json:"errors"`
		}
		decodeBody(t, rec, &body)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "publishDate", body.Errors[0].Field)
		assert.Equal(t, "The publication date must be the valid date", body.Errors[0].Message)
	})
}

func TestUpdateBookKeepsCoverWhenOmitted(t *testing.T) {
	env := newTestEnv(t)
	adminToken, admin := env.adminToken(t)
	book := env.seedBook(t, "Old Title", "Author", admin.ID)

	rec := env.do(t, http.MethodPut, "/api/books/"+book.ID, adminToken, map[string]string{
		"title":       "New Title",
		"author":      "Author",
		"description": "Updated description",
		"publishDate": "2001-06-15",
		"isbn":        book.ISBN,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.Book
	decodeBody(t, rec, &updated)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, book.CoverImage, updated.CoverImage)
}

func TestDeleteBook(t *testing.T) {
	env := newTestEnv(t)
	adminToken, admin := env.adminToken(t)
	book := env.seedBook(t, "Doomed", "Author", admin.ID)

	rec := env.do(t, http.MethodDelete, "/api/books/"+book.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "The book has been successfully deleted", body["message"])

	rec = env.do(t, http.MethodGet, "/api/books/"+book.ID, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

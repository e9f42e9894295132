package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"book-review-service/internal/domain"
	"book-review-service/internal/store"
	"book-review-service/pkg/auth"
)

const testJWTSecret = "test-secret-key-0123456789abcdef-xyz"

// testEnv собирает обработчик с мок-хранилищами и маршрутизатором.
type testEnv struct {
	handler *HTTPHandler
	router  *mux.Router
	books   *store.MockBookStore
	users   *store.MockUserStore
	reviews *store.MockReviewStore
	tokens  auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLimits(t, RateLimitConfig{
		AuthenticatedPerMinute: 1000,
		AnonymousPerMinute:     1000,
		ReviewsPerMinute:       1000,
	})
}

func newTestEnvWithLimits(t *testing.T, limits RateLimitConfig) *testEnv {
	t.Helper()

	books := store.NewMockBookStore()
	users := store.NewMockUserStore()
	reviews := store.NewMockReviewStore(books, users)

	tokens, err := auth.NewTokenManager(testJWTSecret, time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHTTPHandler(books, reviews, users, logger, NewValidator(), tokens, limits)

	return &testEnv{
		handler: handler,
		router:  NewRouter(handler),
		books:   books,
		users:   users,
		reviews: reviews,
		tokens:  tokens,
	}
}

// do выполняет запрос через маршрутизатор. Непустой token уходит в
// заголовок Authorization.
func (e *testEnv) do(t *testing.T, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) adminToken(t *testing.T) (string, *domain.User) {
	t.Helper()
	return e.userToken(t, "admin", true)
}

func (e *testEnv) userToken(t *testing.T, username string, isAdmin bool) (string, *domain.User) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	require.NoError(t, e.users.Create(context.Background(), user))

	token, err := e.tokens.Generate(user.ID, user.IsAdmin)
	require.NoError(t, err)
	return token, user
}

func (e *testEnv) seedBook(t *testing.T, title, author string, addedBy string) *domain.Book {
	t.Helper()

	book := &domain.Book{
		ID:          uuid.NewString(),
		Title:       title,
		Author:      author,
		Description: "description of " + title,
		PublishDate: time.Date(2001, 6, 15, 0, 0, 0, 0, time.UTC),
		ISBN:        "9780000000000",
		CoverImage:  domain.DefaultCoverImage,
		AddedBy:     addedBy,
	}
	require.NoError(t, e.books.Create(context.Background(), book))
	return book
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func requireErrorBody(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	require.Equal(t, message, body["error"])
}

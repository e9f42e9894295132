package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"book-review-service/internal/domain"
	"book-review-service/internal/store"
)

// ListBooks возвращает страницу каталога, отсортированную по названию.
// Фильтры title и author — регистронезависимый поиск подстроки. Навигация
// уходит в заголовок Link, тело — плоский массив книг.
func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pageReq, fieldErrs := parsePageRequest(r)
	if fieldErrs != nil {
		h.respondFieldErrors(w, r, fieldErrs)
		return
	}

	params := store.ListBooksParams{
		Title:  r.URL.Query().Get("title"),
		Author: r.URL.Query().Get("author"),
		Page:   pageReq,
	}

	page, err := h.books.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list books from store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve books")
		return
	}
	writePage(h, w, r, page)
}

// GetBook возвращает одну книгу по ID.
func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := mux.Vars(r)["id"]

	book, err := h.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no book")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get book from store", slog.String("bookID", bookID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve book")
		return
	}
	h.respondJSON(w, r, http.StatusOK, book)
}

// CreateBook добавляет книгу в каталог. Поля рейтинга всегда стартуют с нуля:
// они производные от отзывов и клиентом не задаются.
func (h *HTTPHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := PrincipalFromContext(ctx)

	req, publishDate, ok := h.decodeBookRequest(w, r)
	if !ok {
		return
	}

	coverImage := req.CoverImage
	if coverImage == "" {
		coverImage = domain.DefaultCoverImage
	}

	book := &domain.Book{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		PublishDate: publishDate,
		ISBN:        req.ISBN,
		CoverImage:  coverImage,
		AddedBy:     p.UserID,
	}

	if err := h.books.Create(ctx, book); err != nil {
		h.logger.ErrorContext(ctx, "Failed to create book in store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create book")
		return
	}

	h.logger.InfoContext(ctx, "Book created successfully",
		slog.String("bookID", book.ID), slog.String("title", book.Title))
	h.respondJSON(w, r, http.StatusCreated, book)
}

// UpdateBook выполняет полное обновление книги. Пустой coverImage оставляет
// существующую обложку.
func (h *HTTPHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := mux.Vars(r)["id"]

	req, publishDate, ok := h.decodeBookRequest(w, r)
	if !ok {
		return
	}

	book, err := h.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no book")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get book for update", slog.String("bookID", bookID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update book")
		return
	}

	book.Title = req.Title
	book.Author = req.Author
	book.Description = req.Description
	book.PublishDate = publishDate
	book.ISBN = req.ISBN
	if req.CoverImage != "" {
		book.CoverImage = req.CoverImage
	}

	if err := h.books.Update(ctx, book); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no book")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to update book in store", slog.String("bookID", bookID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update book")
		return
	}

	h.logger.InfoContext(ctx, "Book updated successfully", slog.String("bookID", book.ID))
	h.respondJSON(w, r, http.StatusOK, book)
}

// DeleteBook удаляет книгу вместе с ее отзывами (каскад в схеме).
func (h *HTTPHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := mux.Vars(r)["id"]

	if err := h.books.Delete(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no book")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete book from store", slog.String("bookID", bookID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete book")
		return
	}

	h.logger.InfoContext(ctx, "Book deleted successfully", slog.String("bookID", bookID))
	h.respondJSON(w, r, http.StatusOK, map[string]string{"message": "The book has been successfully deleted"})
}

// decodeBookRequest разбирает и валидирует тело запроса книги, включая дату
// публикации ("2006-01-02" или полный RFC 3339). При ошибке ответ уже
// отправлен, ok == false.
func (h *HTTPHandler) decodeBookRequest(w http.ResponseWriter, r *http.Request) (domain.BookRequest, time.Time, bool) {
	ctx := r.Context()

	var req domain.BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode book request body", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return domain.BookRequest{}, time.Time{}, false
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return domain.BookRequest{}, time.Time{}, false
	}

	publishDate, err := parsePublishDate(req.PublishDate)
	if err != nil {
		h.respondFieldErrors(w, r, []FieldError{{
			Field:   "publishDate",
			Message: "The publication date must be the valid date",
		}})
		return domain.BookRequest{}, time.Time{}, false
	}
	return req, publishDate, true
}

func parsePublishDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

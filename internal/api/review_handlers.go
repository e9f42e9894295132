package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"book-review-service/internal/domain"
	"book-review-service/internal/store"
)

// ListReviews возвращает страницу всех отзывов, новые первыми.
func (h *HTTPHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pageReq, fieldErrs := parsePageRequest(r)
	if fieldErrs != nil {
		h.respondFieldErrors(w, r, fieldErrs)
		return
	}

	page, err := h.reviews.List(ctx, pageReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list reviews from store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	writePage(h, w, r, page)
}

// ListReviewsByBook возвращает страницу отзывов на книгу.
func (h *HTTPHandler) ListReviewsByBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := mux.Vars(r)["bookId"]

	pageReq, fieldErrs := parsePageRequest(r)
	if fieldErrs != nil {
		h.respondFieldErrors(w, r, fieldErrs)
		return
	}

	if _, err := h.books.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no book")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to check book existence", slog.String("bookID", bookID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}

	page, err := h.reviews.ListByBook(ctx, bookID, pageReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list reviews by book from store", slog.String("bookID", bookID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	writePage(h, w, r, page)
}

// ListReviewsByUser возвращает страницу отзывов пользователя. Право доступа
// (сам пользователь или администратор) уже проверено шлюзом авторизации.
func (h *HTTPHandler) ListReviewsByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := mux.Vars(r)["userId"]

	pageReq, fieldErrs := parsePageRequest(r)
	if fieldErrs != nil {
		h.respondFieldErrors(w, r, fieldErrs)
		return
	}

	page, err := h.reviews.ListByUser(ctx, userID, pageReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list reviews by user from store", slog.String("userID", userID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve user's reviews")
		return
	}
	writePage(h, w, r, page)
}

// GetReview возвращает один отзыв по ID.
func (h *HTTPHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID := mux.Vars(r)["id"]

	review, err := h.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no comment")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get review from store", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve review")
		return
	}
	h.respondJSON(w, r, http.StatusOK, review)
}

// CreateReview создает отзыв от имени аутентифицированного пользователя.
// Дубликат пары (book, user) отклоняется; после записи синхронно
// пересчитывается рейтинг книги.
func (h *HTTPHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "Principal not found in request context after AuthMiddleware")
		h.respondError(w, r, http.StatusInternalServerError, "Error processing user identity")
		return
	}

	var req domain.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode review request body", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	if _, err := h.books.GetByID(ctx, req.BookID); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no book")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to check book existence", slog.String("bookID", req.BookID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create review")
		return
	}

	review := &domain.Review{
		ID:      uuid.NewString(),
		BookID:  req.BookID,
		UserID:  p.UserID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}

	if err := h.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, store.ErrDuplicateReview) {
			h.respondError(w, r, http.StatusBadRequest, "You have already evaluated this book")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create review in store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create review")
		return
	}

	h.recalculateBookRating(ctx, review.BookID)

	h.logger.InfoContext(ctx, "Review created successfully",
		slog.String("reviewID", review.ID), slog.String("bookID", review.BookID))
	h.respondJSON(w, r, http.StatusCreated, h.populatedReview(ctx, review))
}

// UpdateReview изменяет оценку и/или комментарий отзыва. Изменение оценки
// меняет агрегаты книги, поэтому пересчет выполняется и здесь.
func (h *HTTPHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID := mux.Vars(r)["id"]

	var req domain.UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode review update body", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	review, err := h.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no comment")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get review for update", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update review")
		return
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	if err := h.reviews.Update(ctx, review); err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no comment")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to update review in store", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update review")
		return
	}

	h.recalculateBookRating(ctx, review.BookID)

	h.logger.InfoContext(ctx, "Review updated successfully", slog.String("reviewID", review.ID))
	h.respondJSON(w, r, http.StatusOK, h.populatedReview(ctx, review))
}

// DeleteReview удаляет отзыв и явно, синхронным шагом, пересчитывает рейтинг
// книги — включая случай последнего отзыва, когда агрегаты сбрасываются в 0.
func (h *HTTPHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID := mux.Vars(r)["id"]

	review, err := h.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no comment")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get review for delete", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete review")
		return
	}

	if err := h.reviews.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "no comment")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete review from store", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete review")
		return
	}

	h.recalculateBookRating(ctx, review.BookID)

	h.logger.InfoContext(ctx, "Review deleted successfully", slog.String("reviewID", reviewID))
	h.respondJSON(w, r, http.StatusOK, map[string]string{"message": "The comment has been successfully deleted"})
}

// recalculateBookRating запускает агрегатор рейтинга. Отзыв к этому моменту
// уже зафиксирован, поэтому сбой пересчета не откатывает операцию клиента и
// не меняет ее ответ — он только логируется.
func (h *HTTPHandler) recalculateBookRating(ctx context.Context, bookID string) {
	if err := h.reviews.RecalculateBookRating(ctx, bookID); err != nil {
		h.logger.ErrorContext(ctx, "Failed to recalculate book rating",
			slog.String("bookID", bookID), slog.String("error", err.Error()))
	}
}

// populatedReview перечитывает отзыв, чтобы вернуть его с именем пользователя
// и атрибутами книги; при сбое отдает отзыв без обогащения.
func (h *HTTPHandler) populatedReview(ctx context.Context, review *domain.Review) *domain.Review {
	populated, err := h.reviews.GetByID(ctx, review.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to re-read review after write",
			slog.String("reviewID", review.ID), slog.String("error", err.Error()))
		return review
	}
	return populated
}

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"book-review-service/internal/domain"
)

// parsePageRequest разбирает query-параметры page и limit. Отсутствующие
// параметры получают значения по умолчанию, нечисловые и неположительные —
// полевые ошибки (400). Потолок limit применяется позже нормализацией.
func parsePageRequest(r *http.Request) (domain.PageRequest, []FieldError) {
	var fieldErrs []FieldError
	req := domain.PageRequest{}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			fieldErrs = append(fieldErrs, FieldError{Field: "page", Message: "Page must be a positive integer"})
		} else {
			req.Page = page
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			fieldErrs = append(fieldErrs, FieldError{Field: "limit", Message: "Limit must be a positive integer"})
		} else {
			req.Limit = limit
		}
	}
	if fieldErrs != nil {
		return domain.PageRequest{}, fieldErrs
	}
	return req.Normalize(), nil
}

// paginationLinks строит значение заголовка Link (RFC 5988) для страницы
// списка: first и last присутствуют всегда при непустом наборе, prev и next —
// когда есть куда листать. URL строится из запрошенного: все прочие
// query-параметры сохраняются, перезаписывается только page.
// При totalPages == 0 возвращается пустая строка — заголовок не ставится.
func paginationLinks(u *url.URL, page, totalPages int) string {
	if totalPages < 1 {
		return ""
	}

	link := func(targetPage int, rel string) string {
		ref := *u
		query := ref.Query()
		query.Set("page", strconv.Itoa(targetPage))
		ref.RawQuery = query.Encode()
		return fmt.Sprintf("<%s>; rel=%q", ref.RequestURI(), rel)
	}

	parts := []string{link(1, "first")}
	if page > 1 {
		parts = append(parts, link(page-1, "prev"))
	}
	if page < totalPages {
		parts = append(parts, link(page+1, "next"))
	}
	parts = append(parts, link(totalPages, "last"))
	return strings.Join(parts, ", ")
}

// writePage сериализует страницу списка: навигация уходит в заголовок Link,
// телом ответа становится плоский массив элементов.
func writePage[T any](h *HTTPHandler, w http.ResponseWriter, r *http.Request, page domain.Page[T]) {
	if links := paginationLinks(r.URL, page.Page, page.TotalPages); links != "" {
		w.Header().Set("Link", links)
	}
	h.respondJSON(w, r, http.StatusOK, page.Items)
}

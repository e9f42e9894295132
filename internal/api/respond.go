package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// FieldError — ошибка валидации одного поля запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Сообщения полевых ошибок, ключ — "<json-имя поля>.<validate-тег>".
var validationMessages = map[string]string{
	"title.required":       "The title cannot be empty",
	"author.required":      "The author cannot be empty",
	"description.required": "The description cannot be empty",
	"publishDate.required": "The publication date cannot be empty",
	"isbn.required":        "The ISBN cannot be empty",
	"coverImage.url":       "The cover image must be a valid URL",
	"book.required":        "The book ID cannot be empty",
	"book.uuid":            "The book ID must be a valid ID",
	"rating.required":      "The score cannot be empty",
	"rating.min":           "The score must be an integer between 1 and 5",
	"rating.max":           "The score must be an integer between 1 and 5",
	"comment.required":     "The content of the comment cannot be empty",
	"comment.min":          "The content of the comment cannot be empty",
	"username.required":    "The username cannot be empty",
	"username.min":         "The username cannot be empty",
	"password.required":    "The password cannot be empty",
	"password.min":         "The password length should be at least 6 characters",
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response",
				slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message})
}

// respondFieldErrors отвечает 400 с массивом полевых ошибок: контракт
// для всех ошибок валидации.
func (h *HTTPHandler) respondFieldErrors(w http.ResponseWriter, r *http.Request, fieldErrs []FieldError) {
	h.respondJSON(w, r, http.StatusBadRequest, map[string]interface{}{"errors": fieldErrs})
}

// respondValidationError переводит ошибку validator-а в массив полевых ошибок.
func (h *HTTPHandler) respondValidationError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "Request validation failed",
		slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	h.respondFieldErrors(w, r, fieldErrorsFrom(err))
}

func fieldErrorsFrom(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: "Validation failed"}}
	}
	fieldErrs := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		message, ok := validationMessages[e.Field()+"."+e.Tag()]
		if !ok {
			message = fmt.Sprintf("Invalid value for %s", e.Field())
		}
		fieldErrs = append(fieldErrs, FieldError{Field: e.Field(), Message: message})
	}
	return fieldErrs
}

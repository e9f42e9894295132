// Package api реализует HTTP-слой сервиса: обработчики ресурсов, middleware
// аутентификации, авторизации и лимитов, маршрутизацию.
package api

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"book-review-service/internal/store"
	"book-review-service/pkg/auth"
)

// RateLimitConfig — квоты допуска запросов, штук в минуту.
type RateLimitConfig struct {
	AuthenticatedPerMinute int // глобальная квота на аутентифицированного пользователя
	AnonymousPerMinute     int // глобальная квота на IP анонимного клиента
	ReviewsPerMinute       int // отправка отзывов на пользователя
}

// HTTPHandler держит зависимости всех обработчиков.
type HTTPHandler struct {
	books        store.BookStore
	reviews      store.ReviewStore
	users        store.UserStore
	logger       *slog.Logger
	validator    *validator.Validate
	tokenManager auth.TokenManager

	userLimiter   *keyedLimiter
	ipLimiter     *keyedLimiter
	reviewLimiter *keyedLimiter
}

// NewHTTPHandler создает HTTPHandler со всеми зависимостями.
func NewHTTPHandler(
	books store.BookStore,
	reviews store.ReviewStore,
	users store.UserStore,
	logger *slog.Logger,
	validate *validator.Validate,
	tokenManager auth.TokenManager,
	limits RateLimitConfig,
) *HTTPHandler {
	return &HTTPHandler{
		books:         books,
		reviews:       reviews,
		users:         users,
		logger:        logger,
		validator:     validate,
		tokenManager:  tokenManager,
		userLimiter:   newKeyedLimiter(limits.AuthenticatedPerMinute),
		ipLimiter:     newKeyedLimiter(limits.AnonymousPerMinute),
		reviewLimiter: newKeyedLimiter(limits.ReviewsPerMinute),
	}
}

// NewValidator создает валидатор, который в сообщениях об ошибках использует
// имена полей из json-тегов, как их видит клиент.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

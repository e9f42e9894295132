package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter создает и настраивает маршрутизатор приложения.
// Все эндпоинты живут под префиксом /api; чтение каталога и отзывов
// публичное, изменения закрыты политиками авторизации.
func NewRouter(h *HTTPHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(h.RecoverMiddleware, h.LoggingMiddleware, h.RateLimitMiddleware)

	apiRouter := router.PathPrefix("/api").Subrouter()

	// Аутентификация.
	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/register", h.Register).Methods(http.MethodPost)

	adminGate := []func(http.Handler) http.Handler{
		h.AuthMiddleware,
		h.Authorize(AdminOnly("Only administrators can perform this operation")),
	}

	// Книги: чтение публичное, изменения только для администраторов.
	books := apiRouter.PathPrefix("/books").Subrouter()
	books.HandleFunc("", h.ListBooks).Methods(http.MethodGet)
	books.HandleFunc("/{id}", h.GetBook).Methods(http.MethodGet)
	books.Handle("", chain(http.HandlerFunc(h.CreateBook), adminGate...)).Methods(http.MethodPost)
	books.Handle("/{id}", chain(http.HandlerFunc(h.UpdateBook), adminGate...)).Methods(http.MethodPut)
	books.Handle("/{id}", chain(http.HandlerFunc(h.DeleteBook), adminGate...)).Methods(http.MethodDelete)

	// Отзывы.
	reviews := apiRouter.PathPrefix("/reviews").Subrouter()
	reviews.HandleFunc("", h.ListReviews).Methods(http.MethodGet)
	reviews.HandleFunc("/book/{bookId}", h.ListReviewsByBook).Methods(http.MethodGet)
	reviews.Handle("/user/{userId}", chain(http.HandlerFunc(h.ListReviewsByUser),
		h.AuthMiddleware,
		h.Authorize(SelfOrAdmin("userId", "You do not have the permission to view this user's comments")),
	)).Methods(http.MethodGet)
	reviews.HandleFunc("/{id}", h.GetReview).Methods(http.MethodGet)
	reviews.Handle("", chain(http.HandlerFunc(h.CreateReview),
		h.AuthMiddleware,
		h.ReviewRateLimitMiddleware,
	)).Methods(http.MethodPost)
	reviews.Handle("/{id}", chain(http.HandlerFunc(h.UpdateReview),
		h.AuthMiddleware,
		h.Authorize(h.ReviewOwnerOrAdmin()),
		h.ReviewRateLimitMiddleware,
	)).Methods(http.MethodPut)
	reviews.Handle("/{id}", chain(http.HandlerFunc(h.DeleteReview),
		h.AuthMiddleware,
		h.Authorize(h.ReviewOwnerOrAdmin()),
	)).Methods(http.MethodDelete)

	// Пользователи: весь раздел только для администраторов.
	users := apiRouter.PathPrefix("/users").Subrouter()
	users.Use(h.AuthMiddleware, h.Authorize(AdminOnly("Only administrators can use this operation")))
	users.HandleFunc("", h.ListUsers).Methods(http.MethodGet)
	users.HandleFunc("", h.CreateUser).Methods(http.MethodPost)
	users.HandleFunc("/{id}", h.GetUser).Methods(http.MethodGet)
	users.HandleFunc("/{id}", h.UpdateUser).Methods(http.MethodPut)
	users.HandleFunc("/{id}", h.DeleteUser).Methods(http.MethodDelete)

	return router
}

// chain оборачивает обработчик в middleware; первый элемент — внешний.
func chain(handler http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

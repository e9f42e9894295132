package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"book-review-service/internal/store"
)

// ContextKey используется для ключей в контексте запроса.
type ContextKey string

const principalKey ContextKey = "principal"

// Principal — аутентифицированный субъект запроса, извлеченный из токена.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// PrincipalFromContext возвращает субъект, положенный AuthMiddleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// AuthMiddleware проверяет JWT из заголовка Authorization ("Bearer <token>").
// При валидном токене Principal добавляется в контекст запроса.
func (h *HTTPHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			h.logger.WarnContext(r.Context(), "Authorization header missing or malformed", slog.String("path", r.URL.Path))
			h.respondError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := h.tokenManager.Validate(tokenString)
		if err != nil {
			h.logger.WarnContext(r.Context(), "Invalid or expired token", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, Principal{
			UserID:  claims.UserID,
			IsAdmin: claims.IsAdmin,
		})
		h.logger.DebugContext(ctx, "Token validated successfully",
			slog.String("userID", claims.UserID), slog.Bool("isAdmin", claims.IsAdmin))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// --- Авторизация ---

// Policy — предикат авторизации: nil разрешает запрос, notAllowedError дает
// 403 с ее сообщением, ошибки хранилища транслируются в обычные статусы.
// Все проверки прав выполняются этим единым шлюзом до обработчика, внутри
// обработчиков проверок роли нет.
type Policy func(ctx context.Context, p Principal, vars map[string]string) error

type notAllowedError struct {
	message string
}

func (e notAllowedError) Error() string { return e.message }

// AdminOnly разрешает операцию только администраторам.
func AdminOnly(message string) Policy {
	return func(_ context.Context, p Principal, _ map[string]string) error {
		if !p.IsAdmin {
			return notAllowedError{message: message}
		}
		return nil
	}
}

// SelfOrAdmin разрешает операцию владельцу (его ID в path-переменной pathVar)
// или администратору.
func SelfOrAdmin(pathVar, message string) Policy {
	return func(_ context.Context, p Principal, vars map[string]string) error {
		if vars[pathVar] != p.UserID && !p.IsAdmin {
			return notAllowedError{message: message}
		}
		return nil
	}
}

// ReviewOwnerOrAdmin разрешает изменение отзыва его автору или
// администратору. Отсутствующий отзыв дает 404 еще до обработчика.
func (h *HTTPHandler) ReviewOwnerOrAdmin() Policy {
	return func(ctx context.Context, p Principal, vars map[string]string) error {
		review, err := h.reviews.GetByID(ctx, vars["id"])
		if err != nil {
			return err
		}
		if review.UserID != p.UserID && !p.IsAdmin {
			return notAllowedError{message: "There is no permission to modify this comment"}
		}
		return nil
	}
}

// Authorize выполняет политику после AuthMiddleware и до обработчика.
func (h *HTTPHandler) Authorize(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				h.logger.ErrorContext(r.Context(), "Principal not found in request context after AuthMiddleware")
				h.respondError(w, r, http.StatusInternalServerError, "Error processing user identity")
				return
			}

			if err := policy(r.Context(), p, mux.Vars(r)); err != nil {
				var notAllowed notAllowedError
				switch {
				case errors.As(err, &notAllowed):
					h.logger.WarnContext(r.Context(), "Operation forbidden",
						slog.String("userID", p.UserID), slog.String("path", r.URL.Path))
					h.respondError(w, r, http.StatusForbidden, notAllowed.message)
				case errors.Is(err, store.ErrReviewNotFound):
					h.respondError(w, r, http.StatusNotFound, "no comment")
				default:
					h.logger.ErrorContext(r.Context(), "Authorization check failed", slog.String("error", err.Error()))
					h.respondError(w, r, http.StatusInternalServerError, "Authorization check failed")
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Лимиты запросов ---

// keyedLimiter — набор token-bucket лимитеров по ключу (user id или IP).
// Фоновая горутина выселяет ключи, не появлявшиеся три минуты, чтобы карта
// не росла бесконечно.
type keyedLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	limit   rate.Limit
	burst   int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiter(perMinute int) *keyedLimiter {
	kl := &keyedLimiter{
		clients: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
	}
	go func() {
		for {
			time.Sleep(time.Minute)
			kl.mu.Lock()
			for key, entry := range kl.clients {
				if time.Since(entry.lastSeen) > 3*time.Minute {
					delete(kl.clients, key)
				}
			}
			kl.mu.Unlock()
		}
	}()
	return kl
}

func (kl *keyedLimiter) allow(key string) bool {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	entry, ok := kl.clients[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(kl.limit, kl.burst)}
		kl.clients[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// RateLimitMiddleware — допуск запросов: аутентифицированные клиенты
// считаются по user id со своей квотой, анонимные — по IP с квотой поменьше.
// Токен здесь разбирается только ради ключа; аутентификацию как таковую
// по-прежнему выполняет AuthMiddleware на защищенных маршрутах.
func (h *HTTPHandler) RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed := false
		if tokenString, ok := bearerToken(r); ok {
			if claims, err := h.tokenManager.Validate(tokenString); err == nil {
				allowed = h.userLimiter.allow("user:" + claims.UserID)
				if !allowed {
					h.respondError(w, r, http.StatusTooManyRequests, "Too many requests, please try later.")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
		}

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !h.ipLimiter.allow("ip:" + ip) {
			h.respondError(w, r, http.StatusTooManyRequests, "Too many requests, please try later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ReviewRateLimitMiddleware ограничивает отправку отзывов на пользователя.
// Ставится после AuthMiddleware.
func (h *HTTPHandler) ReviewRateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if ok && !h.reviewLimiter.allow(p.UserID) {
			h.respondError(w, r, http.StatusTooManyRequests,
				"You can only submit 3 reviews per minute. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Служебные middleware ---

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware пишет структурированную запись о каждом запросе.
func (h *HTTPHandler) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.InfoContext(r.Context(), "Request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.String("duration", time.Since(start).String()))
	})
}

// RecoverMiddleware превращает панику обработчика в чистый 500 вместо
// молча оборванного соединения.
func (h *HTTPHandler) RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				w.Header().Set("Connection", "close")
				h.logger.ErrorContext(r.Context(), "Panic recovered in handler",
					slog.Any("panic", rec), slog.String("path", r.URL.Path))
				h.respondError(w, r, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

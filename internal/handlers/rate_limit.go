package handlers

import (
	"net/http"
	"strconv"
	"time"

	"coupon-service/internal/logger"
	"coupon-service/internal/services"
)

// RateLimitHandler отдаёт клиенту состояние его окна rate limiting.
type RateLimitHandler struct {
	limiter RateLimitStatusProvider
	log     *logger.Logger
}

// NewRateLimitHandler создает новый RateLimitHandler.
func NewRateLimitHandler(limiter RateLimitStatusProvider, log *logger.Logger) *RateLimitHandler {
	return &RateLimitHandler{
		limiter: limiter,
		log:     log,
	}
}

// Status возвращает текущие значения лимита для клиента.
func (h *RateLimitHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.limiter == nil || !h.limiter.Enabled() {
		writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"enabled": false,
		})
		return
	}

	key := services.ExtractClientIP(r)
	usage, err := h.limiter.Usage(r.Context(), key)
	if err != nil {
		h.log.WithError(err).Error("Failed to fetch rate limit usage")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch rate limit usage")
		return
	}

	resp := map[string]interface{}{
		"enabled":       true,
		"limit":         h.limiter.Limit(),
		"windowSeconds": int64(h.limiter.Window() / time.Second),
		"used":          usage.Used,
		"remaining":     usage.Remaining,
		"key":           key,
	}
	if usage.ResetAt != nil {
		resp["resetAt"] = usage.ResetAt.UTC().Format(time.RFC3339)
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// RateLimitMiddleware ограничивает число запросов клиента. Ошибка хранилища
// лимитов не блокирует запрос: при недоступном Redis API продолжает работать.
func RateLimitMiddleware(limiter MiddlewareLimiter, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || !limiter.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			key := services.ExtractClientIP(r)
			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				if log != nil {
					log.WithError(err).WithField("client", key).Warn("Rate limiter unavailable, request allowed")
				}
				next.ServeHTTP(w, r)
				return
			}

			// Заголовки совместимые с common rate limit policy
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
			if !decision.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			}

			if !decision.Allowed {
				if retry := time.Until(decision.ResetAt); retry > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				}
				writeErrorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

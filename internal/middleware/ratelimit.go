package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"telegram_jump_bot/pkg/logger"
	"telegram_jump_bot/pkg/metrics"
)

// RateLimiter ограничивает частоту запросов по ключу (IP или ID пользователя)
type RateLimiter struct {
	limiters map[string]*keyedLimiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	logger   *logger.Logger

	// Cleanup
	cleanupInterval time.Duration
	idleTimeout     time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter создает rate limiter: requests запросов за duration на ключ
func NewRateLimiter(requests int, duration time.Duration, log *logger.Logger) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}

	rl := &RateLimiter{
		limiters:        make(map[string]*keyedLimiter),
		limit:           rate.Limit(float64(requests) / duration.Seconds()),
		burst:           requests,
		logger:          log,
		cleanupInterval: 5 * time.Minute,
		idleTimeout:     10 * time.Minute,
		done:            make(chan struct{}),
	}

	// Запускаем goroutine для очистки неиспользуемых limiters
	go rl.cleanupRoutine()

	return rl
}

// GetLimiter возвращает limiter для конкретного ключа
func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[key]
	if !exists {
		entry = &keyedLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}

	entry.lastAccess = time.Now()
	return entry.limiter
}

// Allow проверяет, разрешен ли запрос для данного ключа
func (rl *RateLimiter) Allow(key string) bool {
	return rl.GetLimiter(key).Allow()
}

// Len возвращает количество отслеживаемых ключей
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// cleanupRoutine периодически удаляет неиспользуемые limiters
func (rl *RateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-rl.idleTimeout))
		case <-rl.done:
			return
		}
	}
}

// cleanup удаляет limiters, к которым не обращались после cutoff
func (rl *RateLimiter) cleanup(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	var cleaned int
	for key, entry := range rl.limiters {
		if entry.lastAccess.Before(cutoff) {
			delete(rl.limiters, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		rl.logger.Debug("Cleaned up rate limiters",
			logger.Int("cleaned_count", cleaned),
			logger.Int("remaining_count", len(rl.limiters)),
		)
	}
}

// Close останавливает cleanup routine
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
	})
}

// HTTPRateLimitMiddleware создает HTTP middleware для rate limiting по IP
func HTTPRateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetRealIP(r)

			if !limiter.Allow(key) {
				limiter.logger.Warn("Rate limit exceeded",
					logger.String("ip", key),
					logger.String("user_agent", r.UserAgent()),
				)
				metrics.RecordError("http", "rate_limited")

				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TelegramRateLimiter ограничивает обновления от пользователей бота
type TelegramRateLimiter struct {
	userLimiter   *RateLimiter  // Ограничение по пользователям
	globalLimiter *rate.Limiter // Глобальное ограничение
	logger        *logger.Logger
}

// NewTelegramRateLimiter создает rate limiter для Telegram бота
func NewTelegramRateLimiter(userRequestsPerMinute, globalRequestsPerSecond int, log *logger.Logger) *TelegramRateLimiter {
	if globalRequestsPerSecond <= 0 {
		globalRequestsPerSecond = 1
	}
	return &TelegramRateLimiter{
		userLimiter:   NewRateLimiter(userRequestsPerMinute, time.Minute, log),
		globalLimiter: rate.NewLimiter(rate.Limit(globalRequestsPerSecond), globalRequestsPerSecond),
		logger:        log,
	}
}

// AllowUser проверяет, может ли пользователь отправить запрос
func (trl *TelegramRateLimiter) AllowUser(userID int64) bool {
	if !trl.globalLimiter.Allow() {
		trl.logger.Warn("Global rate limit exceeded", logger.Int64("user_id", userID))
		return false
	}

	if !trl.userLimiter.Allow("user_" + strconv.FormatInt(userID, 10)) {
		trl.logger.Warn("User rate limit exceeded", logger.Int64("user_id", userID))
		return false
	}

	return true
}

// Close закрывает все ресурсы
func (trl *TelegramRateLimiter) Close() {
	trl.userLimiter.Close()
}

// GetRealIP извлекает реальный IP адрес из запроса
func GetRealIP(r *http.Request) string {
	// Проверяем заголовки в порядке приоритета
	headers := []string{
		"CF-Connecting-IP", // Cloudflare
		"X-Forwarded-For",  // Стандартный заголовок
		"X-Real-IP",        // Nginx
	}

	for _, header := range headers {
		ip := r.Header.Get(header)
		if ip == "" {
			continue
		}
		// X-Forwarded-For может содержать несколько IP через запятую
		if header == "X-Forwarded-For" {
			ip = strings.Split(ip, ",")[0]
		}
		return strings.TrimSpace(ip)
	}

	// Fallback на RemoteAddr без порта
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

package server

import (
	"net/http"
	"strings"
	"time"

	"telegram_jump_bot/internal/middleware"
	"telegram_jump_bot/pkg/logger"
)

// maxBodyBytes - Telegram update заметно меньше
const maxBodyBytes = 1 << 20

// loggingMiddleware логирует HTTP запросы
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		s.logger.Debug("HTTP request completed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("ip", middleware.GetRealIP(r)),
			logger.Int("status_code", wrapped.statusCode),
			logger.Int64("duration_ms", duration.Milliseconds()),
		)
	})
}

// securityHeadersMiddleware добавляет заголовки безопасности
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// responseWriterWrapper оборачивает ResponseWriter для захвата status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader перехватывает status code
func (rw *responseWriterWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestValidationMiddleware валидирует базовые параметры запроса
func (s *Server) requestValidationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxBodyBytes {
			s.securityLogger.LogBlockedRequest(r, "request_too_large")
			http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
			return
		}

		if r.Method == http.MethodPost {
			contentType := r.Header.Get("Content-Type")
			if !strings.HasPrefix(contentType, "application/json") {
				s.securityLogger.LogBlockedRequest(r, "unsupported_content_type")
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}

		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"telegram_jump_bot/pkg/metrics"
)

// PrometheusMiddleware добавляет метрики Prometheus для HTTP запросов
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Создаем ResponseWriter для захвата статус-кода
		wrappedWriter := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Выполняем следующий обработчик
		next.ServeHTTP(wrappedWriter, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(wrappedWriter.statusCode)
		endpoint := routeTemplate(r)

		metrics.RecordHTTPRequest(r.Method, endpoint, status)
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, endpoint).Observe(duration)
	})
}

// routeTemplate возвращает шаблон маршрута, чтобы не плодить метки по каждому пути
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// responseWriter оборачивает http.ResponseWriter для захвата статус-кода
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader захватывает статус-код ответа
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

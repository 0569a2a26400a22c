package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики бота записи на прыжки
var (
	// Обработка обновлений Telegram
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jump_bot_updates_total",
			Help: "Общее количество обработанных обновлений Telegram",
		},
		[]string{"kind", "status"},
	)

	UpdateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jump_bot_update_duration_seconds",
			Help:    "Время обработки обновления в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Жизненный цикл заявок
	BookingsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jump_bot_bookings_submitted_total",
			Help: "Количество поданных заявок",
		},
	)

	BookingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jump_bot_booking_decisions_total",
			Help: "Решения администратора по заявкам",
		},
		[]string{"decision"}, // approved, rescheduled, rejected
	)

	BookingsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jump_bot_bookings_cancelled_total",
			Help: "Количество записей, отмененных пользователями",
		},
	)

	BookingOverrides = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jump_bot_booking_overrides_total",
			Help: "Количество замен существующей записи пользователя",
		},
	)

	PendingBookings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jump_bot_pending_bookings",
			Help: "Количество заявок, ожидающих решения",
		},
	)

	ConfirmedBookings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jump_bot_confirmed_bookings",
			Help: "Количество подтвержденных записей",
		},
	)

	ActiveConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jump_bot_active_conversations",
			Help: "Количество незавершенных диалогов",
		},
	)

	// Сохранение документа
	DocumentFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jump_bot_document_flushes_total",
			Help: "Количество записей документа в хранилище",
		},
		[]string{"operation", "status"},
	)

	DocumentFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jump_bot_document_flush_duration_seconds",
			Help:    "Время записи документа в хранилище",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Уведомления
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jump_bot_notifications_sent_total",
			Help: "Общее количество отправленных уведомлений",
		},
		[]string{"type", "status"},
	)

	ScheduledReminders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jump_bot_scheduled_reminders",
			Help: "Количество запланированных напоминаний",
		},
	)

	// Ошибки
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jump_bot_errors_total",
			Help: "Общее количество ошибок",
		},
		[]string{"component", "error_type"},
	)

	// HTTP сервер
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jump_bot_http_requests_total",
			Help: "Общее количество HTTP запросов",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jump_bot_http_request_duration_seconds",
			Help:    "Время обработки HTTP запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Рантайм
	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jump_bot_memory_usage_bytes",
			Help: "Использование памяти в байтах",
		},
	)

	GoroutinesCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jump_bot_goroutines_count",
			Help: "Количество активных горутин",
		},
	)
)

// RecordUpdate записывает метрику обработки обновления
func RecordUpdate(kind, status string) {
	UpdatesTotal.WithLabelValues(kind, status).Inc()
}

// RecordSubmission записывает метрику новой заявки
func RecordSubmission() {
	BookingsSubmitted.Inc()
}

// RecordDecision записывает решение администратора
func RecordDecision(decision string) {
	BookingDecisions.WithLabelValues(decision).Inc()
}

// RecordCancellation записывает отмену записи
func RecordCancellation() {
	BookingsCancelled.Inc()
}

// RecordOverride записывает замену записи
func RecordOverride() {
	BookingOverrides.Inc()
}

// RecordFlush записывает метрику сохранения документа
func RecordFlush(operation, status string, seconds float64) {
	DocumentFlushes.WithLabelValues(operation, status).Inc()
	DocumentFlushDuration.Observe(seconds)
}

// RecordNotification записывает метрику отправки уведомления
func RecordNotification(notificationType, status string) {
	NotificationsSent.WithLabelValues(notificationType, status).Inc()
}

// RecordError записывает метрику ошибки
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest записывает метрику HTTP запроса
func RecordHTTPRequest(method, endpoint, status string) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
}

// SetBookingCounts обновляет gauges по текущему документу
func SetBookingCounts(pending, confirmed int) {
	PendingBookings.Set(float64(pending))
	ConfirmedBookings.Set(float64(confirmed))
}

// SetActiveConversations устанавливает количество активных диалогов
func SetActiveConversations(count int) {
	ActiveConversations.Set(float64(count))
}

// SetScheduledReminders устанавливает количество запланированных напоминаний
func SetScheduledReminders(count int) {
	ScheduledReminders.Set(float64(count))
}

package server

import (
	"net/http"
	"time"

	tgmodels "github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/middleware"
	"telegram_jump_bot/pkg/logger"
	"telegram_jump_bot/pkg/metrics"
)

// SecurityLogger логирует события безопасности
type SecurityLogger struct {
	logger *logger.Logger
}

// NewSecurityLogger создает новый логгер безопасности
func NewSecurityLogger(log *logger.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: log.Named("security"),
	}
}

// LogFailedAuth логирует неудачную попытку аутентификации
func (sl *SecurityLogger) LogFailedAuth(r *http.Request, reason string) {
	metrics.RecordError("webhook", "auth")
	sl.logger.Warn("Authentication failed",
		logger.String("reason", reason),
		logger.String("ip", middleware.GetRealIP(r)),
		logger.String("user_agent", r.UserAgent()),
		logger.String("path", r.URL.Path),
	)
}

// LogValidationError логирует ошибки валидации
func (sl *SecurityLogger) LogValidationError(r *http.Request, field, reason string) {
	metrics.RecordError("webhook", "validation")
	sl.logger.Warn("Validation error",
		logger.String("field", field),
		logger.String("reason", reason),
		logger.String("ip", middleware.GetRealIP(r)),
		logger.String("path", r.URL.Path),
	)
}

// LogBlockedRequest логирует заблокированные запросы
func (sl *SecurityLogger) LogBlockedRequest(r *http.Request, reason string) {
	sl.logger.Warn("Request blocked",
		logger.String("reason", reason),
		logger.String("ip", middleware.GetRealIP(r)),
		logger.String("path", r.URL.Path),
		logger.String("method", r.Method),
		logger.Int64("content_length", r.ContentLength),
	)
}

// LogTelegramUpdate логирует обработку Telegram update
func (sl *SecurityLogger) LogTelegramUpdate(update *tgmodels.Update, processingTime time.Duration) {
	var chatID, userID int64
	updateType := "other"

	if update.Message != nil {
		updateType = "message"
		chatID = update.Message.Chat.ID
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
	} else if update.CallbackQuery != nil {
		updateType = "callback_query"
		userID = update.CallbackQuery.From.ID
		chatID = userID // для callback_query chat_id равен user_id
	}

	sl.logger.Debug("Telegram update processed",
		logger.Int64("update_id", update.ID),
		logger.String("type", updateType),
		logger.Int64("chat_id", chatID),
		logger.Int64("user_id", userID),
		logger.Int64("processing_time_ms", processingTime.Milliseconds()),
	)
}

// LogSystemEvent логирует системные события
func (sl *SecurityLogger) LogSystemEvent(event, level string) {
	switch level {
	case "error":
		sl.logger.Error("System event", logger.String("event", event))
	case "warn":
		sl.logger.Warn("System event", logger.String("event", event))
	default:
		sl.logger.Info("System event", logger.String("event", event))
	}
}

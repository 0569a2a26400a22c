// Package notify доставляет уведомления о заявках и напоминания через Telegram
package notify

import (
	"context"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/bot/format"
	"telegram_jump_bot/internal/bot/keyboard"
	"telegram_jump_bot/internal/bot/service"
	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/pkg/logger"
	"telegram_jump_bot/pkg/metrics"
)

// TelegramNotifier отправляет уведомления администратору и пользователям
type TelegramNotifier struct {
	messenger service.Messenger
	adminID   int64
	logger    *logger.Logger
}

// NewTelegramNotifier создает новый notifier
func NewTelegramNotifier(messenger service.Messenger, adminID int64, log *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		messenger: messenger,
		adminID:   adminID,
		logger:    log,
	}
}

// NotifyAdminNewRequest отправляет администратору карточку заявки с кнопками решения
func (n *TelegramNotifier) NotifyAdminNewRequest(ctx context.Context, date string, req models.BookingRequest) error {
	text := format.NewRequest(date, req)
	_, err := n.messenger.SendMessage(ctx, n.adminID, text, keyboard.CreateDecisionKeyboard(date, req.UserID))
	return n.record(ctx, "new_request", n.adminID, err)
}

// NotifyDecision сообщает пользователю о решении по заявке
func (n *TelegramNotifier) NotifyDecision(ctx context.Context, userID int64, out booking.Outcome) error {
	kind := "rejected"
	if out.Approved {
		kind = "approved"
	}
	_, err := n.messenger.SendMessage(ctx, userID, format.Decision(out), nil)
	return n.record(ctx, kind, userID, err)
}

// NotifyAdminCancellation сообщает администратору об отмене записи
func (n *TelegramNotifier) NotifyAdminCancellation(ctx context.Context, date string, b models.ConfirmedBooking) error {
	_, err := n.messenger.SendMessage(ctx, n.adminID, format.Cancellation(date, b), nil)
	return n.record(ctx, "cancellation", n.adminID, err)
}

// SendReminder отправляет напоминание о предстоящем прыжке
func (n *TelegramNotifier) SendReminder(ctx context.Context, date string, b models.ConfirmedBooking) error {
	_, err := n.messenger.SendMessage(ctx, b.UserID, format.Reminder(date, b), nil)
	return n.record(ctx, "reminder", b.UserID, err)
}

func (n *TelegramNotifier) record(ctx context.Context, kind string, chatID int64, err error) error {
	if err != nil {
		metrics.RecordNotification(kind, "error")
		n.logger.Error("Failed to send notification",
			logger.String("type", kind),
			logger.Int64("chat_id", chatID),
			logger.Error(err),
		)
		return err
	}

	metrics.RecordNotification(kind, "success")
	n.logger.Debug("Notification sent", logger.String("type", kind), logger.Int64("chat_id", chatID))
	return nil
}

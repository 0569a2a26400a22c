package scheduler

import (
	"context"

	"telegram_jump_bot/internal/storage/models"
)

// ReminderScheduler определяет интерфейс для планирования напоминаний о прыжках
type ReminderScheduler interface {
	// Plan планирует напоминание для подтвержденной записи, заменяя прежнее
	Plan(date string, booking models.ConfirmedBooking)

	// Cancel отменяет напоминание для записи пользователя на дату
	Cancel(date string, userID int64)

	// ReschedulePending перепланирует напоминания по всем предстоящим записям
	ReschedulePending(ctx context.Context, bookings []models.DatedBooking) error

	// Stop останавливает планировщик
	Stop() error
}

// ReminderSender определяет интерфейс для отправки напоминаний
type ReminderSender interface {
	// SendReminder отправляет напоминание о записи
	SendReminder(ctx context.Context, date string, booking models.ConfirmedBooking) error
}

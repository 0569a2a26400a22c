package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/bot/format"
	"telegram_jump_bot/internal/bot/intent"
	"telegram_jump_bot/internal/bot/keyboard"
	botservice "telegram_jump_bot/internal/bot/service"
)

// CommandHandler обрабатывает пользовательские команды
type CommandHandler struct {
	service *botservice.Service
	render  renderer
}

// NewCommandHandler создает новый обработчик пользовательских команд
func NewCommandHandler(service *botservice.Service) *CommandHandler {
	return &CommandHandler{service: service, render: renderer{service: service}}
}

// Handle обрабатывает команду
func (h *CommandHandler) Handle(ctx context.Context, update *models.Update) {
	if update.Message == nil {
		return
	}

	cmd, _ := parseCommand(update.Message.Text)
	chatID := update.Message.Chat.ID
	userID := senderID(update.Message)

	switch cmd {
	case "schedule":
		h.render.scheduleMonths(ctx, chatID, 0)
	case "book":
		h.showBookingDates(ctx, chatID)
	case "mybookings":
		h.showUserBookings(ctx, chatID, userID)
	case "cancel":
		h.showCancellable(ctx, chatID, userID)
	}
}

func (h *CommandHandler) showBookingDates(ctx context.Context, chatID int64) {
	days := h.service.Engine().ListAvailability(booking.ModeWeekday)
	if len(days) == 0 {
		h.render.send(ctx, chatID, "Свободных дат пока нет. Загляните позже.", nil)
		return
	}

	h.render.inline(ctx, chatID, 0, "📅 Выберите дату прыжка:", keyboard.CreateDatesKeyboard(days, intent.PurposeBook))
}

func (h *CommandHandler) showUserBookings(ctx context.Context, chatID, userID int64) {
	store := h.service.Engine().Store()
	text := format.UserBookings(store.UserBookings(userID), store.UserPending(userID))
	h.render.send(ctx, chatID, text, nil)
}

func (h *CommandHandler) showCancellable(ctx context.Context, chatID, userID int64) {
	bookings := h.service.Engine().Store().UserBookings(userID)
	if len(bookings) == 0 {
		h.render.send(ctx, chatID, "У вас нет подтвержденных записей.", nil)
		return
	}

	h.render.inline(ctx, chatID, 0, "Выберите запись для отмены:", keyboard.CreateCancelKeyboard(bookings))
}

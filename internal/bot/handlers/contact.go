package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/bot/keyboard"
	botservice "telegram_jump_bot/internal/bot/service"
	"telegram_jump_bot/internal/lifecycle"
	"telegram_jump_bot/pkg/errors"
	"telegram_jump_bot/pkg/logger"
)

// ContactHandler обрабатывает получение контактной информации от пользователя
type ContactHandler struct {
	service *botservice.Service
	render  renderer
}

// NewContactHandler создает новый обработчик контактов
func NewContactHandler(service *botservice.Service) *ContactHandler {
	return &ContactHandler{service: service, render: renderer{service: service}}
}

// Handle обрабатывает сообщения с контактной информацией
func (h *ContactHandler) Handle(ctx context.Context, update *models.Update) {
	if update.Message == nil || update.Message.Contact == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := senderID(update.Message)
	contact := update.Message.Contact

	if contact.PhoneNumber == "" {
		h.service.Logger().Warn("Received empty phone number", logger.Int64("user_id", userID))
		h.service.SendError(ctx, chatID, "Не получен номер телефона. Попробуйте еще раз.")
		return
	}

	// Чужой контакт не принимаем
	if contact.UserID != 0 && contact.UserID != userID {
		h.service.SendError(ctx, chatID, "Пожалуйста, отправьте свой номер телефона.")
		return
	}

	step, err := h.service.Engine().HandleContact(ctx, userID, contact.PhoneNumber)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNoConversation) {
			h.render.send(ctx, chatID, "Номер получен, но сейчас он не нужен. Записаться: /book", keyboard.CreateRemoveKeyboard())
			return
		}
		h.render.fail(ctx, chatID, err, step)
		return
	}

	h.render.step(ctx, chatID, 0, step)
}

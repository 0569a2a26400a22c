package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	botservice "telegram_jump_bot/internal/bot/service"
	"telegram_jump_bot/internal/lifecycle"
	"telegram_jump_bot/pkg/errors"
)

// DefaultHandler обрабатывает текст вне команд: ответы на вопросы диалога
// или подсказку, как пользоваться ботом
type DefaultHandler struct {
	service *botservice.Service
	render  renderer
}

// NewDefaultHandler создает новый обработчик по умолчанию
func NewDefaultHandler(service *botservice.Service) *DefaultHandler {
	return &DefaultHandler{service: service, render: renderer{service: service}}
}

// Handle обрабатывает все остальные типы сообщений
func (h *DefaultHandler) Handle(ctx context.Context, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := senderID(update.Message)

	if update.Message.Text != "" {
		step, err := h.service.Engine().HandleText(ctx, userID, update.Message.Text)
		switch {
		case err == nil:
			h.render.step(ctx, chatID, 0, step)
			return
		case !errors.Is(err, lifecycle.ErrNoConversation):
			h.render.fail(ctx, chatID, err, step)
			return
		}
	}

	// Отправляем напоминание о том, как пользоваться ботом
	h.render.send(ctx, chatID, "Пожалуйста, выберите команду: /book - записаться, /help - все команды.", nil)
}

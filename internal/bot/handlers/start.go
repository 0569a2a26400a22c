package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/bot/format"
	botservice "telegram_jump_bot/internal/bot/service"
)

// StartHandler обрабатывает команды /start, /help и /stop
type StartHandler struct {
	service *botservice.Service
	render  renderer
}

// NewStartHandler создает новый обработчик команды /start
func NewStartHandler(service *botservice.Service) *StartHandler {
	return &StartHandler{service: service, render: renderer{service: service}}
}

// Handle обрабатывает команду
func (h *StartHandler) Handle(ctx context.Context, update *models.Update) {
	if update.Message == nil {
		return
	}

	cmd, _ := parseCommand(update.Message.Text)
	chatID := update.Message.Chat.ID
	userID := senderID(update.Message)
	admin := h.service.Engine().IsAdmin(userID)

	switch cmd {
	case "start":
		h.service.Engine().Abort(userID)
		h.render.send(ctx, chatID, format.Welcome(firstName(update.Message), admin), nil)

	case "help":
		h.render.send(ctx, chatID, format.Help(admin), nil)

	case "stop":
		if h.service.Engine().Abort(userID) {
			h.render.send(ctx, chatID, "Диалог прерван.", nil)
			return
		}
		h.render.send(ctx, chatID, "Нет активного диалога.", nil)
	}
}

// parseCommand выделяет имя команды без "/" и "@bot" и ее аргументы
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}

	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}

// senderID возвращает ID отправителя, для личных чатов совпадает с ID чата
func senderID(msg *models.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func firstName(msg *models.Message) string {
	if msg.From != nil {
		return msg.From.FirstName
	}
	return ""
}

package service

import (
	"context"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/lifecycle"
	"telegram_jump_bot/pkg/errors"
	"telegram_jump_bot/pkg/logger"
	"telegram_jump_bot/pkg/metrics"
)

// Messenger отправляет сообщения в Telegram
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup tgmodels.ReplyMarkup) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *tgmodels.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackQueryID, text string, alert bool) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// TelegramMessenger реализует Messenger поверх go-telegram/bot
type TelegramMessenger struct {
	bot *bot.Bot
}

// NewTelegramMessenger создает Messenger для бота
func NewTelegramMessenger(b *bot.Bot) *TelegramMessenger {
	return &TelegramMessenger{bot: b}
}

// SendMessage отправляет сообщение и возвращает его ID
func (m *TelegramMessenger) SendMessage(ctx context.Context, chatID int64, text string, markup tgmodels.ReplyMarkup) (int, error) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	msg, err := m.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, errors.ErrTelegramAPI.WithError(err)
	}
	return msg.ID, nil
}

// EditMessage заменяет текст и inline клавиатуру сообщения
func (m *TelegramMessenger) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *tgmodels.InlineKeyboardMarkup) error {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := m.bot.EditMessageText(ctx, params); err != nil {
		return errors.ErrTelegramAPI.WithError(err)
	}
	return nil
}

// AnswerCallback отвечает на callback query
func (m *TelegramMessenger) AnswerCallback(ctx context.Context, callbackQueryID, text string, alert bool) error {
	params := &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
		Text:            text,
		ShowAlert:       alert,
	}

	if _, err := m.bot.AnswerCallbackQuery(ctx, params); err != nil {
		return errors.ErrTelegramAPI.WithError(err)
	}
	return nil
}

// DeleteMessage удаляет сообщение
func (m *TelegramMessenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	params := &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	}

	if _, err := m.bot.DeleteMessage(ctx, params); err != nil {
		return errors.ErrTelegramAPI.WithError(err)
	}
	return nil
}

// Service связывает движок заявок с отправкой сообщений
type Service struct {
	engine    *lifecycle.Engine
	messenger Messenger
	logger    *logger.Logger
}

// NewService создает новый экземпляр сервиса бота
func NewService(engine *lifecycle.Engine, messenger Messenger, log *logger.Logger) *Service {
	return &Service{
		engine:    engine,
		messenger: messenger,
		logger:    log,
	}
}

// Engine возвращает движок жизненного цикла заявок
func (s *Service) Engine() *lifecycle.Engine {
	return s.engine
}

// Logger возвращает логгер сервиса
func (s *Service) Logger() *logger.Logger {
	return s.logger
}

// SendMessage отправляет сообщение пользователю
func (s *Service) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup tgmodels.ReplyMarkup) error {
	_, err := s.messenger.SendMessage(ctx, chatID, text, replyMarkup)
	if err != nil {
		metrics.RecordError("telegram", "send_message")
		s.logger.Error("Failed to send message", logger.Int64("chat_id", chatID), logger.Error(err))
	}
	return err
}

// SendSimpleMessage отправляет простое текстовое сообщение
func (s *Service) SendSimpleMessage(ctx context.Context, chatID int64, text string) error {
	return s.SendMessage(ctx, chatID, text, nil)
}

// SendError отправляет сообщение об ошибке пользователю
func (s *Service) SendError(ctx context.Context, chatID int64, message string) {
	_ = s.SendSimpleMessage(ctx, chatID, message)
}

// EditMessage заменяет сообщение с inline клавиатурой. Если редактирование
// не удалось, отправляется новое сообщение.
func (s *Service) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *tgmodels.InlineKeyboardMarkup) error {
	if messageID == 0 {
		return s.sendInline(ctx, chatID, text, markup)
	}

	if err := s.messenger.EditMessage(ctx, chatID, messageID, text, markup); err != nil {
		s.logger.Warn("Failed to edit message, sending new one",
			logger.Int64("chat_id", chatID),
			logger.Int("message_id", messageID),
			logger.Error(err),
		)
		return s.sendInline(ctx, chatID, text, markup)
	}
	return nil
}

// AnswerCallbackQuery отвечает на callback query
func (s *Service) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, alert bool) {
	if err := s.messenger.AnswerCallback(ctx, callbackQueryID, text, alert); err != nil {
		s.logger.Warn("Failed to answer callback query", logger.Error(err))
	}
}

// DeleteMessage удаляет сообщение
func (s *Service) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return s.messenger.DeleteMessage(ctx, chatID, messageID)
}

func (s *Service) sendInline(ctx context.Context, chatID int64, text string, markup *tgmodels.InlineKeyboardMarkup) error {
	// typed nil в интерфейсе ReplyMarkup сериализуется как null
	if markup == nil {
		return s.SendMessage(ctx, chatID, text, nil)
	}
	return s.SendMessage(ctx, chatID, text, markup)
}

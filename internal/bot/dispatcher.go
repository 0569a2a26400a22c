package bot

import (
	"context"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/bot/handlers"
	"telegram_jump_bot/internal/bot/service"
	"telegram_jump_bot/internal/middleware"
	"telegram_jump_bot/pkg/logger"
	"telegram_jump_bot/pkg/metrics"
)

// Dispatcher управляет обработкой входящих обновлений от Telegram
type Dispatcher struct {
	service         *service.Service
	limiter         *middleware.TelegramRateLimiter
	logger          *logger.Logger
	startHandler    *handlers.StartHandler
	commandHandler  *handlers.CommandHandler
	adminHandler    *handlers.AdminHandler
	contactHandler  *handlers.ContactHandler
	callbackHandler *handlers.CallbackHandler
	defaultHandler  *handlers.DefaultHandler
}

// NewDispatcher создает новый диспетчер обновлений. limiter может быть nil.
func NewDispatcher(svc *service.Service, limiter *middleware.TelegramRateLimiter) *Dispatcher {
	return &Dispatcher{
		service:         svc,
		limiter:         limiter,
		logger:          svc.Logger().Named("dispatcher"),
		startHandler:    handlers.NewStartHandler(svc),
		commandHandler:  handlers.NewCommandHandler(svc),
		adminHandler:    handlers.NewAdminHandler(svc),
		contactHandler:  handlers.NewContactHandler(svc),
		callbackHandler: handlers.NewCallbackHandler(svc),
		defaultHandler:  handlers.NewDefaultHandler(svc),
	}
}

// HandleUpdate обрабатывает входящее обновление от Telegram.
// Сигнатура совпадает с bot.HandlerFunc.
func (d *Dispatcher) HandleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	d.Dispatch(ctx, update)
}

// Dispatch маршрутизирует обновление к обработчику
func (d *Dispatcher) Dispatch(ctx context.Context, update *models.Update) {
	start := time.Now()
	kind := updateKind(update)
	defer func() {
		metrics.UpdateDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordUpdate(kind, "panic")
			metrics.RecordError("dispatcher", "panic")
			d.logger.Error("Panic while handling update",
				logger.Int64("update_id", update.ID),
				logger.Any("panic", r),
			)
		}
	}()

	userID, ok := updateUser(update)
	if !ok {
		d.logger.Debug("Received unknown update type", logger.Int64("update_id", update.ID))
		metrics.RecordUpdate(kind, "ignored")
		return
	}

	if d.limiter != nil && !d.limiter.AllowUser(userID) {
		metrics.RecordUpdate(kind, "rate_limited")
		if update.CallbackQuery != nil {
			d.service.AnswerCallbackQuery(ctx, update.CallbackQuery.ID, "Слишком много запросов, подождите немного", false)
		}
		return
	}

	d.logger.Debug("Received update",
		logger.String("kind", kind),
		logger.Int64("user_id", userID),
	)

	d.route(ctx, update)
	metrics.RecordUpdate(kind, "success")
}

func (d *Dispatcher) route(ctx context.Context, update *models.Update) {
	// Обрабатываем callback query от inline кнопок
	if update.CallbackQuery != nil {
		d.callbackHandler.Handle(ctx, update)
		return
	}

	msg := update.Message

	// Если получен контакт, обрабатываем его
	if msg.Contact != nil {
		d.contactHandler.Handle(ctx, update)
		return
	}

	switch commandName(msg.Text) {
	case "start", "help", "stop":
		d.startHandler.Handle(ctx, update)
	case "schedule", "book", "mybookings", "cancel":
		d.commandHandler.Handle(ctx, update)
	case "view_bookings", "settings", "setday", "dayslots", "slots", "workdays", "horizon":
		d.adminHandler.Handle(ctx, update)
	default:
		// Все остальные сообщения, включая ответы на вопросы диалога
		d.defaultHandler.Handle(ctx, update)
	}
}

func updateKind(update *models.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message != nil && update.Message.Contact != nil:
		return "contact"
	case update.Message != nil && commandName(update.Message.Text) != "":
		return "command"
	case update.Message != nil:
		return "message"
	}
	return "other"
}

func updateUser(update *models.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID, true
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, true
	case update.Message != nil:
		return update.Message.Chat.ID, true
	}
	return 0, false
}

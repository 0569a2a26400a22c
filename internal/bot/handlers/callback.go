package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/bot/format"
	"telegram_jump_bot/internal/bot/intent"
	botservice "telegram_jump_bot/internal/bot/service"
	"telegram_jump_bot/internal/lifecycle"
	"telegram_jump_bot/pkg/logger"
	"telegram_jump_bot/pkg/metrics"
)

// CallbackHandler обрабатывает callback query от inline кнопок
type CallbackHandler struct {
	service *botservice.Service
	render  renderer
}

// NewCallbackHandler создает новый обработчик callback query
func NewCallbackHandler(service *botservice.Service) *CallbackHandler {
	return &CallbackHandler{service: service, render: renderer{service: service}}
}

// Handle обрабатывает callback query
func (h *CallbackHandler) Handle(ctx context.Context, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	userID := cb.From.ID
	chatID := userID
	messageID := 0
	if cb.Message.Message != nil {
		chatID = cb.Message.Message.Chat.ID
		messageID = cb.Message.Message.ID
	}

	in, err := intent.Parse(cb.Data)
	if err != nil {
		metrics.RecordError("callback", "invalid_data")
		h.service.Logger().Warn("Invalid callback data",
			logger.Int64("user_id", userID),
			logger.String("data", cb.Data),
			logger.Error(err),
		)
		h.service.AnswerCallbackQuery(ctx, cb.ID, "Неверный выбор", false)
		return
	}

	if err := h.dispatch(ctx, userID, chatID, messageID, in); err != nil {
		h.service.Logger().Info("Callback rejected",
			logger.Int64("user_id", userID),
			logger.String("data", cb.Data),
			logger.Error(err),
		)
		h.service.AnswerCallbackQuery(ctx, cb.ID, format.ErrorText(err), true)
		return
	}

	// Отвечаем на callback query чтобы убрать индикатор загрузки
	h.service.AnswerCallbackQuery(ctx, cb.ID, "", false)
}

func (h *CallbackHandler) dispatch(ctx context.Context, userID, chatID int64, messageID int, in intent.Intent) error {
	engine := h.service.Engine()

	switch in := in.(type) {
	case intent.Noop:
		return nil

	case intent.BookDate:
		return h.startBooking(ctx, userID, chatID, messageID, in.Date)

	case intent.Override:
		step, err := engine.ResolveOverride(ctx, userID, in.Proceed)
		if err != nil {
			return err
		}
		h.render.step(ctx, chatID, messageID, step)
		return nil

	case intent.Decide:
		step, err := engine.BeginReview(ctx, userID, in.Date, in.UserID, in.Approve)
		if err != nil {
			return err
		}
		h.render.step(ctx, chatID, messageID, step)
		return nil

	case intent.Review:
		step, err := engine.Review(ctx, userID, reviewAction(in.Action))
		if err != nil {
			return err
		}
		h.render.step(ctx, chatID, messageID, step)
		return nil

	case intent.PickMonth:
		return h.pickMonth(ctx, userID, chatID, messageID, in)

	case intent.PickDay:
		return h.pickDay(ctx, userID, chatID, messageID, in)

	case intent.Back:
		return h.back(ctx, userID, chatID, messageID, in.Purpose)

	case intent.CancelBooking:
		cancelled, err := engine.CancelBooking(ctx, userID, in.Date)
		if err != nil {
			return err
		}
		h.render.inline(ctx, chatID, messageID,
			"🚫 Запись на "+format.Date(in.Date)+" в "+cancelled.Time()+" отменена.", nil)
		return nil
	}

	return lifecycle.ErrNoConversation
}

func (h *CallbackHandler) startBooking(ctx context.Context, userID, chatID int64, messageID int, date string) error {
	step, err := h.service.Engine().StartBooking(ctx, userID, date)
	if err != nil {
		return err
	}
	h.render.step(ctx, chatID, messageID, step)
	return nil
}

func (h *CallbackHandler) pickMonth(ctx context.Context, userID, chatID int64, messageID int, in intent.PickMonth) error {
	engine := h.service.Engine()

	switch in.Purpose {
	case intent.PurposeSchedule, intent.PurposeBook:
		h.render.scheduleMonth(ctx, chatID, messageID, in.Month)
		return nil

	case intent.PurposeReschedule:
		step, err := engine.PickRescheduleMonth(ctx, userID, in.Month)
		if err != nil {
			return err
		}
		h.render.step(ctx, chatID, messageID, step)
		return nil

	case intent.PurposeConfig:
		step, err := engine.PickConfigMonth(ctx, userID, in.Month)
		if err != nil {
			return err
		}
		h.render.step(ctx, chatID, messageID, step)
		return nil
	}
	return lifecycle.ErrNoConversation
}

func (h *CallbackHandler) pickDay(ctx context.Context, userID, chatID int64, messageID int, in intent.PickDay) error {
	engine := h.service.Engine()

	switch in.Purpose {
	case intent.PurposeSchedule, intent.PurposeBook:
		return h.startBooking(ctx, userID, chatID, messageID, in.Date)

	case intent.PurposeReschedule:
		step, err := engine.PickRescheduleDate(ctx, userID, in.Date)
		if err != nil {
			return err
		}
		h.render.step(ctx, chatID, messageID, step)
		return nil

	case intent.PurposeConfig:
		step, err := engine.PickConfigDay(ctx, userID, in.Date)
		if err != nil {
			return err
		}
		h.render.step(ctx, chatID, messageID, step)
		return nil
	}
	return lifecycle.ErrNoConversation
}

func (h *CallbackHandler) back(ctx context.Context, userID, chatID int64, messageID int, purpose intent.Purpose) error {
	engine := h.service.Engine()

	switch purpose {
	case intent.PurposeSchedule, intent.PurposeBook:
		h.render.scheduleMonths(ctx, chatID, messageID)
		return nil

	case intent.PurposeReschedule:
		conv, ok := engine.Active(userID)
		if !ok || conv.State != lifecycle.StateAdminRescheduling {
			return lifecycle.ErrNoConversation
		}
		conv.Review.PickedMonth = nil
		h.render.rescheduleCalendar(ctx, chatID, messageID, conv)
		return nil

	case intent.PurposeConfig:
		step, err := engine.BackToConfigMonths(ctx, userID)
		if err != nil {
			return err
		}
		h.render.step(ctx, chatID, messageID, step)
		return nil
	}
	return lifecycle.ErrNoConversation
}

func reviewAction(a intent.ReviewAction) lifecycle.ReviewAction {
	switch a {
	case intent.ReviewChangeDate:
		return lifecycle.ReviewChangeDate
	case intent.ReviewSetTime:
		return lifecycle.ReviewSetTime
	}
	return lifecycle.ReviewConfirm
}

package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/bot/format"
	"telegram_jump_bot/internal/bot/intent"
	"telegram_jump_bot/internal/bot/keyboard"
	botservice "telegram_jump_bot/internal/bot/service"
	"telegram_jump_bot/internal/lifecycle"
	"telegram_jump_bot/pkg/logger"
)

// renderer показывает пользователю результат шага диалога.
// messageID != 0 означает, что можно отредактировать сообщение с кнопками.
type renderer struct {
	service *botservice.Service
}

func (r renderer) engine() *lifecycle.Engine {
	return r.service.Engine()
}

func (r renderer) step(ctx context.Context, chatID int64, messageID int, step lifecycle.Step) {
	conv := step.Conversation

	switch step.State {
	case lifecycle.StateCheckingExisting:
		if conv.Booking == nil || conv.Booking.Existing == nil {
			return
		}
		text := format.ExistingBooking(conv.Booking.Date, conv.Booking.Existing.Time())
		r.inline(ctx, chatID, messageID, text, keyboard.CreateOverrideKeyboard())

	case lifecycle.StateCollectingFirstName:
		if messageID != 0 && conv.Booking != nil {
			r.inline(ctx, chatID, messageID, fmt.Sprintf("📅 Запись на %s", format.Date(conv.Booking.Date)), nil)
		}
		r.send(ctx, chatID, format.Prompt(step.State), nil)

	case lifecycle.StateCollectingLastName, lifecycle.StateCollectingAge, lifecycle.StateCollectingWeight:
		r.send(ctx, chatID, format.Prompt(step.State), nil)

	case lifecycle.StateCollectingPhone:
		r.send(ctx, chatID, format.Prompt(step.State), keyboard.CreateContactKeyboard())

	case lifecycle.StateAwaitingModeration:
		r.send(ctx, chatID, format.Prompt(step.State), keyboard.CreateRemoveKeyboard())

	case lifecycle.StateOverrideCancelled:
		r.inline(ctx, chatID, messageID, format.Prompt(step.State), nil)

	case lifecycle.StateAdminReviewing:
		r.reviewMenu(ctx, chatID, messageID, conv)

	case lifecycle.StateAdminRescheduling:
		r.rescheduleCalendar(ctx, chatID, messageID, conv)

	case lifecycle.StateAdminSettingTime:
		r.inline(ctx, chatID, messageID, format.Prompt(step.State), nil)

	case lifecycle.StateConfirmed, lifecycle.StateRejected:
		if step.Outcome != nil {
			r.inline(ctx, chatID, messageID, format.DecisionSummary(*step.Outcome), nil)
		}

	case lifecycle.StateConfigPickingMonth:
		r.configMonths(ctx, chatID, messageID)

	case lifecycle.StateConfigPickingDay:
		if conv.Config == nil || conv.Config.Month == nil {
			return
		}
		ym := *conv.Config.Month
		grid := r.engine().MonthView(ym, booking.ModeSpecificDays)
		text := fmt.Sprintf("%s\n%s", format.MonthTitle(ym), format.Prompt(step.State))
		r.inline(ctx, chatID, messageID, text, keyboard.CreateMonthGridKeyboard(grid, intent.PurposeConfig))

	case lifecycle.StateConfigEnteringSlots:
		if conv.Config == nil {
			return
		}
		r.inline(ctx, chatID, messageID, format.SlotsPrompt(conv.Config.Date, conv.Config.Confirmed), nil)

	case lifecycle.StateConfigDone:
		r.send(ctx, chatID, "✅ Количество слотов сохранено.", nil)
	}
}

func (r renderer) reviewMenu(ctx context.Context, chatID int64, messageID int, conv lifecycle.Conversation) {
	flow := conv.Review
	if flow == nil {
		return
	}
	text := format.ReviewMenu(format.ReviewState{
		Name:       flow.Request.FullName(),
		Date:       flow.Date,
		StagedDate: flow.StagedDate,
		Time:       flow.EffectiveTime(r.engine().Store().DefaultTime()),
	})
	r.inline(ctx, chatID, messageID, text, keyboard.CreateReviewKeyboard())
}

func (r renderer) rescheduleCalendar(ctx context.Context, chatID int64, messageID int, conv lifecycle.Conversation) {
	if conv.Review != nil && conv.Review.PickedMonth != nil {
		ym := *conv.Review.PickedMonth
		grid := r.engine().MonthView(ym, booking.ModeWeekday)
		text := fmt.Sprintf("%s\nВыберите новую дату:", format.MonthTitle(ym))
		r.inline(ctx, chatID, messageID, text, keyboard.CreateMonthGridKeyboard(grid, intent.PurposeReschedule))
		return
	}

	months := r.engine().HorizonMonths()
	r.inline(ctx, chatID, messageID, format.Prompt(lifecycle.StateAdminRescheduling),
		keyboard.CreateMonthsKeyboard(months, intent.PurposeReschedule))
}

func (r renderer) configMonths(ctx context.Context, chatID int64, messageID int) {
	months := r.engine().MonthsWithAvailability()
	if len(months) == 0 {
		r.inline(ctx, chatID, messageID, "Нет дней с индивидуальным количеством слотов.\nДобавьте день командой /setday ГГГГ-ММ-ДД N", nil)
		return
	}
	r.inline(ctx, chatID, messageID, format.Prompt(lifecycle.StateConfigPickingMonth),
		keyboard.CreateMonthsKeyboard(months, intent.PurposeConfig))
}

func (r renderer) scheduleMonths(ctx context.Context, chatID int64, messageID int) {
	months := r.engine().HorizonMonths()
	r.inline(ctx, chatID, messageID, "📅 Выберите месяц:", keyboard.CreateMonthsKeyboard(months, intent.PurposeSchedule))
}

func (r renderer) scheduleMonth(ctx context.Context, chatID int64, messageID int, ym booking.YearMonth) {
	days := r.engine().MonthAvailability(ym, booking.ModeWeekday)
	grid := r.engine().MonthView(ym, booking.ModeWeekday)
	r.inline(ctx, chatID, messageID, format.Schedule(ym, days), keyboard.CreateMonthGridKeyboard(grid, intent.PurposeSchedule))
}

// inline редактирует сообщение или отправляет новое
func (r renderer) inline(ctx context.Context, chatID int64, messageID int, text string, markup *models.InlineKeyboardMarkup) {
	if err := r.service.EditMessage(ctx, chatID, messageID, text, markup); err != nil {
		r.service.Logger().Error("Failed to render message", logger.Int64("chat_id", chatID), logger.Error(err))
	}
}

func (r renderer) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	_ = r.service.SendMessage(ctx, chatID, text, markup)
}

// fail сообщает пользователю об ошибке и повторяет вопрос текущего шага
func (r renderer) fail(ctx context.Context, chatID int64, err error, step lifecycle.Step) {
	r.service.SendError(ctx, chatID, format.ErrorText(err))

	switch step.State {
	case lifecycle.StateCollectingPhone:
		r.send(ctx, chatID, format.Prompt(step.State), keyboard.CreateContactKeyboard())
	case lifecycle.StateConfigEnteringSlots:
		if step.Conversation.Config != nil {
			r.send(ctx, chatID, format.SlotsPrompt(step.Conversation.Config.Date, step.Conversation.Config.Confirmed), nil)
		}
	default:
		if step.State.AcceptsText() {
			r.send(ctx, chatID, format.Prompt(step.State), nil)
		}
	}
}

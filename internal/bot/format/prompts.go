package format

import (
	"fmt"
	"strings"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/lifecycle"
	"telegram_jump_bot/internal/validation"
	"telegram_jump_bot/pkg/errors"
)

// Prompt возвращает вопрос для состояния диалога записи
func Prompt(state lifecycle.State) string {
	switch state {
	case lifecycle.StateCollectingFirstName:
		return "Введите ваше имя:"
	case lifecycle.StateCollectingLastName:
		return "Введите вашу фамилию:"
	case lifecycle.StateCollectingAge:
		return fmt.Sprintf("Введите ваш возраст (%d-%d):", validation.MinAge, validation.MaxAge)
	case lifecycle.StateCollectingWeight:
		return fmt.Sprintf("Введите ваш вес в кг (%g-%g):", validation.MinWeight, validation.MaxWeight)
	case lifecycle.StateCollectingPhone:
		return "Введите номер телефона или нажмите кнопку ниже:"
	case lifecycle.StateAwaitingModeration:
		return "✅ Заявка отправлена администратору. Мы сообщим о решении."
	case lifecycle.StateOverrideCancelled:
		return "Хорошо, ваша текущая запись сохранена."
	case lifecycle.StateAdminSettingTime:
		return "Введите время прыжка в формате ЧЧ:ММ:"
	case lifecycle.StateAdminRescheduling:
		return "Выберите месяц новой даты:"
	case lifecycle.StateConfigPickingMonth:
		return "Выберите месяц:"
	case lifecycle.StateConfigPickingDay:
		return "Выберите день:"
	}
	return ""
}

// ExistingBooking - вопрос о замене подтвержденной записи
func ExistingBooking(date, bookingTime string) string {
	return fmt.Sprintf("У вас уже есть подтвержденная запись на %s в %s.\nПодать новую заявку вместо нее?",
		Date(date), bookingTime)
}

// SlotsPrompt - вопрос о количестве слотов для дня
func SlotsPrompt(date string, confirmed int) string {
	return fmt.Sprintf("Введите количество слотов на %s (подтверждено записей: %d):", Date(date), confirmed)
}

// ErrorText превращает ошибку в понятное пользователю сообщение
func ErrorText(err error) string {
	if conflict, ok := errors.Conflict(err); ok {
		if strings.HasPrefix(conflict.Target, booking.WorkingDayTarget) {
			return fmt.Sprintf("❌ Нельзя убрать рабочий день: на ближайшие даты подтверждено записей: %d.", conflict.MinAllowed)
		}
		return fmt.Sprintf("❌ Нельзя установить меньше %d: подтверждено записей: %d.", conflict.MinAllowed, conflict.MinAllowed)
	}

	botErr, ok := errors.GetBotError(err)
	if !ok {
		return "❌ Произошла ошибка. Попробуйте позже."
	}

	switch botErr.Code {
	case errors.CodeValidation:
		msg := "некорректный ввод"
		if botErr.Message != "" {
			msg = botErr.Message
		}
		if reason := reasonOf(botErr); reason != "" {
			msg += ": " + reason
		}
		return "❌ " + capitalize(msg) + ". Попробуйте еще раз."
	case errors.CodeAlreadyPending:
		return "⏳ Ваша заявка на эту дату уже ожидает подтверждения."
	case errors.CodeUnauthorized:
		return "⛔ Команда доступна только администратору."
	case errors.CodeNotFound:
		if botErr.Message == "" {
			return "❌ Не найдено."
		}
		return "❌ " + capitalize(botErr.Message) + "."
	case errors.CodePersistence:
		return "❌ Не удалось сохранить изменения. Попробуйте позже."
	}
	return "❌ Произошла ошибка. Попробуйте позже."
}

func reasonOf(e *errors.BotError) string {
	switch ctx := e.Context.(type) {
	case string:
		return ctx
	case map[string]interface{}:
		if reason, ok := ctx["reason"].(string); ok {
			return reason
		}
	}
	return ""
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	if r[0] >= 'а' && r[0] <= 'я' {
		r[0] -= 'а' - 'А'
	} else if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

const userHelp = "Команды:\n" +
	"/schedule - расписание\n" +
	"/book - записаться на прыжок\n" +
	"/mybookings - мои записи\n" +
	"/cancel - отменить запись\n" +
	"/stop - прервать текущий диалог"

const adminHelp = "Администратор:\n" +
	"/view_bookings - все заявки и записи\n" +
	"/settings - слоты конкретного дня\n" +
	"/setday ГГГГ-ММ-ДД N - слоты на дату\n" +
	"/dayslots ДЕНЬ N - слоты дня недели (0=пн)\n" +
	"/slots N - слоты по умолчанию\n" +
	"/workdays 5,6 - рабочие дни\n" +
	"/horizon N - горизонт в месяцах"

// Help - список команд
func Help(admin bool) string {
	if !admin {
		return userHelp
	}
	return userHelp + "\n\n" + adminHelp
}

// Welcome - приветствие
func Welcome(name string, admin bool) string {
	if name == "" {
		name = "друг"
	}
	return fmt.Sprintf("👋 Привет, %s!\nЯ помогу записаться на прыжок с парашютом.\n\n%s", name, Help(admin))
}

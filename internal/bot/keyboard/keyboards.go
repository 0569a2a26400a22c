package keyboard

import (
	"fmt"
	"strconv"

	"github.com/go-telegram/bot/models"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/bot/format"
	"telegram_jump_bot/internal/bot/intent"
	storagemodels "telegram_jump_bot/internal/storage/models"
)

// EmptyCell - подпись неактивной ячейки календаря
const EmptyCell = "·"

// CreateContactKeyboard создает клавиатуру для запроса контакта
func CreateContactKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{
				{
					Text:           "📱 Поделиться телефоном",
					RequestContact: true,
				},
			},
		},
		OneTimeKeyboard: true,
		ResizeKeyboard:  true,
	}
}

// CreateRemoveKeyboard создает объект для удаления клавиатуры
func CreateRemoveKeyboard() *models.ReplyKeyboardRemove {
	return &models.ReplyKeyboardRemove{
		RemoveKeyboard: true,
	}
}

// CreateMonthsKeyboard создает inline клавиатуру выбора месяца
func CreateMonthsKeyboard(months []booking.YearMonth, purpose intent.Purpose) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	for _, ym := range months {
		rows = append(rows, []models.InlineKeyboardButton{
			button(format.MonthTitle(ym), intent.PickMonth{Purpose: purpose, Month: ym}),
		})
	}

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// CreateDatesKeyboard создает inline клавиатуру со списком открытых дат для записи
func CreateDatesKeyboard(days []booking.DayAvailability, purpose intent.Purpose) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	for _, d := range days {
		text := fmt.Sprintf("%s — %s", format.ShortDate(d.Date), format.Seats(d.Remaining))
		var in intent.Intent = intent.BookDate{Date: d.DateStr}
		if purpose != intent.PurposeBook {
			in = intent.PickDay{Purpose: purpose, Date: d.DateStr}
		}
		rows = append(rows, []models.InlineKeyboardButton{button(text, in)})
	}

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// CreateMonthGridKeyboard создает календарную сетку месяца.
// Недоступные дни и пустые ячейки отображаются точкой.
func CreateMonthGridKeyboard(grid [][]booking.DayCell, purpose intent.Purpose) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(grid)+2)

	header := make([]models.InlineKeyboardButton, 0, 7)
	for _, name := range format.WeekdayHeader {
		header = append(header, button(name, intent.Noop{}))
	}
	rows = append(rows, header)

	for _, week := range grid {
		row := make([]models.InlineKeyboardButton, 7)
		for wd := range row {
			row[wd] = button(EmptyCell, intent.Noop{})
		}
		for _, cell := range week {
			if !cell.Available {
				continue
			}
			row[cell.Weekday] = button(strconv.Itoa(cell.Day), intent.PickDay{
				Purpose: purpose,
				Date:    storagemodels.FormatDate(cell.Date),
			})
		}
		rows = append(rows, row)
	}

	rows = append(rows, []models.InlineKeyboardButton{
		button("⬅️ Назад", intent.Back{Purpose: purpose}),
	})

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// CreateDecisionKeyboard создает кнопки решения по заявке для администратора
func CreateDecisionKeyboard(date string, userID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				button("✅ Подтвердить", intent.Decide{Date: date, UserID: userID, Approve: true}),
				button("❌ Отклонить", intent.Decide{Date: date, UserID: userID}),
			},
		},
	}
}

// CreateReviewKeyboard создает меню подтверждения заявки
func CreateReviewKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{button("✅ Подтвердить", intent.Review{Action: intent.ReviewConfirm})},
			{button("📅 Изменить дату", intent.Review{Action: intent.ReviewChangeDate})},
			{button("⏰ Указать время", intent.Review{Action: intent.ReviewSetTime})},
		},
	}
}

// CreateOverrideKeyboard создает вопрос о замене существующей записи
func CreateOverrideKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				button("Да, подать заявку", intent.Override{Proceed: true}),
				button("Нет", intent.Override{Proceed: false}),
			},
		},
	}
}

// CreateCancelKeyboard создает список записей пользователя для отмены
func CreateCancelKeyboard(bookings []storagemodels.DatedBooking) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	for _, b := range bookings {
		text := fmt.Sprintf("🚫 %s в %s", format.Date(b.Date), b.Booking.Time())
		rows = append(rows, []models.InlineKeyboardButton{
			button(text, intent.CancelBooking{Date: b.Date}),
		})
	}

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

func button(text string, in intent.Intent) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: intent.Encode(in),
	}
}

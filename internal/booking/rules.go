package booking

import (
	"time"

	"telegram_jump_bot/internal/storage/models"
)

// CapacityFor возвращает количество слотов на дату.
// Порядок: specific_days[date], затем 0 для нерабочего дня недели,
// затем day_slots[weekday], затем slots_per_day.
func CapacityFor(s models.Settings, date time.Time) int {
	if slots, ok := s.SpecificDays[models.FormatDate(date)]; ok {
		return slots
	}

	weekday := models.Weekday(date)
	if !s.IsWorkingDay(weekday) {
		return 0
	}

	if slots, ok := s.DaySlots[weekday]; ok {
		return slots
	}

	return s.SlotsPerDay
}

// Remaining возвращает количество свободных мест. Может быть отрицательным,
// если администратор подтвердил больше записей, чем слотов.
func Remaining(doc *models.Document, date time.Time) int {
	return CapacityFor(doc.Settings, date) - doc.ConfirmedCount(models.FormatDate(date))
}

// IsOpen проверяет, есть ли на дату свободные места
func IsOpen(doc *models.Document, date time.Time) bool {
	return Remaining(doc, date) > 0
}

// DisplayRemaining возвращает количество свободных мест для показа (не меньше 0)
func DisplayRemaining(doc *models.Document, date time.Time) int {
	if r := Remaining(doc, date); r > 0 {
		return r
	}
	return 0
}

// Package format формирует тексты сообщений бота
package format

import (
	"fmt"
	"strings"
	"time"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/storage/models"
)

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

var weekdayShort = [...]string{"пн", "вт", "ср", "чт", "пт", "сб", "вс"}

// WeekdayHeader - заголовок сетки календаря
var WeekdayHeader = [...]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// MonthTitle возвращает "Июль 2025"
func MonthTitle(ym booking.YearMonth) string {
	return fmt.Sprintf("%s %d", monthNames[ym.Month-1], ym.Year)
}

// WeekdayName возвращает короткое имя дня недели (0 = пн)
func WeekdayName(weekday int) string {
	if weekday < 0 || weekday > 6 {
		return "?"
	}
	return weekdayShort[weekday]
}

// Date возвращает "05.07.2025 (сб)" для даты YYYY-MM-DD
func Date(date string) string {
	d, err := models.ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s (%s)", d.Format("02.01.2006"), WeekdayName(models.Weekday(d)))
}

// ShortDate возвращает "05.07 (сб)"
func ShortDate(d time.Time) string {
	return fmt.Sprintf("%s (%s)", d.Format("02.01"), WeekdayName(models.Weekday(d)))
}

// Seats склоняет "место" по числу
func Seats(n int) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs%10 == 1 && abs%100 != 11:
		return fmt.Sprintf("%d место", n)
	case abs%10 >= 2 && abs%10 <= 4 && (abs%100 < 12 || abs%100 > 14):
		return fmt.Sprintf("%d места", n)
	default:
		return fmt.Sprintf("%d мест", n)
	}
}

// Weekdays возвращает "сб, вс"
func Weekdays(days []int) string {
	if len(days) == 0 {
		return "нет"
	}
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = WeekdayName(d)
	}
	return strings.Join(names, ", ")
}

// Applicant возвращает анкету заявки
func Applicant(a models.Applicant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n", a.FullName())
	fmt.Fprintf(&b, "🎂 Возраст: %d\n", a.Age)
	fmt.Fprintf(&b, "⚖️ Вес: %g кг\n", a.Weight)
	fmt.Fprintf(&b, "📞 Телефон: %s", a.Phone)
	return b.String()
}

// NewRequest - уведомление администратора о новой заявке
func NewRequest(date string, req models.BookingRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 Новая заявка на %s\n\n", Date(date))
	b.WriteString(Applicant(req.Applicant))
	fmt.Fprintf(&b, "\n🆔 %d", req.UserID)
	if req.Override {
		b.WriteString("\n\n♻️ Пользователь уже записан на эту дату, заявка заменит прежнюю запись.")
	}
	b.WriteString("\n\nПодтвердить заявку?")
	return b.String()
}

// Decision - уведомление пользователя о решении администратора
func Decision(out booking.Outcome) string {
	if !out.Approved {
		return fmt.Sprintf("❌ Ваша заявка на %s была отклонена администратором", Date(out.Date))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Ваша запись подтверждена!\n📅 Дата: %s\n⏰ Время: %s", Date(out.EffectiveDate), out.Time)
	if out.EffectiveDate != out.Date {
		fmt.Fprintf(&b, "\n\nℹ️ Дата изменена администратором (вы выбирали %s).", Date(out.Date))
	}
	return b.String()
}

// DecisionSummary - подтверждение действия для администратора
func DecisionSummary(out booking.Outcome) string {
	if !out.Approved {
		return fmt.Sprintf("❌ Заявка %s на %s отклонена", out.Request.FullName(), Date(out.Date))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Запись подтверждена: %s, %s в %s", out.Request.FullName(), Date(out.EffectiveDate), out.Time)
	if out.Replaced {
		b.WriteString("\n♻️ Прежняя запись пользователя удалена.")
	}
	if out.Oversold {
		b.WriteString("\n⚠️ Подтверждено больше записей, чем слотов на эту дату.")
	}
	return b.String()
}

// Cancellation - уведомление администратора об отмене записи пользователем
func Cancellation(date string, b models.ConfirmedBooking) string {
	return fmt.Sprintf("🚫 Пользователь отменил запись на %s в %s\n\n%s\n🆔 %d",
		Date(date), b.Time(), Applicant(b.Applicant), b.UserID)
}

// Reminder - напоминание о прыжке
func Reminder(date string, b models.ConfirmedBooking) string {
	return fmt.Sprintf("⏰ Напоминание: %s, ваш прыжок %s в %s. До встречи на аэродроме!",
		b.FirstName, Date(date), b.Time())
}

// ReviewMenu - меню подтверждения с выбранными датой и временем
func ReviewMenu(flow ReviewState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Заявка: %s\n", flow.Name)
	fmt.Fprintf(&b, "📅 Дата: %s", Date(flow.StagedDate))
	if flow.StagedDate != flow.Date {
		fmt.Fprintf(&b, " (запрошено %s)", Date(flow.Date))
	}
	fmt.Fprintf(&b, "\n⏰ Время: %s\n\nВыберите действие:", flow.Time)
	return b.String()
}

// ReviewState - данные для меню подтверждения
type ReviewState struct {
	Name       string
	Date       string
	StagedDate string
	Time       string
}

// Schedule возвращает список открытых дат месяца
func Schedule(ym booking.YearMonth, days []booking.DayAvailability) string {
	if len(days) == 0 {
		return fmt.Sprintf("В %s нет доступных дат.", strings.ToLower(MonthTitle(ym)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Расписание на %s:\n\n", MonthTitle(ym))
	for _, d := range days {
		fmt.Fprintf(&b, "%s — %s\n", ShortDate(d.Date), Seats(d.Remaining))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Bookings - обзор заявок и записей для администратора
func Bookings(doc *models.Document) string {
	var b strings.Builder
	b.WriteString("📋 Список записей:\n\n⏳ Ожидают подтверждения:\n")

	pendingDates := models.SortedDates(doc.PendingBookings)
	if len(pendingDates) == 0 {
		b.WriteString("нет\n")
	}
	for _, date := range pendingDates {
		fmt.Fprintf(&b, "📅 %s:\n", Date(date))
		for _, r := range doc.PendingBookings[date] {
			fmt.Fprintf(&b, "👤 %s, %s\n", r.FullName(), r.Phone)
		}
	}

	b.WriteString("\n✅ Подтвержденные:\n")
	confirmedDates := models.SortedDates(doc.ConfirmedBookings)
	if len(confirmedDates) == 0 {
		b.WriteString("нет\n")
	}
	for _, date := range confirmedDates {
		fmt.Fprintf(&b, "📅 %s:\n", Date(date))
		for _, c := range doc.ConfirmedBookings[date] {
			fmt.Fprintf(&b, "👤 %s ⏰ %s\n", c.FullName(), c.Time())
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// UserBookings - записи и заявки пользователя
func UserBookings(confirmed []models.DatedBooking, pending []models.DatedRequest) string {
	if len(confirmed) == 0 && len(pending) == 0 {
		return "У вас нет записей. Записаться: /book"
	}

	var b strings.Builder
	if len(confirmed) > 0 {
		b.WriteString("✅ Ваши записи:\n")
		for _, c := range confirmed {
			fmt.Fprintf(&b, "📅 %s в %s\n", Date(c.Date), c.Booking.Time())
		}
	}
	if len(pending) > 0 {
		if len(confirmed) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("⏳ Ожидают подтверждения:\n")
		for _, p := range pending {
			fmt.Fprintf(&b, "📅 %s\n", Date(p.Date))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Settings - текущие настройки расписания
func Settings(s models.Settings) string {
	var b strings.Builder
	b.WriteString("⚙️ Настройки расписания:\n")
	fmt.Fprintf(&b, "Горизонт: %d мес.\n", s.MonthsAhead)
	fmt.Fprintf(&b, "Рабочие дни: %s\n", Weekdays(s.WorkingDays))
	fmt.Fprintf(&b, "Слотов по умолчанию: %d\n", s.SlotsPerDay)
	for wd := 0; wd < 7; wd++ {
		if n, ok := s.DaySlots[wd]; ok {
			fmt.Fprintf(&b, "Слотов в %s: %d\n", WeekdayName(wd), n)
		}
	}
	fmt.Fprintf(&b, "Особых дней: %d", len(s.SpecificDays))
	return b.String()
}

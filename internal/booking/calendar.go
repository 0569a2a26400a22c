package booking

import (
	"sort"
	"time"

	"telegram_jump_bot/internal/storage/models"
)

// Mode определяет, какие даты считаются доступными для выбора
type Mode int

const (
	// ModeWeekday - дата доступна, если ее день недели рабочий
	ModeWeekday Mode = iota
	// ModeSpecificDays - дата доступна, только если для нее явно задано количество слотов
	ModeSpecificDays
)

// String возвращает имя режима
func (m Mode) String() string {
	switch m {
	case ModeWeekday:
		return "weekday"
	case ModeSpecificDays:
		return "specific"
	default:
		return "unknown"
	}
}

// ParseMode разбирает режим из строки
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "weekday":
		return ModeWeekday, true
	case "specific":
		return ModeSpecificDays, true
	default:
		return ModeWeekday, false
	}
}

// DayAvailability - открытая дата и количество свободных мест
type DayAvailability struct {
	Date      time.Time `json:"-"`
	DateStr   string    `json:"date"`
	Remaining int       `json:"remaining"`
}

// YearMonth - месяц календаря
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// First возвращает первый день месяца
func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next возвращает следующий месяц
func (ym YearMonth) Next() YearMonth {
	next := ym.First().AddDate(0, 1, 0)
	return YearMonth{Year: next.Year(), Month: next.Month()}
}

// Before сравнивает месяцы
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// MonthOf возвращает месяц даты
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// DayCell - ячейка сетки месяца. Available=false означает пустую ячейку.
type DayCell struct {
	Date      time.Time
	Day       int
	Weekday   int
	Remaining int
	Available bool
}

// Eligible проверяет, подходит ли дата под режим
func Eligible(s models.Settings, date time.Time, mode Mode) bool {
	switch mode {
	case ModeSpecificDays:
		_, ok := s.SpecificDays[models.FormatDate(date)]
		return ok
	default:
		return s.IsWorkingDay(models.Weekday(date))
	}
}

// HorizonMonths возвращает месяцы горизонта, начиная с месяца start
func HorizonMonths(start time.Time, monthsAhead int) []YearMonth {
	if monthsAhead <= 0 {
		return nil
	}

	months := make([]YearMonth, 0, monthsAhead)
	ym := MonthOf(start)
	for i := 0; i < monthsAhead; i++ {
		months = append(months, ym)
		ym = ym.Next()
	}
	return months
}

// ListOpenDates перебирает дни от start до конца monthsAhead-го месяца и
// оставляет дни не раньше today, открытые и подходящие под режим.
func ListOpenDates(doc *models.Document, start time.Time, monthsAhead int, mode Mode, today time.Time) []DayAvailability {
	if monthsAhead <= 0 {
		return nil
	}

	start = models.CivilDate(start)
	today = models.CivilDate(today)
	end := MonthOf(start).First().AddDate(0, monthsAhead, 0)

	var result []DayAvailability
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.Before(today) || !Eligible(doc.Settings, d, mode) {
			continue
		}
		remaining := Remaining(doc, d)
		if remaining <= 0 {
			continue
		}
		result = append(result, DayAvailability{
			Date:      d,
			DateStr:   models.FormatDate(d),
			Remaining: remaining,
		})
	}

	return result
}

// ListMonth возвращает открытые даты одного месяца
func ListMonth(doc *models.Document, ym YearMonth, mode Mode, today time.Time) []DayAvailability {
	return ListOpenDates(doc, ym.First(), 1, mode, today)
}

// ListMonthsWithAvailability возвращает месяцы, в которых есть хотя бы один
// день (не раньше today) с положительным количеством слотов в specific_days.
func ListMonthsWithAvailability(doc *models.Document, today time.Time) []YearMonth {
	today = models.CivilDate(today)
	seen := make(map[YearMonth]bool)

	for dateStr, slots := range doc.Settings.SpecificDays {
		if slots <= 0 {
			continue
		}
		date, err := models.ParseDate(dateStr)
		if err != nil || date.Before(today) {
			continue
		}
		seen[MonthOf(date)] = true
	}

	months := make([]YearMonth, 0, len(seen))
	for ym := range seen {
		months = append(months, ym)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Before(months[j])
	})

	return months
}

// MonthView строит сетку месяца по неделям. Строка завершается на воскресенье
// и на последнем дне месяца, поэтому первая и последняя строки могут быть короче.
func MonthView(doc *models.Document, ym YearMonth, mode Mode, today time.Time) [][]DayCell {
	today = models.CivilDate(today)
	first := ym.First()
	last := first.AddDate(0, 1, -1)

	var rows [][]DayCell
	var row []DayCell
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		cell := DayCell{
			Date:    d,
			Day:     d.Day(),
			Weekday: models.Weekday(d),
		}
		if !d.Before(today) && Eligible(doc.Settings, d, mode) && IsOpen(doc, d) {
			cell.Available = true
			cell.Remaining = Remaining(doc, d)
		}
		row = append(row, cell)

		if cell.Weekday == 6 || d.Equal(last) {
			rows = append(rows, row)
			row = nil
		}
	}

	return rows
}

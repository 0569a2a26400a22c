package models

import "time"

// Форматы даты и времени документа
const (
	DateLayout         = "2006-01-02"
	TimeLayout         = "15:04"
	DefaultBookingTime = "10:00"
)

// Settings содержит правила расписания, которыми управляет администратор.
// Дни недели нумеруются с понедельника: 0 = понедельник, 6 = воскресенье.
type Settings struct {
	MonthsAhead  int            `json:"months_ahead"`
	SlotsPerDay  int            `json:"slots_per_day"`
	WorkingDays  []int          `json:"working_days"`
	DaySlots     map[int]int    `json:"day_slots"`
	SpecificDays map[string]int `json:"specific_days"`
}

// Applicant содержит данные, собранные у пользователя
type Applicant struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Age       int     `json:"age"`
	Weight    float64 `json:"weight"`
	Phone     string  `json:"phone"`
}

// FullName возвращает имя и фамилию
func (a Applicant) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// BookingRequest представляет заявку, ожидающую решения администратора
type BookingRequest struct {
	UserID int64 `json:"user_id"`
	Applicant
	Timestamp string `json:"timestamp"`
	// Override отмечает заявку, которая заменит уже подтвержденную запись
	// пользователя на эту же дату.
	Override bool `json:"override,omitempty"`
}

// ConfirmedBooking представляет подтвержденную запись, занимающую слот
type ConfirmedBooking struct {
	BookingRequest
	BookingTime  string `json:"booking_time"`
	OriginalDate string `json:"original_date,omitempty"`
	ConfirmedAt  string `json:"confirmed_at,omitempty"`
}

// Time возвращает время прыжка, "10:00" если не задано
func (b ConfirmedBooking) Time() string {
	if b.BookingTime == "" {
		return DefaultBookingTime
	}
	return b.BookingTime
}

// DatedBooking связывает запись с датой, под которой она хранится
type DatedBooking struct {
	Date    string
	Booking ConfirmedBooking
}

// DatedRequest связывает заявку с датой, под которой она хранится
type DatedRequest struct {
	Date    string
	Request BookingRequest
}

// FormatDate форматирует календарную дату
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate разбирает дату YYYY-MM-DD в полночь UTC
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// CivilDate отбрасывает время суток, сохраняя календарную дату в UTC
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Weekday возвращает день недели с понедельника (0) по воскресенье (6)
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Document - единственный сохраняемый документ бота
type Document struct {
	Settings          Settings                      `json:"settings"`
	PendingBookings   map[string][]BookingRequest   `json:"pending_bookings"`
	ConfirmedBookings map[string][]ConfirmedBooking `json:"confirmed_bookings"`
}

// DefaultSettings возвращает настройки по умолчанию
func DefaultSettings() Settings {
	return Settings{
		MonthsAhead:  3,
		SlotsPerDay:  3,
		WorkingDays:  []int{5, 6},
		DaySlots:     map[int]int{5: 3, 6: 5},
		SpecificDays: map[string]int{},
	}
}

// SettingsOverrides содержит только заданные ключи настроек.
// nil означает, что ключ отсутствует и берется значение по умолчанию.
type SettingsOverrides struct {
	MonthsAhead  *int            `json:"months_ahead"`
	SlotsPerDay  *int            `json:"slots_per_day"`
	WorkingDays  *[]int          `json:"working_days"`
	DaySlots     *map[int]int    `json:"day_slots"`
	SpecificDays *map[string]int `json:"specific_days"`
}

// MergeSettings накладывает заданные ключи поверх значений по умолчанию.
// Существующие значения побеждают значения по умолчанию.
func MergeSettings(defaults Settings, o SettingsOverrides) Settings {
	merged := defaults.Clone()

	if o.MonthsAhead != nil {
		merged.MonthsAhead = *o.MonthsAhead
	}
	if o.SlotsPerDay != nil {
		merged.SlotsPerDay = *o.SlotsPerDay
	}
	if o.WorkingDays != nil {
		merged.WorkingDays = append([]int{}, (*o.WorkingDays)...)
	}
	if o.DaySlots != nil {
		merged.DaySlots = copyIntMap(*o.DaySlots)
	}
	if o.SpecificDays != nil {
		merged.SpecificDays = copyStringMap(*o.SpecificDays)
	}

	merged.normalize()
	return merged
}

// NewDocument создает пустой документ с указанными настройками
func NewDocument(settings Settings) *Document {
	s := settings.Clone()
	s.normalize()
	return &Document{
		Settings:          s,
		PendingBookings:   map[string][]BookingRequest{},
		ConfirmedBookings: map[string][]ConfirmedBooking{},
	}
}

// Decode разбирает сохраненный документ и дополняет настройки значениями по умолчанию
func Decode(data []byte, defaults Settings) (*Document, error) {
	var raw struct {
		Settings          *SettingsOverrides            `json:"settings"`
		PendingBookings   map[string][]BookingRequest   `json:"pending_bookings"`
		ConfirmedBookings map[string][]ConfirmedBooking `json:"confirmed_bookings"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	doc := NewDocument(defaults)
	if raw.Settings != nil {
		doc.Settings = MergeSettings(defaults, *raw.Settings)
	}

	for date, list := range raw.PendingBookings {
		if len(list) > 0 {
			doc.PendingBookings[date] = list
		}
	}
	for date, list := range raw.ConfirmedBookings {
		if len(list) > 0 {
			doc.ConfirmedBookings[date] = list
		}
	}

	return doc, nil
}

// Encode сериализует документ целиком (отступ 2 пробела, без экранирования HTML)
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Clone возвращает глубокую копию настроек
func (s Settings) Clone() Settings {
	return Settings{
		MonthsAhead:  s.MonthsAhead,
		SlotsPerDay:  s.SlotsPerDay,
		WorkingDays:  append([]int{}, s.WorkingDays...),
		DaySlots:     copyIntMap(s.DaySlots),
		SpecificDays: copyStringMap(s.SpecificDays),
	}
}

// IsWorkingDay проверяет, входит ли день недели в рабочие дни
func (s Settings) IsWorkingDay(weekday int) bool {
	for _, d := range s.WorkingDays {
		if d == weekday {
			return true
		}
	}
	return false
}

func (s *Settings) normalize() {
	if s.WorkingDays == nil {
		s.WorkingDays = []int{}
	}
	if s.DaySlots == nil {
		s.DaySlots = map[int]int{}
	}
	if s.SpecificDays == nil {
		s.SpecificDays = map[string]int{}
	}
	sort.Ints(s.WorkingDays)
}

// Clone возвращает глубокую копию документа
func (d *Document) Clone() *Document {
	out := &Document{
		Settings:          d.Settings.Clone(),
		PendingBookings:   make(map[string][]BookingRequest, len(d.PendingBookings)),
		ConfirmedBookings: make(map[string][]ConfirmedBooking, len(d.ConfirmedBookings)),
	}
	for date, list := range d.PendingBookings {
		out.PendingBookings[date] = append([]BookingRequest(nil), list...)
	}
	for date, list := range d.ConfirmedBookings {
		out.ConfirmedBookings[date] = append([]ConfirmedBooking(nil), list...)
	}
	return out
}

// ConfirmedCount возвращает количество подтвержденных записей на дату
func (d *Document) ConfirmedCount(date string) int {
	return len(d.ConfirmedBookings[date])
}

// FindPending ищет заявку пользователя на дату
func (d *Document) FindPending(date string, userID int64) (BookingRequest, bool) {
	for _, b := range d.PendingBookings[date] {
		if b.UserID == userID {
			return b, true
		}
	}
	return BookingRequest{}, false
}

// FindConfirmed ищет подтвержденную запись пользователя на дату
func (d *Document) FindConfirmed(date string, userID int64) (ConfirmedBooking, bool) {
	for _, b := range d.ConfirmedBookings[date] {
		if b.UserID == userID {
			return b, true
		}
	}
	return ConfirmedBooking{}, false
}

// AddPending добавляет заявку в конец списка на дату
func (d *Document) AddPending(date string, req BookingRequest) {
	d.PendingBookings[date] = append(d.PendingBookings[date], req)
}

// AddConfirmed добавляет подтвержденную запись на дату
func (d *Document) AddConfirmed(date string, b ConfirmedBooking) {
	d.ConfirmedBookings[date] = append(d.ConfirmedBookings[date], b)
}

// RemovePending удаляет заявку пользователя; пустой ключ даты удаляется
func (d *Document) RemovePending(date string, userID int64) (BookingRequest, bool) {
	list := d.PendingBookings[date]
	for i, b := range list {
		if b.UserID != userID {
			continue
		}
		rest := append(append([]BookingRequest(nil), list[:i]...), list[i+1:]...)
		if len(rest) == 0 {
			delete(d.PendingBookings, date)
		} else {
			d.PendingBookings[date] = rest
		}
		return b, true
	}
	return BookingRequest{}, false
}

// RemoveConfirmed удаляет подтвержденную запись пользователя; пустой ключ даты удаляется
func (d *Document) RemoveConfirmed(date string, userID int64) (ConfirmedBooking, bool) {
	list := d.ConfirmedBookings[date]
	for i, b := range list {
		if b.UserID != userID {
			continue
		}
		rest := append(append([]ConfirmedBooking(nil), list[:i]...), list[i+1:]...)
		if len(rest) == 0 {
			delete(d.ConfirmedBookings, date)
		} else {
			d.ConfirmedBookings[date] = rest
		}
		return b, true
	}
	return ConfirmedBooking{}, false
}

// PendingTotal возвращает общее количество заявок
func (d *Document) PendingTotal() int {
	total := 0
	for _, list := range d.PendingBookings {
		total += len(list)
	}
	return total
}

// ConfirmedTotal возвращает общее количество подтвержденных записей
func (d *Document) ConfirmedTotal() int {
	total := 0
	for _, list := range d.ConfirmedBookings {
		total += len(list)
	}
	return total
}

// SortedDates возвращает ключи дат в хронологическом порядке
func SortedDates[T any](m map[string][]T) []string {
	dates := make([]string, 0, len(m))
	for date := range m {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

func copyIntMap(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStringMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

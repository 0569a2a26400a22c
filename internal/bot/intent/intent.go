// Package intent кодирует действия inline кнопок в callback data и обратно.
// Данные разбираются один раз на входе, дальше передаются типизированные значения.
package intent

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/validation"
	"telegram_jump_bot/pkg/errors"
)

// Telegram ограничивает callback data 64 байтами
const MaxCallbackDataLen = 64

const sep = ":"

// Purpose - для чего выбирается месяц или день
type Purpose byte

const (
	PurposeSchedule   Purpose = 's'
	PurposeBook       Purpose = 'b'
	PurposeReschedule Purpose = 'r'
	PurposeConfig     Purpose = 'c'
)

func (p Purpose) valid() bool {
	switch p {
	case PurposeSchedule, PurposeBook, PurposeReschedule, PurposeConfig:
		return true
	}
	return false
}

// Intent - действие, закодированное в кнопке
type Intent interface {
	encode() string
}

// BookDate - пользователь выбрал дату для записи
type BookDate struct {
	Date string
}

// Override - решение пользователя о замене существующей записи
type Override struct {
	Proceed bool
}

// Decide - администратор подтверждает или отклоняет заявку
type Decide struct {
	Date    string
	UserID  int64
	Approve bool
}

// Review - действие в меню подтверждения
type Review struct {
	Action ReviewAction
}

// ReviewAction - пункт меню подтверждения
type ReviewAction byte

const (
	ReviewConfirm    ReviewAction = 'c'
	ReviewChangeDate ReviewAction = 'd'
	ReviewSetTime    ReviewAction = 't'
)

// PickMonth - выбран месяц календаря
type PickMonth struct {
	Purpose Purpose
	Month   booking.YearMonth
}

// PickDay - выбран день календаря
type PickDay struct {
	Purpose Purpose
	Date    string
}

// Back - возврат к выбору месяца
type Back struct {
	Purpose Purpose
}

// CancelBooking - пользователь отменяет подтвержденную запись
type CancelBooking struct {
	Date string
}

// Noop - нажатие на неактивную ячейку календаря
type Noop struct{}

func (i BookDate) encode() string { return join("bk", i.Date) }

func (i Override) encode() string {
	if i.Proceed {
		return join("ov", "1")
	}
	return join("ov", "0")
}

func (i Decide) encode() string {
	action := "r"
	if i.Approve {
		action = "a"
	}
	return join("dc", action, i.Date, strconv.FormatInt(i.UserID, 10))
}

func (i Review) encode() string { return join("rv", string(i.Action)) }

func (i PickMonth) encode() string {
	return join("mo", string(i.Purpose), strconv.Itoa(i.Month.Year), strconv.Itoa(int(i.Month.Month)))
}

func (i PickDay) encode() string { return join("dy", string(i.Purpose), i.Date) }

func (i Back) encode() string { return join("bb", string(i.Purpose)) }

func (i CancelBooking) encode() string { return join("cx", i.Date) }

func (Noop) encode() string { return "no" }

// Encode возвращает callback data для кнопки
func Encode(i Intent) string {
	return i.encode()
}

// Parse разбирает callback data
func Parse(data string) (Intent, error) {
	if data == "" || len(data) > MaxCallbackDataLen {
		return nil, invalid(data, "пустые или слишком длинные данные")
	}

	parts := strings.Split(data, sep)
	switch parts[0] {
	case "no":
		if len(parts) != 1 {
			return nil, invalid(data, "лишние поля")
		}
		return Noop{}, nil

	case "bk":
		if len(parts) != 2 {
			return nil, invalid(data, "ожидается дата")
		}
		if _, err := validation.ValidateDate(parts[1]); err != nil {
			return nil, err
		}
		return BookDate{Date: parts[1]}, nil

	case "ov":
		if len(parts) != 2 || (parts[1] != "0" && parts[1] != "1") {
			return nil, invalid(data, "ожидается 0 или 1")
		}
		return Override{Proceed: parts[1] == "1"}, nil

	case "dc":
		if len(parts) != 4 || (parts[1] != "a" && parts[1] != "r") {
			return nil, invalid(data, "ожидается действие, дата и пользователь")
		}
		if _, err := validation.ValidateDate(parts[2]); err != nil {
			return nil, err
		}
		userID, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return nil, invalid(data, "некорректный идентификатор пользователя")
		}
		return Decide{Date: parts[2], UserID: userID, Approve: parts[1] == "a"}, nil

	case "rv":
		if len(parts) != 2 || len(parts[1]) != 1 {
			return nil, invalid(data, "ожидается действие")
		}
		action := ReviewAction(parts[1][0])
		switch action {
		case ReviewConfirm, ReviewChangeDate, ReviewSetTime:
			return Review{Action: action}, nil
		}
		return nil, invalid(data, "неизвестное действие")

	case "mo":
		if len(parts) != 4 {
			return nil, invalid(data, "ожидается назначение, год и месяц")
		}
		purpose, err := parsePurpose(data, parts[1])
		if err != nil {
			return nil, err
		}
		year, err := strconv.Atoi(parts[2])
		if err != nil || year < 2000 || year > 9999 {
			return nil, invalid(data, "некорректный год")
		}
		month, err := strconv.Atoi(parts[3])
		if err != nil || month < 1 || month > 12 {
			return nil, invalid(data, "некорректный месяц")
		}
		return PickMonth{Purpose: purpose, Month: booking.YearMonth{Year: year, Month: time.Month(month)}}, nil

	case "dy":
		if len(parts) != 3 {
			return nil, invalid(data, "ожидается назначение и дата")
		}
		purpose, err := parsePurpose(data, parts[1])
		if err != nil {
			return nil, err
		}
		if _, err := validation.ValidateDate(parts[2]); err != nil {
			return nil, err
		}
		return PickDay{Purpose: purpose, Date: parts[2]}, nil

	case "bb":
		if len(parts) != 2 {
			return nil, invalid(data, "ожидается назначение")
		}
		purpose, err := parsePurpose(data, parts[1])
		if err != nil {
			return nil, err
		}
		return Back{Purpose: purpose}, nil

	case "cx":
		if len(parts) != 2 {
			return nil, invalid(data, "ожидается дата")
		}
		if _, err := validation.ValidateDate(parts[1]); err != nil {
			return nil, err
		}
		return CancelBooking{Date: parts[1]}, nil
	}

	return nil, invalid(data, "неизвестное действие")
}

func parsePurpose(data, s string) (Purpose, error) {
	if len(s) != 1 || !Purpose(s[0]).valid() {
		return 0, invalid(data, "неизвестное назначение")
	}
	return Purpose(s[0]), nil
}

func join(parts ...string) string {
	return strings.Join(parts, sep)
}

func invalid(data, reason string) error {
	return errors.ErrValidation.WithMessage(fmt.Sprintf("некорректные данные кнопки: %s", reason)).WithContext(map[string]interface{}{
		"data": data,
	})
}

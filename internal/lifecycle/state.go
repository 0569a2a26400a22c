package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/storage/models"
)

// State - состояние диалога
type State int

const (
	StateIdle State = iota

	// Запись пользователя
	StateCheckingExisting
	StateCollectingFirstName
	StateCollectingLastName
	StateCollectingAge
	StateCollectingWeight
	StateCollectingPhone
	StateAwaitingModeration
	StateOverrideCancelled

	// Рассмотрение заявки администратором
	StateAdminReviewing
	StateAdminRescheduling
	StateAdminSettingTime
	StateConfirmed
	StateRejected

	// Настройка слотов конкретного дня
	StateConfigPickingMonth
	StateConfigPickingDay
	StateConfigEnteringSlots
	StateConfigDone
)

var stateNames = map[State]string{
	StateIdle:                "idle",
	StateCheckingExisting:    "checking_existing",
	StateCollectingFirstName: "collecting_first_name",
	StateCollectingLastName:  "collecting_last_name",
	StateCollectingAge:       "collecting_age",
	StateCollectingWeight:    "collecting_weight",
	StateCollectingPhone:     "collecting_phone",
	StateAwaitingModeration:  "awaiting_moderation",
	StateOverrideCancelled:   "override_cancelled",
	StateAdminReviewing:      "admin_reviewing",
	StateAdminRescheduling:   "admin_rescheduling",
	StateAdminSettingTime:    "admin_setting_time",
	StateConfirmed:           "confirmed",
	StateRejected:            "rejected",
	StateConfigPickingMonth:  "config_picking_month",
	StateConfigPickingDay:    "config_picking_day",
	StateConfigEnteringSlots: "config_entering_slots",
	StateConfigDone:          "config_done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal проверяет, завершает ли состояние диалог
func (s State) IsTerminal() bool {
	switch s {
	case StateIdle, StateAwaitingModeration, StateOverrideCancelled,
		StateConfirmed, StateRejected, StateConfigDone:
		return true
	}
	return false
}

// AcceptsText проверяет, ожидает ли состояние текстового ввода
func (s State) AcceptsText() bool {
	switch s {
	case StateCollectingFirstName, StateCollectingLastName, StateCollectingAge,
		StateCollectingWeight, StateCollectingPhone, StateAdminSettingTime,
		StateConfigEnteringSlots:
		return true
	}
	return false
}

// Kind - тип диалога
type Kind int

const (
	KindBooking Kind = iota
	KindReview
	KindConfig
)

// BookingFlow - данные диалога записи. Собранные поля сохраняются при ошибках ввода.
type BookingFlow struct {
	Date      string
	Applicant models.Applicant
	Existing  *models.ConfirmedBooking
}

// ReviewFlow - данные рассмотрения заявки. StagedDate и StagedTime применяются
// при окончательном подтверждении.
type ReviewFlow struct {
	Date        string
	RequesterID int64
	Request     models.BookingRequest
	StagedDate  string
	StagedTime  string
	PickedMonth *booking.YearMonth
}

// EffectiveTime возвращает выбранное время или defaultTime
func (r ReviewFlow) EffectiveTime(defaultTime string) string {
	if r.StagedTime == "" {
		return defaultTime
	}
	return r.StagedTime
}

// ConfigFlow - данные настройки слотов дня
type ConfigFlow struct {
	Month     *booking.YearMonth
	Date      string
	Confirmed int
}

// Conversation - диалог пользователя, живет только в памяти
type Conversation struct {
	ID        uuid.UUID
	UserID    int64
	Kind      Kind
	State     State
	Booking   *BookingFlow
	Review    *ReviewFlow
	Config    *ConfigFlow
	StartedAt time.Time
	UpdatedAt time.Time
}

// snapshot возвращает копию диалога для передачи наружу
func (c *Conversation) snapshot() Conversation {
	out := *c
	if c.Booking != nil {
		b := *c.Booking
		out.Booking = &b
	}
	if c.Review != nil {
		r := *c.Review
		out.Review = &r
	}
	if c.Config != nil {
		cf := *c.Config
		out.Config = &cf
	}
	return out
}

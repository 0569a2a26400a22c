package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/internal/validation"
	"telegram_jump_bot/pkg/errors"
	"telegram_jump_bot/pkg/logger"
	"telegram_jump_bot/pkg/metrics"
)

// Notifier доставляет уведомления другой стороне (пользователю или администратору)
type Notifier interface {
	NotifyAdminNewRequest(ctx context.Context, date string, req models.BookingRequest) error
	NotifyDecision(ctx context.Context, userID int64, out booking.Outcome) error
	NotifyAdminCancellation(ctx context.Context, date string, b models.ConfirmedBooking) error
}

// Reminders планирует напоминания о подтвержденных записях
type Reminders interface {
	Plan(date string, b models.ConfirmedBooking)
	Cancel(date string, userID int64)
}

// ErrDateUnavailable возвращается при выборе даты без свободных мест
var ErrDateUnavailable = errors.ErrValidation.WithMessage("дата недоступна для бронирования")

// ErrNoConversation возвращается, когда у пользователя нет подходящего диалога
var ErrNoConversation = errors.ErrNotFound.WithMessage("нет активного диалога")

// Step - результат шага диалога для отображения транспортом
type Step struct {
	Conversation Conversation
	State        State
	Request      *models.BookingRequest
	Outcome      *booking.Outcome
}

// ReviewAction - действие администратора в меню подтверждения
type ReviewAction int

const (
	ReviewConfirm ReviewAction = iota
	ReviewChangeDate
	ReviewSetTime
)

// CapacityTarget определяет, какое количество слотов меняется
type CapacityTarget struct {
	// Date - конкретная дата YYYY-MM-DD
	Date string
	// Weekday - день недели, если Date пустая; nil вместе с пустой Date означает slots_per_day
	Weekday *int
}

// Engine проводит заявки через жизненный цикл и проверяет права администратора
type Engine struct {
	store     *booking.Store
	registry  *Registry
	notifier  Notifier
	reminders Reminders
	adminID   int64
	logger    *logger.Logger
}

// EngineOption настраивает Engine
type EngineOption func(*Engine)

// WithReminders подключает планировщик напоминаний
func WithReminders(r Reminders) EngineOption {
	return func(e *Engine) {
		e.reminders = r
	}
}

// NewEngine создает движок жизненного цикла
func NewEngine(store *booking.Store, registry *Registry, notifier Notifier, adminID int64, log *logger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		registry: registry,
		notifier: notifier,
		adminID:  adminID,
		logger:   log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AdminID возвращает идентификатор администратора
func (e *Engine) AdminID() int64 {
	return e.adminID
}

// IsAdmin проверяет, является ли пользователь администратором
func (e *Engine) IsAdmin(userID int64) bool {
	return userID == e.adminID
}

// Store возвращает хранилище записей
func (e *Engine) Store() *booking.Store {
	return e.store
}

// Active возвращает активный диалог пользователя
func (e *Engine) Active(userID int64) (Conversation, bool) {
	return e.registry.Active(userID)
}

// Abort прерывает активный диалог пользователя без изменений в документе
func (e *Engine) Abort(userID int64) bool {
	aborted := e.registry.Finish(userID)
	e.publishConversations()
	return aborted
}

// ListAvailability возвращает открытые даты на горизонте планирования
func (e *Engine) ListAvailability(mode booking.Mode) []booking.DayAvailability {
	doc := e.store.Snapshot()
	today := e.store.Today()
	start := booking.MonthOf(today).First()
	return booking.ListOpenDates(doc, start, doc.Settings.MonthsAhead, mode, today)
}

// MonthAvailability возвращает открытые даты одного месяца
func (e *Engine) MonthAvailability(ym booking.YearMonth, mode booking.Mode) []booking.DayAvailability {
	return booking.ListMonth(e.store.Snapshot(), ym, mode, e.store.Today())
}

// HorizonMonths возвращает месяцы горизонта планирования
func (e *Engine) HorizonMonths() []booking.YearMonth {
	return booking.HorizonMonths(e.store.Today(), e.store.Settings().MonthsAhead)
}

// MonthsWithAvailability возвращает месяцы с индивидуально настроенными днями
func (e *Engine) MonthsWithAvailability() []booking.YearMonth {
	return booking.ListMonthsWithAvailability(e.store.Snapshot(), e.store.Today())
}

// MonthView возвращает сетку месяца
func (e *Engine) MonthView(ym booking.YearMonth, mode booking.Mode) [][]booking.DayCell {
	return booking.MonthView(e.store.Snapshot(), ym, mode, e.store.Today())
}

// StartBooking начинает диалог записи на дату. Если у пользователя уже есть
// подтвержденная запись на эту дату, диалог ждет решения о замене.
func (e *Engine) StartBooking(ctx context.Context, userID int64, date string) (Step, error) {
	d, err := validation.ValidateFutureDate(date, e.store.Today())
	if err != nil {
		return Step{}, err
	}

	doc := e.store.Snapshot()
	if !booking.Eligible(doc.Settings, d, booking.ModeWeekday) && !booking.Eligible(doc.Settings, d, booking.ModeSpecificDays) {
		return Step{}, ErrDateUnavailable
	}
	// Замена своей записи не меняет число подтвержденных
	existing, hasConfirmed := doc.FindConfirmed(date, userID)
	if !hasConfirmed && !booking.IsOpen(doc, d) {
		return Step{}, ErrDateUnavailable
	}
	if _, pending := doc.FindPending(date, userID); pending {
		return Step{}, errors.ErrAlreadyPending.WithContext(map[string]interface{}{
			"date": date,
		})
	}

	flow := &BookingFlow{Date: date}
	state := StateCollectingFirstName
	if hasConfirmed {
		flow.Existing = &existing
		state = StateCheckingExisting
	}

	c := e.registry.Start(userID, KindBooking, state)
	conv, _ := e.registry.Update(userID, func(c *Conversation) {
		c.Booking = flow
	})
	e.publishConversations()

	e.logger.Debug("Booking conversation started",
		logger.Int64("user_id", userID),
		logger.String("date", date),
		logger.String("conversation_id", c.ID.String()),
		logger.String("state", state.String()),
	)

	return Step{Conversation: conv, State: conv.State}, nil
}

// ResolveOverride продолжает запись с заменой существующей или отменяет ее
func (e *Engine) ResolveOverride(ctx context.Context, userID int64, proceed bool) (Step, error) {
	conv, ok := e.registry.Active(userID)
	if !ok || conv.Kind != KindBooking || conv.State != StateCheckingExisting {
		return Step{}, ErrNoConversation
	}

	next := StateOverrideCancelled
	if proceed {
		next = StateCollectingFirstName
	}

	updated, ok := e.advance(userID, conv.ID, func(c *Conversation) {
		c.State = next
	})
	if !ok {
		return Step{}, ErrNoConversation
	}

	return Step{Conversation: updated, State: updated.State}, nil
}

// HandleText обрабатывает текстовый ввод в активном диалоге.
// При ошибке валидации состояние и собранные поля не меняются.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) (Step, error) {
	conv, ok := e.registry.Active(userID)
	if !ok || !conv.State.AcceptsText() {
		return Step{}, ErrNoConversation
	}

	switch conv.Kind {
	case KindBooking:
		return e.handleBookingText(ctx, conv, text)
	case KindReview:
		return e.handleReviewText(ctx, conv, text)
	case KindConfig:
		return e.handleConfigText(ctx, conv, text)
	}
	return Step{}, ErrNoConversation
}

func (e *Engine) handleBookingText(ctx context.Context, conv Conversation, text string) (Step, error) {
	flow := *conv.Booking
	var next State

	switch conv.State {
	case StateCollectingFirstName:
		name, err := validation.ValidateName(text)
		if err != nil {
			return Step{Conversation: conv, State: conv.State}, err
		}
		flow.Applicant.FirstName = name
		next = StateCollectingLastName

	case StateCollectingLastName:
		name, err := validation.ValidateName(text)
		if err != nil {
			return Step{Conversation: conv, State: conv.State}, err
		}
		flow.Applicant.LastName = name
		next = StateCollectingAge

	case StateCollectingAge:
		age, err := validation.ParseAge(text)
		if err != nil {
			return Step{Conversation: conv, State: conv.State}, err
		}
		flow.Applicant.Age = age
		next = StateCollectingWeight

	case StateCollectingWeight:
		weight, err := validation.ParseWeight(text)
		if err != nil {
			return Step{Conversation: conv, State: conv.State}, err
		}
		flow.Applicant.Weight = weight
		next = StateCollectingPhone

	case StateCollectingPhone:
		phone := normalizePhone(text)
		if err := validation.ValidatePhoneNumber(phone); err != nil {
			return Step{Conversation: conv, State: conv.State}, err
		}
		flow.Applicant.Phone = phone
		return e.submit(ctx, conv, flow)

	default:
		return Step{}, ErrNoConversation
	}

	updated, ok := e.advance(conv.UserID, conv.ID, func(c *Conversation) {
		c.Booking = &flow
		c.State = next
	})
	if !ok {
		return Step{}, ErrNoConversation
	}
	return Step{Conversation: updated, State: updated.State}, nil
}

// HandleContact принимает телефон из контакта Telegram на шаге ввода телефона
func (e *Engine) HandleContact(ctx context.Context, userID int64, phone string) (Step, error) {
	conv, ok := e.registry.Active(userID)
	if !ok || conv.Kind != KindBooking || conv.State != StateCollectingPhone {
		return Step{}, ErrNoConversation
	}
	return e.handleBookingText(ctx, conv, phone)
}

func (e *Engine) submit(ctx context.Context, conv Conversation, flow BookingFlow) (Step, error) {
	req, err := e.SubmitBooking(ctx, flow.Date, conv.UserID, flow.Applicant)
	if err != nil {
		if errors.HasCode(err, errors.CodeAlreadyPending) {
			e.registry.Finish(conv.UserID)
			e.publishConversations()
		}
		return Step{Conversation: conv, State: conv.State}, err
	}

	updated, _ := e.advance(conv.UserID, conv.ID, func(c *Conversation) {
		c.Booking = &flow
		c.State = StateAwaitingModeration
	})
	updated.State = StateAwaitingModeration

	return Step{Conversation: updated, State: StateAwaitingModeration, Request: &req}, nil
}

// SubmitBooking сохраняет заявку и уведомляет администратора
func (e *Engine) SubmitBooking(ctx context.Context, date string, userID int64, applicant models.Applicant) (models.BookingRequest, error) {
	req, err := e.store.Submit(ctx, date, userID, applicant)
	if err != nil {
		return models.BookingRequest{}, err
	}

	metrics.RecordSubmission()
	if err := e.notifier.NotifyAdminNewRequest(ctx, date, req); err != nil {
		e.logger.Error("Failed to notify admin about new request",
			logger.String("date", date),
			logger.Int64("user_id", userID),
			logger.Error(err),
		)
	}

	return req, nil
}

// BeginReview открывает заявку для администратора. Отклонение выполняется
// сразу и уведомляет пользователя, подтверждение открывает меню действий.
func (e *Engine) BeginReview(ctx context.Context, adminID int64, date string, requesterID int64, approve bool) (Step, error) {
	if err := e.authorize(adminID); err != nil {
		return Step{}, err
	}

	req, ok := e.store.FindPending(date, requesterID)
	if !ok {
		return Step{}, errors.ErrPendingNotFound.WithContext(map[string]interface{}{
			"date":    date,
			"user_id": requesterID,
		})
	}

	if !approve {
		// Закрываем только диалог по этой же заявке
		if conv, ok := e.registry.Active(adminID); ok && conv.Kind == KindReview && conv.Review != nil &&
			conv.Review.Date == date && conv.Review.RequesterID == requesterID {
			e.registry.Finish(adminID)
		}
		out, err := e.AdminDecision(ctx, adminID, booking.Decision{Date: date, UserID: requesterID})
		if err != nil {
			return Step{}, err
		}
		return Step{State: StateRejected, Outcome: &out}, nil
	}

	e.registry.Start(adminID, KindReview, StateAdminReviewing)
	conv, _ := e.registry.Update(adminID, func(c *Conversation) {
		c.Review = &ReviewFlow{
			Date:        date,
			RequesterID: requesterID,
			Request:     req,
			StagedDate:  date,
		}
	})
	e.publishConversations()

	return Step{Conversation: conv, State: conv.State, Request: &req}, nil
}

// Review выполняет действие из меню подтверждения
func (e *Engine) Review(ctx context.Context, adminID int64, action ReviewAction) (Step, error) {
	if err := e.authorize(adminID); err != nil {
		return Step{}, err
	}

	conv, ok := e.registry.Active(adminID)
	if !ok || conv.Kind != KindReview || conv.State != StateAdminReviewing {
		return Step{}, ErrNoConversation
	}

	switch action {
	case ReviewChangeDate:
		updated, ok := e.advance(adminID, conv.ID, func(c *Conversation) {
			c.State = StateAdminRescheduling
			c.Review.PickedMonth = nil
		})
		if !ok {
			return Step{}, ErrNoConversation
		}
		return Step{Conversation: updated, State: updated.State}, nil

	case ReviewSetTime:
		updated, ok := e.advance(adminID, conv.ID, func(c *Conversation) {
			c.State = StateAdminSettingTime
		})
		if !ok {
			return Step{}, ErrNoConversation
		}
		return Step{Conversation: updated, State: updated.State}, nil

	case ReviewConfirm:
		flow := conv.Review
		decision := booking.Decision{
			Date:    flow.Date,
			UserID:  flow.RequesterID,
			Approve: true,
			Time:    flow.StagedTime,
		}
		if flow.StagedDate != flow.Date {
			decision.RescheduleTo = flow.StagedDate
		}

		out, err := e.AdminDecision(ctx, adminID, decision)
		if err != nil {
			if errors.HasCode(err, errors.CodeNotFound) {
				e.registry.Finish(adminID)
				e.publishConversations()
			}
			return Step{Conversation: conv, State: conv.State}, err
		}

		updated, _ := e.advance(adminID, conv.ID, func(c *Conversation) {
			c.State = StateConfirmed
		})
		updated.State = StateConfirmed
		return Step{Conversation: updated, State: StateConfirmed, Outcome: &out}, nil
	}

	return Step{}, ErrNoConversation
}

// PickRescheduleMonth запоминает месяц при выборе новой даты
func (e *Engine) PickRescheduleMonth(ctx context.Context, adminID int64, ym booking.YearMonth) (Step, error) {
	if err := e.authorize(adminID); err != nil {
		return Step{}, err
	}

	conv, ok := e.registry.Active(adminID)
	if !ok || conv.Kind != KindReview || conv.State != StateAdminRescheduling {
		return Step{}, ErrNoConversation
	}

	updated, ok := e.advance(adminID, conv.ID, func(c *Conversation) {
		c.Review.PickedMonth = &ym
	})
	if !ok {
		return Step{}, ErrNoConversation
	}
	return Step{Conversation: updated, State: updated.State}, nil
}

// PickRescheduleDate фиксирует новую дату и возвращает к меню подтверждения.
// Ранее выбранное время сохраняется.
func (e *Engine) PickRescheduleDate(ctx context.Context, adminID int64, date string) (Step, error) {
	if err := e.authorize(adminID); err != nil {
		return Step{}, err
	}

	conv, ok := e.registry.Active(adminID)
	if !ok || conv.Kind != KindReview || conv.State != StateAdminRescheduling {
		return Step{}, ErrNoConversation
	}

	d, err := validation.ValidateFutureDate(date, e.store.Today())
	if err != nil {
		return Step{Conversation: conv, State: conv.State}, err
	}
	doc := e.store.Snapshot()
	if !booking.IsOpen(doc, d) {
		return Step{Conversation: conv, State: conv.State}, ErrDateUnavailable
	}

	updated, ok := e.advance(adminID, conv.ID, func(c *Conversation) {
		c.Review.StagedDate = date
		c.State = StateAdminReviewing
	})
	if !ok {
		return Step{}, ErrNoConversation
	}
	return Step{Conversation: updated, State: updated.State}, nil
}

func (e *Engine) handleReviewText(ctx context.Context, conv Conversation, text string) (Step, error) {
	if conv.State != StateAdminSettingTime {
		return Step{}, ErrNoConversation
	}

	t, err := validation.ValidateTime(text)
	if err != nil {
		return Step{Conversation: conv, State: conv.State}, err
	}

	updated, ok := e.advance(conv.UserID, conv.ID, func(c *Conversation) {
		c.Review.StagedTime = t
		c.State = StateAdminReviewing
	})
	if !ok {
		return Step{}, ErrNoConversation
	}
	return Step{Conversation: updated, State: updated.State}, nil
}

// AdminDecision применяет решение администратора и уведомляет пользователя
func (e *Engine) AdminDecision(ctx context.Context, adminID int64, d booking.Decision) (booking.Outcome, error) {
	if err := e.authorize(adminID); err != nil {
		return booking.Outcome{}, err
	}

	out, err := e.store.Decide(ctx, d)
	if err != nil {
		return out, err
	}

	switch {
	case !out.Approved:
		metrics.RecordDecision("rejected")
	case out.EffectiveDate != out.Date:
		metrics.RecordDecision("rescheduled")
	default:
		metrics.RecordDecision("approved")
	}
	if out.Replaced {
		metrics.RecordOverride()
	}

	if out.Approved && e.reminders != nil {
		if out.Request.Override && out.EffectiveDate != out.Date {
			e.reminders.Cancel(out.Date, d.UserID)
		}
		if b, ok := e.store.FindConfirmed(out.EffectiveDate, d.UserID); ok {
			e.reminders.Plan(out.EffectiveDate, b)
		}
	}

	if err := e.notifier.NotifyDecision(ctx, d.UserID, out); err != nil {
		e.logger.Error("Failed to notify user about decision",
			logger.Int64("user_id", d.UserID),
			logger.Bool("approved", out.Approved),
			logger.Error(err),
		)
	}

	return out, nil
}

// CancelBooking отменяет подтвержденную запись пользователя и уведомляет администратора
func (e *Engine) CancelBooking(ctx context.Context, userID int64, date string) (models.ConfirmedBooking, error) {
	cancelled, err := e.store.CancelConfirmed(ctx, date, userID)
	if err != nil {
		return models.ConfirmedBooking{}, err
	}

	metrics.RecordCancellation()
	if e.reminders != nil {
		e.reminders.Cancel(date, userID)
	}

	if err := e.notifier.NotifyAdminCancellation(ctx, date, cancelled); err != nil {
		e.logger.Error("Failed to notify admin about cancellation",
			logger.String("date", date),
			logger.Int64("user_id", userID),
			logger.Error(err),
		)
	}

	return cancelled, nil
}

// StartConfig начинает настройку слотов конкретного дня
func (e *Engine) StartConfig(ctx context.Context, adminID int64) (Step, error) {
	if err := e.authorize(adminID); err != nil {
		return Step{}, err
	}

	e.registry.Start(adminID, KindConfig, StateConfigPickingMonth)
	conv, _ := e.registry.Update(adminID, func(c *Conversation) {
		c.Config = &ConfigFlow{}
	})
	e.publishConversations()

	return Step{Conversation: conv, State: conv.State}, nil
}

// PickConfigMonth выбирает месяц для настройки
func (e *Engine) PickConfigMonth(ctx context.Context, adminID int64, ym booking.YearMonth) (Step, error) {
	if err := e.authorize(adminID); err != nil {
		return Step{}, err
	}

	conv, ok := e.registry.Active(adminID)
	if !ok || conv.Kind != KindConfig || (conv.State != StateConfigPickingMonth && conv.State != StateConfigPickingDay) {
		return Step{}, ErrNoConversation
	}

	updated, ok := e.advance(adminID, conv.ID, func(c *Conversation) {
		c.Config.Month = &ym
		c.State = StateConfigPickingDay
	})
	if !ok {
		return Step{}, ErrNoConversation
	}
	return Step{Conversation: updated, State: updated.State}, nil
}

// BackToConfigMonths возвращает к выбору месяца
func (e *Engine) BackToConfigMonths(ctx context.Context, adminID int64) (Step, error) {
	if err := e.authorize(adminID); err != nil {
		return Step{}, err
	}

	conv, ok := e.registry.Active(adminID)
	if !ok || conv.Kind != KindConfig {
		return Step{}, ErrNoConversation
	}

	updated, ok := e.advance(adminID, conv.ID, func(c *Conversation) {
		c.Config.Month = nil
		c.State = StateConfigPickingMonth
	})
	if !ok {
		return Step{}, ErrNoConversation
	}
	return Step{Conversation: updated, State: updated.State}, nil
}

// PickConfigDay выбирает день и переходит к вводу количества слотов
func (e *Engine) PickConfigDay(ctx context.Context, adminID int64, date string) (Step, error) {
	if err := e.authorize(adminID); err != nil {
		return Step{}, err
	}

	conv, ok := e.registry.Active(adminID)
	if !ok || conv.Kind != KindConfig || conv.State != StateConfigPickingDay {
		return Step{}, ErrNoConversation
	}

	if _, err := validation.ValidateDate(date); err != nil {
		return Step{Conversation: conv, State: conv.State}, err
	}

	confirmed := e.store.Snapshot().ConfirmedCount(date)
	updated, ok := e.advance(adminID, conv.ID, func(c *Conversation) {
		c.Config.Date = date
		c.Config.Confirmed = confirmed
		c.State = StateConfigEnteringSlots
	})
	if !ok {
		return Step{}, ErrNoConversation
	}
	return Step{Conversation: updated, State: updated.State}, nil
}

func (e *Engine) handleConfigText(ctx context.Context, conv Conversation, text string) (Step, error) {
	if conv.State != StateConfigEnteringSlots {
		return Step{}, ErrNoConversation
	}

	slots, err := validation.ParseSlotCount(text)
	if err != nil {
		return Step{Conversation: conv, State: conv.State}, err
	}

	date := conv.Config.Date
	if err := e.SetCapacity(ctx, conv.UserID, CapacityTarget{Date: date}, slots); err != nil {
		return Step{Conversation: conv, State: conv.State}, err
	}

	updated, _ := e.advance(conv.UserID, conv.ID, func(c *Conversation) {
		c.State = StateConfigDone
	})
	updated.State = StateConfigDone
	return Step{Conversation: updated, State: StateConfigDone}, nil
}

// SetCapacity меняет количество слотов для даты, дня недели или по умолчанию
func (e *Engine) SetCapacity(ctx context.Context, adminID int64, target CapacityTarget, slots int) error {
	if err := e.authorize(adminID); err != nil {
		return err
	}

	var err error
	switch {
	case target.Date != "":
		err = e.store.SetSpecificDayCapacity(ctx, target.Date, slots)
	case target.Weekday != nil:
		err = e.store.SetWeekdayCapacity(ctx, *target.Weekday, slots)
	default:
		err = e.store.SetSlotsPerDay(ctx, slots)
	}
	if err != nil {
		return err
	}

	e.logger.Info("Capacity updated",
		logger.String("date", target.Date),
		logger.Any("weekday", target.Weekday),
		logger.Int("slots", slots),
	)
	return nil
}

// SetWorkingDays меняет рабочие дни недели
func (e *Engine) SetWorkingDays(ctx context.Context, adminID int64, days []int) error {
	if err := e.authorize(adminID); err != nil {
		return err
	}
	return e.store.SetWorkingDays(ctx, days)
}

// SetHorizon меняет горизонт планирования
func (e *Engine) SetHorizon(ctx context.Context, adminID int64, months int) error {
	if err := e.authorize(adminID); err != nil {
		return err
	}
	return e.store.SetHorizon(ctx, months)
}

// Bookings возвращает снимок документа для просмотра администратором
func (e *Engine) Bookings(adminID int64) (*models.Document, error) {
	if err := e.authorize(adminID); err != nil {
		return nil, err
	}
	return e.store.Snapshot(), nil
}

// ExpireConversations удаляет брошенные диалоги
func (e *Engine) ExpireConversations(ttl time.Duration) int {
	removed := e.registry.Expire(ttl)
	if removed > 0 {
		e.publishConversations()
	}
	return removed
}

func (e *Engine) authorize(userID int64) error {
	if userID != e.adminID {
		e.logger.Warn("Unauthorized admin action", logger.Int64("user_id", userID))
		metrics.RecordError("lifecycle", errors.CodeUnauthorized)
		return errors.ErrUnauthorized.WithContext(map[string]interface{}{
			"user_id": userID,
		})
	}
	return nil
}

// advance обновляет диалог, только если он все еще активен
func (e *Engine) advance(userID int64, id uuid.UUID, fn func(c *Conversation)) (Conversation, bool) {
	var matched bool
	conv, ok := e.registry.Update(userID, func(c *Conversation) {
		if c.ID != id {
			return
		}
		matched = true
		fn(c)
	})
	e.publishConversations()
	return conv, ok && matched
}

func (e *Engine) publishConversations() {
	metrics.SetActiveConversations(e.registry.Len())
}

func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
}

package booking

import (
	"context"
	stderrors "errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"telegram_jump_bot/internal/storage"
	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/internal/validation"
	"telegram_jump_bot/pkg/errors"
	"telegram_jump_bot/pkg/logger"
	"telegram_jump_bot/pkg/metrics"
)

// Store владеет документом бота. Все изменения выполняются под одним мьютексом
// на копии документа, которая становится текущей только после успешной записи.
type Store struct {
	mu          sync.RWMutex
	doc         *models.Document
	storage     storage.DocumentStorage
	defaults    models.Settings
	defaultTime string
	now         func() time.Time
	logger      *logger.Logger
}

// Option настраивает Store
type Option func(*Store)

// WithClock задает источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithDefaults задает настройки по умолчанию для нового или неполного документа
func WithDefaults(settings models.Settings) Option {
	return func(s *Store) {
		s.defaults = settings.Clone()
	}
}

// WithDefaultTime задает время прыжка, если администратор его не указал
func WithDefaultTime(t string) Option {
	return func(s *Store) {
		s.defaultTime = t
	}
}

// Open загружает документ из хранилища. Отсутствующий или поврежденный
// документ заменяется новым с настройками по умолчанию и сразу записывается.
func Open(ctx context.Context, st storage.DocumentStorage, log *logger.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		storage:     st,
		defaults:    models.DefaultSettings(),
		defaultTime: models.DefaultBookingTime,
		now:         time.Now,
		logger:      log,
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := st.Read(ctx)
	switch {
	case err == nil:
		doc, decodeErr := models.Decode(data, s.defaults)
		if decodeErr == nil {
			s.doc = doc
			s.publishCounts()
			s.logger.Info("Document loaded",
				logger.Int("pending", doc.PendingTotal()),
				logger.Int("confirmed", doc.ConfirmedTotal()),
			)
			return s, nil
		}
		s.logger.Warn("Stored document is malformed, reinitializing", logger.Error(decodeErr))
	case stderrors.Is(err, storage.ErrDocumentNotFound):
		s.logger.Info("No stored document, initializing with defaults")
	default:
		return nil, errors.ErrPersistence.WithError(err)
	}

	doc := models.NewDocument(s.defaults)
	if err := s.flush(ctx, "init", doc); err != nil {
		return nil, err
	}
	s.doc = doc
	s.publishCounts()

	return s, nil
}

// Today возвращает текущую календарную дату
func (s *Store) Today() time.Time {
	return models.CivilDate(s.now())
}

// Now возвращает текущее время по часам хранилища
func (s *Store) Now() time.Time {
	return s.now()
}

// DefaultTime возвращает время прыжка по умолчанию
func (s *Store) DefaultTime() string {
	return s.defaultTime
}

// Snapshot возвращает копию документа только для чтения
func (s *Store) Snapshot() *models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Settings возвращает копию текущих настроек
func (s *Store) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Settings.Clone()
}

// Remaining возвращает количество свободных мест на дату
func (s *Store) Remaining(date time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Remaining(s.doc, date)
}

// FindPending ищет заявку пользователя на дату
func (s *Store) FindPending(date string, userID int64) (models.BookingRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.FindPending(date, userID)
}

// FindConfirmed ищет подтвержденную запись пользователя на дату
func (s *Store) FindConfirmed(date string, userID int64) (models.ConfirmedBooking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.FindConfirmed(date, userID)
}

// UserBookings возвращает подтвержденные записи пользователя начиная с сегодняшнего дня
func (s *Store) UserBookings(userID int64) []models.DatedBooking {
	today := models.FormatDate(s.Today())

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.DatedBooking
	for _, date := range models.SortedDates(s.doc.ConfirmedBookings) {
		if date < today {
			continue
		}
		for _, b := range s.doc.ConfirmedBookings[date] {
			if b.UserID == userID {
				result = append(result, models.DatedBooking{Date: date, Booking: b})
			}
		}
	}
	return result
}

// UserPending возвращает заявки пользователя, ожидающие решения
func (s *Store) UserPending(userID int64) []models.DatedRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.DatedRequest
	for _, date := range models.SortedDates(s.doc.PendingBookings) {
		for _, r := range s.doc.PendingBookings[date] {
			if r.UserID == userID {
				result = append(result, models.DatedRequest{Date: date, Request: r})
			}
		}
	}
	return result
}

// UpcomingConfirmed возвращает все подтвержденные записи начиная с сегодняшнего дня
func (s *Store) UpcomingConfirmed() []models.DatedBooking {
	today := models.FormatDate(s.Today())

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.DatedBooking
	for _, date := range models.SortedDates(s.doc.ConfirmedBookings) {
		if date < today {
			continue
		}
		for _, b := range s.doc.ConfirmedBookings[date] {
			result = append(result, models.DatedBooking{Date: date, Booking: b})
		}
	}
	return result
}

// Submit добавляет заявку в pending_bookings[date]. Заявка помечается как
// замена, если у пользователя уже есть подтвержденная запись на эту дату.
func (s *Store) Submit(ctx context.Context, date string, userID int64, applicant models.Applicant) (models.BookingRequest, error) {
	if _, err := validation.ValidateFutureDate(date, s.Today()); err != nil {
		return models.BookingRequest{}, err
	}
	if err := validation.ValidateApplicant(applicant); err != nil {
		return models.BookingRequest{}, err
	}

	var req models.BookingRequest
	err := s.mutate(ctx, "submit", func(doc *models.Document) error {
		if _, exists := doc.FindPending(date, userID); exists {
			return errors.ErrAlreadyPending.WithContext(map[string]interface{}{
				"date":    date,
				"user_id": userID,
			})
		}

		_, hasConfirmed := doc.FindConfirmed(date, userID)
		req = models.BookingRequest{
			UserID:    userID,
			Applicant: applicant,
			Timestamp: s.now().Format(time.RFC3339),
			Override:  hasConfirmed,
		}
		doc.AddPending(date, req)
		return nil
	})
	if err != nil {
		return models.BookingRequest{}, err
	}

	s.logger.Info("Booking request submitted",
		logger.String("date", date),
		logger.Int64("user_id", userID),
		logger.Bool("override", req.Override),
	)

	return req, nil
}

// Decision - решение администратора по заявке
type Decision struct {
	Date         string
	UserID       int64
	Approve      bool
	RescheduleTo string
	Time         string
}

// Outcome - результат решения администратора
type Outcome struct {
	Approved      bool
	Request       models.BookingRequest
	Date          string
	EffectiveDate string
	Time          string
	// Replaced - удалена прежняя подтвержденная запись пользователя
	Replaced bool
	// Oversold - после подтверждения подтвержденных записей больше, чем слотов
	Oversold bool
}

// Decide применяет решение администратора. Подтверждение не блокируется
// нехваткой мест, переполнение отмечается в Outcome.Oversold.
func (s *Store) Decide(ctx context.Context, d Decision) (Outcome, error) {
	out := Outcome{Approved: d.Approve, Date: d.Date}

	if _, err := validation.ValidateDate(d.Date); err != nil {
		return out, err
	}

	effective := d.Date
	if d.Approve && d.RescheduleTo != "" {
		if _, err := validation.ValidateDate(d.RescheduleTo); err != nil {
			return out, err
		}
		effective = d.RescheduleTo
	}

	bookingTime := s.defaultTime
	if d.Approve && d.Time != "" {
		normalized, err := validation.ValidateTime(d.Time)
		if err != nil {
			return out, err
		}
		bookingTime = normalized
	}

	err := s.mutate(ctx, "decide", func(doc *models.Document) error {
		req, ok := doc.RemovePending(d.Date, d.UserID)
		if !ok {
			return errors.ErrPendingNotFound.WithContext(map[string]interface{}{
				"date":    d.Date,
				"user_id": d.UserID,
			})
		}
		out.Request = req

		if !d.Approve {
			return nil
		}

		if req.Override {
			if _, removed := doc.RemoveConfirmed(d.Date, d.UserID); removed {
				out.Replaced = true
			}
		}
		if _, removed := doc.RemoveConfirmed(effective, d.UserID); removed {
			out.Replaced = true
		}

		confirmed := models.ConfirmedBooking{
			BookingRequest: req,
			BookingTime:    bookingTime,
			ConfirmedAt:    s.now().Format(time.RFC3339),
		}
		confirmed.Override = false
		if effective != d.Date {
			confirmed.OriginalDate = d.Date
		}
		doc.AddConfirmed(effective, confirmed)

		if date, err := models.ParseDate(effective); err == nil {
			out.Oversold = Remaining(doc, date) < 0
		}
		return nil
	})
	if err != nil {
		return out, err
	}

	if d.Approve {
		out.EffectiveDate = effective
		out.Time = bookingTime
	}

	s.logger.Info("Booking request decided",
		logger.String("date", d.Date),
		logger.Int64("user_id", d.UserID),
		logger.Bool("approved", d.Approve),
		logger.String("effective_date", out.EffectiveDate),
		logger.Bool("replaced", out.Replaced),
		logger.Bool("oversold", out.Oversold),
	)

	return out, nil
}

// CancelConfirmed удаляет подтвержденную запись пользователя на дату
func (s *Store) CancelConfirmed(ctx context.Context, date string, userID int64) (models.ConfirmedBooking, error) {
	var cancelled models.ConfirmedBooking
	err := s.mutate(ctx, "cancel", func(doc *models.Document) error {
		b, ok := doc.RemoveConfirmed(date, userID)
		if !ok {
			return errors.ErrBookingNotFound.WithContext(map[string]interface{}{
				"date":    date,
				"user_id": userID,
			})
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return models.ConfirmedBooking{}, err
	}

	s.logger.Info("Confirmed booking cancelled",
		logger.String("date", date),
		logger.Int64("user_id", userID),
	)

	return cancelled, nil
}

// OverrideConfirm удаляет подтвержденную запись пользователя на дату, если она есть.
// Возвращает true, если запись была удалена.
func (s *Store) OverrideConfirm(ctx context.Context, date string, userID int64) (bool, error) {
	s.mu.RLock()
	_, exists := s.doc.FindConfirmed(date, userID)
	s.mu.RUnlock()
	if !exists {
		return false, nil
	}

	removed := false
	err := s.mutate(ctx, "override", func(doc *models.Document) error {
		_, removed = doc.RemoveConfirmed(date, userID)
		return nil
	})
	if err != nil {
		return false, err
	}

	return removed, nil
}

// SetSpecificDayCapacity задает количество слотов на конкретную дату.
// Значение не может быть меньше числа подтвержденных записей на эту дату.
func (s *Store) SetSpecificDayCapacity(ctx context.Context, date string, slots int) error {
	if _, err := validation.ValidateDate(date); err != nil {
		return err
	}
	if err := validation.ValidateSlotCount(slots); err != nil {
		return err
	}

	return s.mutate(ctx, "set_specific_day", func(doc *models.Document) error {
		if confirmed := doc.ConfirmedCount(date); slots < confirmed {
			return capacityConflict(date, slots, confirmed)
		}
		doc.Settings.SpecificDays[date] = slots
		return nil
	})
}

// SetWeekdayCapacity задает количество слотов для дня недели. Проверяются
// будущие даты этого дня недели без индивидуальной настройки.
func (s *Store) SetWeekdayCapacity(ctx context.Context, weekday, slots int) error {
	if err := validation.ValidateWeekday(weekday); err != nil {
		return err
	}
	if err := validation.ValidateSlotCount(slots); err != nil {
		return err
	}

	today := s.Today()
	return s.mutate(ctx, "set_weekday", func(doc *models.Document) error {
		minAllowed := s.maxConfirmed(doc, today, func(date time.Time) bool {
			return models.Weekday(date) == weekday
		})
		if slots < minAllowed {
			return capacityConflict(weekdayTarget(weekday), slots, minAllowed)
		}
		doc.Settings.DaySlots[weekday] = slots
		return nil
	})
}

// SetSlotsPerDay задает количество слотов по умолчанию
func (s *Store) SetSlotsPerDay(ctx context.Context, slots int) error {
	if err := validation.ValidateSlotCount(slots); err != nil {
		return err
	}

	today := s.Today()
	return s.mutate(ctx, "set_slots_per_day", func(doc *models.Document) error {
		minAllowed := s.maxConfirmed(doc, today, func(date time.Time) bool {
			_, hasDaySlots := doc.Settings.DaySlots[models.Weekday(date)]
			return !hasDaySlots
		})
		if slots < minAllowed {
			return capacityConflict("slots_per_day", slots, minAllowed)
		}
		doc.Settings.SlotsPerDay = slots
		return nil
	})
}

// SetWorkingDays заменяет множество рабочих дней недели. День недели нельзя
// убрать, пока на его будущие даты без индивидуальной настройки есть
// подтвержденные записи.
func (s *Store) SetWorkingDays(ctx context.Context, days []int) error {
	seen := make(map[int]bool, len(days))
	normalized := make([]int, 0, len(days))
	for _, d := range days {
		if err := validation.ValidateWeekday(d); err != nil {
			return err
		}
		if !seen[d] {
			seen[d] = true
			normalized = append(normalized, d)
		}
	}
	sort.Ints(normalized)

	today := s.Today()
	return s.mutate(ctx, "set_working_days", func(doc *models.Document) error {
		for _, weekday := range doc.Settings.WorkingDays {
			if seen[weekday] {
				continue
			}
			confirmed := s.maxConfirmed(doc, today, func(date time.Time) bool {
				return models.Weekday(date) == weekday
			})
			if confirmed > 0 {
				return capacityConflict(WorkingDayTarget+strconv.Itoa(weekday), 0, confirmed)
			}
		}
		doc.Settings.WorkingDays = normalized
		return nil
	})
}

// SetHorizon задает количество месяцев, на которое строится расписание
func (s *Store) SetHorizon(ctx context.Context, months int) error {
	if err := validation.ValidateHorizon(months); err != nil {
		return err
	}

	return s.mutate(ctx, "set_horizon", func(doc *models.Document) error {
		doc.Settings.MonthsAhead = months
		return nil
	})
}

// maxConfirmed возвращает наибольшее число подтвержденных записей среди будущих
// рабочих дат без specific_days, удовлетворяющих match.
func (s *Store) maxConfirmed(doc *models.Document, today time.Time, match func(time.Time) bool) int {
	maxCount := 0
	for dateStr, list := range doc.ConfirmedBookings {
		date, err := models.ParseDate(dateStr)
		if err != nil || date.Before(today) {
			continue
		}
		if _, specific := doc.Settings.SpecificDays[dateStr]; specific {
			continue
		}
		if !doc.Settings.IsWorkingDay(models.Weekday(date)) || !match(date) {
			continue
		}
		if len(list) > maxCount {
			maxCount = len(list)
		}
	}
	return maxCount
}

// mutate выполняет изменение на копии документа и сохраняет ее.
// При ошибке записи текущий документ не меняется.
func (s *Store) mutate(ctx context.Context, op string, fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(next); err != nil {
		return err
	}

	if err := s.flush(ctx, op, next); err != nil {
		return err
	}

	s.doc = next
	s.publishCounts()
	return nil
}

func (s *Store) flush(ctx context.Context, op string, doc *models.Document) error {
	start := time.Now()

	data, err := models.Encode(doc)
	if err == nil {
		err = s.storage.Write(ctx, data)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordFlush(op, status, time.Since(start).Seconds())

	if err != nil {
		metrics.RecordError("store", errors.CodePersistence)
		s.logger.Error("Failed to flush document",
			logger.String("operation", op),
			logger.Error(err),
		)
		return errors.ErrPersistence.WithError(err).WithContext(map[string]interface{}{
			"operation": op,
		})
	}

	s.logger.Debug("Document flushed",
		logger.String("operation", op),
		logger.Int("bytes", len(data)),
	)
	return nil
}

func (s *Store) publishCounts() {
	metrics.SetBookingCounts(s.doc.PendingTotal(), s.doc.ConfirmedTotal())
}

func capacityConflict(target string, requested, minAllowed int) error {
	return errors.ErrCapacityConflict.WithContext(errors.CapacityConflict{
		Target:     target,
		Requested:  requested,
		MinAllowed: minAllowed,
	})
}

// WorkingDayTarget - префикс цели конфликта при удалении рабочего дня
const WorkingDayTarget = "working_day:"

func weekdayTarget(weekday int) string {
	return "weekday:" + strconv.Itoa(weekday)
}

package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"telegram_jump_bot/internal/scheduler"
	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/pkg/logger"
	"telegram_jump_bot/pkg/metrics"
)

// MemoryScheduler реализует планировщик напоминаний в памяти
type MemoryScheduler struct {
	timers   map[string]*time.Timer
	mu       sync.RWMutex
	sender   scheduler.ReminderSender
	lead     time.Duration
	location *time.Location
	now      func() time.Time
	logger   *logger.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	stopped  bool
	stopOnce sync.Once
}

// Option настраивает MemoryScheduler
type Option func(*MemoryScheduler)

// WithClock задает источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *MemoryScheduler) {
		s.now = now
	}
}

// WithLocation задает часовой пояс времени прыжка
func WithLocation(loc *time.Location) Option {
	return func(s *MemoryScheduler) {
		s.location = loc
	}
}

// NewMemoryScheduler создает новый планировщик в памяти.
// lead - за сколько до прыжка отправляется напоминание.
func NewMemoryScheduler(sender scheduler.ReminderSender, lead time.Duration, log *logger.Logger, opts ...Option) *MemoryScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &MemoryScheduler{
		timers:   make(map[string]*time.Timer),
		sender:   sender,
		lead:     lead,
		location: time.UTC,
		now:      time.Now,
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan планирует напоминание для записи. Прошедшие прыжки пропускаются,
// если время напоминания уже наступило, оно отправляется сразу.
func (s *MemoryScheduler) Plan(date string, booking models.ConfirmedBooking) {
	jumpAt, err := s.jumpTime(date, booking.Time())
	if err != nil {
		s.logger.Warn("Failed to parse jump time",
			logger.String("date", date),
			logger.String("time", booking.Time()),
			logger.Error(err),
		)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	key := reminderKey(date, booking.UserID)

	// Отменить существующий таймер если есть
	if timer, exists := s.timers[key]; exists {
		timer.Stop()
		delete(s.timers, key)
	}

	now := s.now()
	if !jumpAt.After(now) {
		s.publishLocked()
		return
	}

	delay := jumpAt.Add(-s.lead).Sub(now)
	if delay < 0 {
		delay = 0
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.handleReminder(key, timer, date, booking)
	})
	s.timers[key] = timer
	s.publishLocked()

	s.logger.Debug("Reminder planned",
		logger.String("date", date),
		logger.Int64("user_id", booking.UserID),
		logger.Duration("delay", delay),
	)
}

// Cancel отменяет запланированное напоминание
func (s *MemoryScheduler) Cancel(date string, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reminderKey(date, userID)
	if timer, exists := s.timers[key]; exists {
		timer.Stop()
		delete(s.timers, key)
	}
	s.publishLocked()
}

// ReschedulePending заменяет все таймеры напоминаниями по переданным записям
func (s *MemoryScheduler) ReschedulePending(ctx context.Context, bookings []models.DatedBooking) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is stopped")
	}
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
	s.mu.Unlock()

	for _, b := range bookings {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Plan(b.Date, b.Booking)
	}

	s.logger.Info("Reminders rescheduled", logger.Int("count", s.GetActiveTimersCount()))
	return nil
}

// Stop останавливает планировщик
func (s *MemoryScheduler) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.stopped = true

		// Остановить все таймеры
		for key, timer := range s.timers {
			timer.Stop()
			delete(s.timers, key)
		}
		s.publishLocked()

		// Отменить контекст
		s.cancel()
	})

	return nil
}

// handleReminder обрабатывает отправку напоминания
func (s *MemoryScheduler) handleReminder(key string, timer *time.Timer, date string, booking models.ConfirmedBooking) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	// Plan мог уже заменить таймер по этому ключу
	if s.timers[key] == timer {
		delete(s.timers, key)
		s.publishLocked()
	}
	s.mu.Unlock()

	if err := s.sender.SendReminder(s.ctx, date, booking); err != nil {
		s.logger.Error("Failed to send reminder",
			logger.String("date", date),
			logger.Int64("user_id", booking.UserID),
			logger.Error(err),
		)
	}
}

// GetActiveTimersCount возвращает количество активных таймеров
func (s *MemoryScheduler) GetActiveTimersCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.timers)
}

// Scheduled проверяет, запланировано ли напоминание
func (s *MemoryScheduler) Scheduled(date string, userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.timers[reminderKey(date, userID)]
	return ok
}

func (s *MemoryScheduler) jumpTime(date, clock string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout+" "+models.TimeLayout, date+" "+clock, s.location)
}

func (s *MemoryScheduler) publishLocked() {
	metrics.SetScheduledReminders(len(s.timers))
}

func reminderKey(date string, userID int64) string {
	return date + ":" + strconv.FormatInt(userID, 10)
}

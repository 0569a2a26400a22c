package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/pkg/logger"
)

type sentReminder struct {
	date   string
	userID int64
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentReminder
	ch   chan sentReminder
}

func newRecordingSender() *recordingSender {
	return &recordingSender{ch: make(chan sentReminder, 10)}
}

func (r *recordingSender) SendReminder(ctx context.Context, date string, b models.ConfirmedBooking) error {
	r.mu.Lock()
	r.sent = append(r.sent, sentReminder{date: date, userID: b.UserID})
	r.mu.Unlock()
	r.ch <- sentReminder{date: date, userID: b.UserID}
	return nil
}

func confirmed(userID int64, clock string) models.ConfirmedBooking {
	return models.ConfirmedBooking{
		BookingRequest: models.BookingRequest{UserID: userID},
		BookingTime:    clock,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPlanFutureReminder(t *testing.T) {
	sender := newRecordingSender()
	now := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryScheduler(sender, 24*time.Hour, logger.NewNop(), WithClock(fixedClock(now)))
	defer s.Stop()

	s.Plan("2025-07-05", confirmed(42, "10:00"))
	assert.True(t, s.Scheduled("2025-07-05", 42))
	assert.Equal(t, 1, s.GetActiveTimersCount())

	// повторное планирование заменяет таймер
	s.Plan("2025-07-05", confirmed(42, "12:00"))
	assert.Equal(t, 1, s.GetActiveTimersCount())

	s.Cancel("2025-07-05", 42)
	assert.False(t, s.Scheduled("2025-07-05", 42))
	assert.Equal(t, 0, s.GetActiveTimersCount())
}

func TestPlanDueReminderFiresImmediately(t *testing.T) {
	sender := newRecordingSender()
	// прыжок через 2 часа, напоминание за сутки уже должно было уйти
	now := time.Date(2025, time.July, 5, 8, 0, 0, 0, time.UTC)
	s := NewMemoryScheduler(sender, 24*time.Hour, logger.NewNop(), WithClock(fixedClock(now)))
	defer s.Stop()

	s.Plan("2025-07-05", confirmed(42, "10:00"))

	select {
	case got := <-sender.ch:
		assert.Equal(t, sentReminder{date: "2025-07-05", userID: 42}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("reminder was not sent")
	}

	assert.Eventually(t, func() bool { return s.GetActiveTimersCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestPlanSkipsPastJump(t *testing.T) {
	sender := newRecordingSender()
	now := time.Date(2025, time.July, 5, 11, 0, 0, 0, time.UTC)
	s := NewMemoryScheduler(sender, time.Hour, logger.NewNop(), WithClock(fixedClock(now)))
	defer s.Stop()

	s.Plan("2025-07-05", confirmed(42, "10:00"))
	assert.Equal(t, 0, s.GetActiveTimersCount())
}

func TestPlanRespectsLocation(t *testing.T) {
	sender := newRecordingSender()
	loc := time.FixedZone("MSK", 3*60*60)
	// 08:00 UTC = 11:00 MSK, прыжок в 10:00 MSK уже прошел
	now := time.Date(2025, time.July, 5, 8, 0, 0, 0, time.UTC)
	s := NewMemoryScheduler(sender, time.Hour, logger.NewNop(), WithClock(fixedClock(now)), WithLocation(loc))
	defer s.Stop()

	s.Plan("2025-07-05", confirmed(42, "10:00"))
	assert.Equal(t, 0, s.GetActiveTimersCount())
}

func TestReschedulePending(t *testing.T) {
	sender := newRecordingSender()
	now := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryScheduler(sender, time.Hour, logger.NewNop(), WithClock(fixedClock(now)))
	defer s.Stop()

	s.Plan("2025-07-12", confirmed(7, "10:00"))

	err := s.ReschedulePending(context.Background(), []models.DatedBooking{
		{Date: "2025-07-05", Booking: confirmed(1, "10:00")},
		{Date: "2025-07-06", Booking: confirmed(2, "")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, s.GetActiveTimersCount())
	assert.False(t, s.Scheduled("2025-07-12", 7))
	assert.True(t, s.Scheduled("2025-07-06", 2))
}

func TestStop(t *testing.T) {
	sender := newRecordingSender()
	now := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryScheduler(sender, time.Hour, logger.NewNop(), WithClock(fixedClock(now)))

	s.Plan("2025-07-05", confirmed(1, "10:00"))
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	assert.Equal(t, 0, s.GetActiveTimersCount())
	assert.Error(t, s.ReschedulePending(context.Background(), nil))

	s.Plan("2025-07-06", confirmed(1, "10:00"))
	assert.Equal(t, 0, s.GetActiveTimersCount())
}

func TestStaleTimerDoesNotDropReplacement(t *testing.T) {
	sender := newRecordingSender()
	now := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryScheduler(sender, 24*time.Hour, logger.NewNop(), WithClock(fixedClock(now)))
	defer s.Stop()

	s.Plan("2025-07-05", confirmed(42, "10:00"))

	// прежний таймер сработал уже после замены
	stale := time.NewTimer(time.Hour)
	stale.Stop()
	s.handleReminder(reminderKey("2025-07-05", 42), stale, "2025-07-05", confirmed(42, "09:00"))

	assert.True(t, s.Scheduled("2025-07-05", 42))
	assert.Equal(t, 1, s.GetActiveTimersCount())

	s.Cancel("2025-07-05", 42)
	assert.Equal(t, 0, s.GetActiveTimersCount())
}

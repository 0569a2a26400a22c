package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/internal/testutils"
	"telegram_jump_bot/pkg/errors"
)

var testNow = time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

func validApplicant() models.Applicant {
	return models.Applicant{
		FirstName: "Иван",
		LastName:  "Петров",
		Age:       30,
		Weight:    80,
		Phone:     "+79991234567",
	}
}

func openStore(t *testing.T, mem *testutils.MemoryStorage, opts ...Option) *Store {
	t.Helper()

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	s, err := Open(context.Background(), mem, testutils.SetupTestLogger(), opts...)
	require.NoError(t, err)
	return s
}

func newStore(t *testing.T) (*Store, *testutils.MemoryStorage) {
	t.Helper()

	mem := testutils.NewMemoryStorage(nil)
	return openStore(t, mem, WithDefaults(weekendSettings())), mem
}

func TestOpen_MissingDocumentWritesDefaults(t *testing.T) {
	mem := testutils.NewMemoryStorage(nil)
	s := openStore(t, mem)

	assert.Equal(t, 1, mem.Writes())
	assert.Equal(t, models.DefaultSettings(), s.Settings())

	doc, err := models.Decode(mem.Data(), models.Settings{})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), doc.Settings)
}

func TestOpen_MalformedDocumentIsReinitialized(t *testing.T) {
	mem := testutils.NewMemoryStorage([]byte(`{"settings": [`))
	s := openStore(t, mem)

	assert.Equal(t, 1, mem.Writes())
	assert.Empty(t, s.Snapshot().PendingBookings)
}

func TestOpen_ExistingDocumentKeepsValues(t *testing.T) {
	data := []byte(`{
		"settings": {"months_ahead": 5, "working_days": [0]},
		"pending_bookings": {},
		"confirmed_bookings": {"2025-07-07": [{"user_id": 9, "first_name": "Анна", "last_name": "К", "age": 25, "weight": 60, "phone": "+79990000000", "timestamp": "2025-06-01T10:00:00"}]}
	}`)
	mem := testutils.NewMemoryStorage(data)
	s := openStore(t, mem)

	assert.Equal(t, 0, mem.Writes())
	settings := s.Settings()
	assert.Equal(t, 5, settings.MonthsAhead)
	assert.Equal(t, []int{0}, settings.WorkingDays)
	assert.Equal(t, 3, settings.SlotsPerDay)

	b, ok := s.FindConfirmed("2025-07-07", 9)
	require.True(t, ok)
	assert.Equal(t, models.DefaultBookingTime, b.Time())
}

func TestOpen_RoundTripIsSemanticallyIdentical(t *testing.T) {
	data := []byte(`{
		"settings": {"months_ahead": 2, "slots_per_day": 4, "working_days": [5, 6], "day_slots": {"5": 2}, "specific_days": {"2025-07-09": 1}},
		"pending_bookings": {"2025-07-05": [{"user_id": 1, "first_name": "A", "last_name": "B", "age": 20, "weight": 70.5, "phone": "+79991234567", "timestamp": "2025-07-01T09:00:00Z"}]},
		"confirmed_bookings": {"2025-07-06": [{"user_id": 2, "first_name": "C", "last_name": "D", "age": 40, "weight": 90, "phone": "+79991234568", "timestamp": "2025-06-30T09:00:00Z", "booking_time": "12:00", "original_date": "2025-07-05"}]}
	}`)
	mem := testutils.NewMemoryStorage(data)
	s := openStore(t, mem)

	encoded, err := models.Encode(s.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(encoded))
}

func TestSubmit_Validation(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()
	writes := mem.Writes()

	tests := []struct {
		name   string
		date   string
		mutate func(a *models.Applicant)
	}{
		{name: "bad phone", date: "2025-07-05", mutate: func(a *models.Applicant) { a.Phone = "12345" }},
		{name: "too young", date: "2025-07-05", mutate: func(a *models.Applicant) { a.Age = 17 }},
		{name: "too heavy", date: "2025-07-05", mutate: func(a *models.Applicant) { a.Weight = 150.5 }},
		{name: "past date", date: "2025-06-28", mutate: func(a *models.Applicant) {}},
		{name: "malformed date", date: "05.07.2025", mutate: func(a *models.Applicant) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validApplicant()
			tt.mutate(&a)

			_, err := s.Submit(ctx, tt.date, 42, a)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeValidation))
		})
	}

	assert.Equal(t, writes, mem.Writes())
	assert.Empty(t, s.Snapshot().PendingBookings)
}

func TestSubmit_RejectsDuplicatePending(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)

	_, err = s.Submit(ctx, "2025-07-05", 42, validApplicant())
	assert.ErrorIs(t, err, errors.ErrAlreadyPending)
	assert.Len(t, s.Snapshot().PendingBookings["2025-07-05"], 1)

	// Другая дата или другой пользователь допустимы
	_, err = s.Submit(ctx, "2025-07-06", 42, validApplicant())
	assert.NoError(t, err)
	_, err = s.Submit(ctx, "2025-07-05", 43, validApplicant())
	assert.NoError(t, err)
}

func TestDecide_ApproveAsIs(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)

	out, err := s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: true})
	require.NoError(t, err)
	assert.Equal(t, "2025-07-05", out.EffectiveDate)
	assert.Equal(t, "10:00", out.Time)
	assert.False(t, out.Replaced)

	doc := s.Snapshot()
	_, hasPending := doc.PendingBookings["2025-07-05"]
	assert.False(t, hasPending)
	require.Len(t, doc.ConfirmedBookings["2025-07-05"], 1)
	assert.Equal(t, "10:00", doc.ConfirmedBookings["2025-07-05"][0].BookingTime)
	assert.Empty(t, doc.ConfirmedBookings["2025-07-05"][0].OriginalDate)

	assert.Len(t, s.UserBookings(42), 1)
	assert.Equal(t, 2, s.Remaining(date(t, "2025-07-05")))
}

func TestDecide_RescheduleAndRetime(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)

	out, err := s.Decide(ctx, Decision{
		Date:         "2025-07-05",
		UserID:       42,
		Approve:      true,
		RescheduleTo: "2025-07-12",
		Time:         "9:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-07-12", out.EffectiveDate)
	assert.Equal(t, "09:30", out.Time)

	doc := s.Snapshot()
	assert.Empty(t, doc.PendingBookings)
	_, underOriginal := doc.ConfirmedBookings["2025-07-05"]
	assert.False(t, underOriginal)
	require.Len(t, doc.ConfirmedBookings["2025-07-12"], 1)
	assert.Equal(t, "2025-07-05", doc.ConfirmedBookings["2025-07-12"][0].OriginalDate)
}

func TestDecide_InvalidTimeKeepsPending(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)

	_, err = s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: true, Time: "25:00"})
	assert.ErrorIs(t, err, errors.ErrInvalidTime)

	_, ok := s.FindPending("2025-07-05", 42)
	assert.True(t, ok)
}

func TestDecide_Reject(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)
	_, err = s.Submit(ctx, "2025-07-05", 43, validApplicant())
	require.NoError(t, err)

	out, err := s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: false})
	require.NoError(t, err)
	assert.False(t, out.Approved)
	assert.Equal(t, int64(42), out.Request.UserID)

	doc := s.Snapshot()
	assert.Len(t, doc.PendingBookings["2025-07-05"], 1)
	assert.Empty(t, doc.ConfirmedBookings)

	_, err = s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 43, Approve: false})
	require.NoError(t, err)
	_, exists := s.Snapshot().PendingBookings["2025-07-05"]
	assert.False(t, exists)
}

func TestDecide_NotFound(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.Decide(context.Background(), Decision{Date: "2025-07-05", UserID: 42, Approve: true})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestOverrideScenario(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)
	_, err = s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: true, Time: "11:00"})
	require.NoError(t, err)

	updated := validApplicant()
	updated.Weight = 85
	req, err := s.Submit(ctx, "2025-07-05", 42, updated)
	require.NoError(t, err)
	assert.True(t, req.Override)

	out, err := s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: true})
	require.NoError(t, err)
	assert.True(t, out.Replaced)

	list := s.Snapshot().ConfirmedBookings["2025-07-05"]
	require.Len(t, list, 1)
	assert.Equal(t, 85.0, list[0].Weight)
	assert.Equal(t, "10:00", list[0].BookingTime)
	assert.False(t, list[0].Override)
}

func TestOverrideRescheduledRemovesOriginal(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)
	_, err = s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: true})
	require.NoError(t, err)

	_, err = s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)
	_, err = s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: true, RescheduleTo: "2025-07-06"})
	require.NoError(t, err)

	doc := s.Snapshot()
	_, onOriginal := doc.ConfirmedBookings["2025-07-05"]
	assert.False(t, onOriginal)
	assert.Len(t, doc.ConfirmedBookings["2025-07-06"], 1)
}

func TestOversellScenario(t *testing.T) {
	mem := testutils.NewMemoryStorage(nil)
	settings := weekendSettings()
	settings.SpecificDays["2025-07-01"] = 2
	s := openStore(t, mem, WithDefaults(settings))
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		_, err := s.Submit(ctx, "2025-07-01", id, validApplicant())
		require.NoError(t, err)
		_, err = s.Decide(ctx, Decision{Date: "2025-07-01", UserID: id, Approve: true})
		require.NoError(t, err)
	}

	d := date(t, "2025-07-01")
	assert.False(t, IsOpen(s.Snapshot(), d))

	// Заявки не ограничены количеством мест
	_, err := s.Submit(ctx, "2025-07-01", 3, validApplicant())
	require.NoError(t, err)

	out, err := s.Decide(ctx, Decision{Date: "2025-07-01", UserID: 3, Approve: true})
	require.NoError(t, err)
	assert.True(t, out.Oversold)
	assert.Equal(t, -1, s.Remaining(d))
}

func TestCancelConfirmed(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	d := date(t, "2025-07-05")

	_, err := s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)
	_, err = s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: true})
	require.NoError(t, err)

	before := s.Remaining(d)
	cancelled, err := s.CancelConfirmed(ctx, "2025-07-05", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cancelled.UserID)
	assert.Equal(t, before+1, s.Remaining(d))

	_, exists := s.Snapshot().ConfirmedBookings["2025-07-05"]
	assert.False(t, exists)

	_, err = s.CancelConfirmed(ctx, "2025-07-05", 42)
	assert.ErrorIs(t, err, errors.ErrBookingNotFound)
}

func TestOverrideConfirm(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()

	removed, err := s.OverrideConfirm(ctx, "2025-07-05", 42)
	require.NoError(t, err)
	assert.False(t, removed)
	writes := mem.Writes()

	_, err = s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)
	_, err = s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: true})
	require.NoError(t, err)

	removed, err = s.OverrideConfirm(ctx, "2025-07-05", 42)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, writes+3, mem.Writes())

	_, ok := s.FindConfirmed("2025-07-05", 42)
	assert.False(t, ok)
}

func TestSetSpecificDayCapacity_Conflict(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		_, err := s.Submit(ctx, "2025-07-05", id, validApplicant())
		require.NoError(t, err)
		_, err = s.Decide(ctx, Decision{Date: "2025-07-05", UserID: id, Approve: true})
		require.NoError(t, err)
	}

	err := s.SetSpecificDayCapacity(ctx, "2025-07-05", 1)
	require.ErrorIs(t, err, errors.ErrCapacityConflict)
	minAllowed, ok := errors.MinAllowed(err)
	require.True(t, ok)
	assert.Equal(t, 2, minAllowed)

	_, configured := s.Settings().SpecificDays["2025-07-05"]
	assert.False(t, configured)

	require.NoError(t, s.SetSpecificDayCapacity(ctx, "2025-07-05", 2))
	assert.Equal(t, 2, s.Settings().SpecificDays["2025-07-05"])
	assert.False(t, IsOpen(s.Snapshot(), date(t, "2025-07-05")))
}

func TestSetWeekdayCapacity_Conflict(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		_, err := s.Submit(ctx, "2025-07-12", id, validApplicant())
		require.NoError(t, err)
		_, err = s.Decide(ctx, Decision{Date: "2025-07-12", UserID: id, Approve: true})
		require.NoError(t, err)
	}

	err := s.SetWeekdayCapacity(ctx, 5, 1)
	require.ErrorIs(t, err, errors.ErrCapacityConflict)
	minAllowed, _ := errors.MinAllowed(err)
	assert.Equal(t, 2, minAllowed)

	// Воскресенье не затронуто записями на субботу
	require.NoError(t, s.SetWeekdayCapacity(ctx, 6, 1))
	assert.Equal(t, 1, s.Settings().DaySlots[6])

	err = s.SetSlotsPerDay(ctx, 1)
	assert.ErrorIs(t, err, errors.ErrCapacityConflict)
	assert.Equal(t, 3, s.Settings().SlotsPerDay)
}

func TestSetWorkingDaysAndHorizon(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetWorkingDays(ctx, []int{6, 2, 6}))
	assert.Equal(t, []int{2, 6}, s.Settings().WorkingDays)

	assert.ErrorIs(t, s.SetWorkingDays(ctx, []int{7}), errors.ErrInvalidWeekday)

	require.NoError(t, s.SetHorizon(ctx, 6))
	assert.Equal(t, 6, s.Settings().MonthsAhead)
	assert.ErrorIs(t, s.SetHorizon(ctx, 0), errors.ErrInvalidHorizon)
}

func TestSetWorkingDays_RemovingBookedWeekdayConflicts(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, "2025-07-12", 42, validApplicant()) // суббота
	require.NoError(t, err)
	_, err = s.Decide(ctx, Decision{Date: "2025-07-12", UserID: 42, Approve: true})
	require.NoError(t, err)

	err = s.SetWorkingDays(ctx, []int{6})
	require.ErrorIs(t, err, errors.ErrCapacityConflict)
	conflict, ok := errors.Conflict(err)
	require.True(t, ok)
	assert.Equal(t, WorkingDayTarget+"5", conflict.Target)
	assert.Equal(t, 1, conflict.MinAllowed)
	assert.Equal(t, []int{5, 6}, s.Settings().WorkingDays)

	// Дата с индивидуальной настройкой не зависит от рабочих дней
	require.NoError(t, s.SetSpecificDayCapacity(ctx, "2025-07-12", 2))
	require.NoError(t, s.SetWorkingDays(ctx, []int{6}))
	assert.Equal(t, []int{6}, s.Settings().WorkingDays)
	assert.Equal(t, 1, s.Remaining(models.CivilDate(time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC))))
}

func TestPersistenceFailureIsNotCommitted(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, "2025-07-05", 42, validApplicant())
	require.NoError(t, err)

	mem.FailWrites(true)

	_, err = s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: true})
	require.ErrorIs(t, err, errors.ErrPersistence)

	_, pending := s.FindPending("2025-07-05", 42)
	assert.True(t, pending)
	_, confirmed := s.FindConfirmed("2025-07-05", 42)
	assert.False(t, confirmed)

	err = s.SetHorizon(ctx, 7)
	assert.True(t, errors.HasCode(err, errors.CodePersistence))
	assert.Equal(t, 3, s.Settings().MonthsAhead)

	mem.FailWrites(false)
	_, err = s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 42, Approve: true})
	assert.NoError(t, err)
}

func TestRemainingInvariantAfterOperations(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	ops := []func() error{
		func() error { _, err := s.Submit(ctx, "2025-07-05", 1, validApplicant()); return err },
		func() error { _, err := s.Submit(ctx, "2025-07-05", 2, validApplicant()); return err },
		func() error {
			_, err := s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 1, Approve: true})
			return err
		},
		func() error {
			_, err := s.Decide(ctx, Decision{Date: "2025-07-05", UserID: 2, Approve: true, RescheduleTo: "2025-07-06"})
			return err
		},
		func() error { _, err := s.CancelConfirmed(ctx, "2025-07-05", 1); return err },
	}

	for i, op := range ops {
		require.NoError(t, op(), "operation %d", i)

		doc := s.Snapshot()
		for _, ds := range []string{"2025-07-05", "2025-07-06"} {
			d := date(t, ds)
			assert.Equal(t, CapacityFor(doc.Settings, d)-len(doc.ConfirmedBookings[ds]), Remaining(doc, d))
		}
		for ds, list := range doc.PendingBookings {
			assert.NotEmpty(t, list, "dangling pending key %s", ds)
		}
		for ds, list := range doc.ConfirmedBookings {
			assert.NotEmpty(t, list, "dangling confirmed key %s", ds)
		}
	}
}

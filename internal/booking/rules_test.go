package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"telegram_jump_bot/internal/storage/models"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func weekendSettings() models.Settings {
	return models.Settings{
		MonthsAhead:  3,
		SlotsPerDay:  3,
		WorkingDays:  []int{5, 6},
		DaySlots:     map[int]int{},
		SpecificDays: map[string]int{},
	}
}

func confirmedOn(doc *models.Document, d string, userIDs ...int64) {
	for _, id := range userIDs {
		doc.AddConfirmed(d, models.ConfirmedBooking{BookingRequest: models.BookingRequest{UserID: id}})
	}
}

func TestCapacityFor_ResolutionOrder(t *testing.T) {
	s := weekendSettings()
	s.DaySlots[6] = 5
	s.SpecificDays["2025-07-05"] = 7 // суббота
	s.SpecificDays["2025-07-02"] = 2 // среда, нерабочий день

	tests := []struct {
		name string
		date string
		want int
	}{
		{name: "specific day wins over weekday", date: "2025-07-05", want: 7},
		{name: "specific day on non-working weekday", date: "2025-07-02", want: 2},
		{name: "day slots for sunday", date: "2025-07-06", want: 5},
		{name: "slots per day fallback for saturday", date: "2025-07-12", want: 3},
		{name: "non-working weekday", date: "2025-07-03", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CapacityFor(s, date(t, tt.date)))
		})
	}
}

func TestIsOpen_NonWorkingDayWithoutOverrideIsClosed(t *testing.T) {
	s := weekendSettings()
	s.DaySlots[2] = 10 // day_slots без рабочего дня не открывает дату
	doc := models.NewDocument(s)

	start := date(t, "2025-06-30")
	for i := 0; i < 28; i++ {
		d := start.AddDate(0, 0, i)
		if s.IsWorkingDay(models.Weekday(d)) {
			continue
		}
		assert.False(t, IsOpen(doc, d), "date %s must be closed", models.FormatDate(d))
	}
}

func TestRemaining_CountsConfirmedOnly(t *testing.T) {
	doc := models.NewDocument(weekendSettings())
	d := date(t, "2025-07-05")

	confirmedOn(doc, "2025-07-05", 1, 2)
	doc.AddPending("2025-07-05", models.BookingRequest{UserID: 3})

	assert.Equal(t, 1, Remaining(doc, d))
	assert.True(t, IsOpen(doc, d))

	confirmedOn(doc, "2025-07-05", 3)
	assert.Equal(t, 0, Remaining(doc, d))
	assert.False(t, IsOpen(doc, d))
}

func TestRemaining_OversoldIsNegative(t *testing.T) {
	s := weekendSettings()
	s.SpecificDays["2025-07-01"] = 2
	doc := models.NewDocument(s)
	confirmedOn(doc, "2025-07-01", 1, 2, 3)

	d := date(t, "2025-07-01")
	assert.Equal(t, -1, Remaining(doc, d))
	assert.Equal(t, 0, DisplayRemaining(doc, d))
	assert.False(t, IsOpen(doc, d))
}

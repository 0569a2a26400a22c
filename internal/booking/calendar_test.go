package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram_jump_bot/internal/storage/models"
)

func TestListOpenDates_WeekendScenario(t *testing.T) {
	doc := models.NewDocument(weekendSettings())
	today := date(t, "2025-07-01")

	days := ListOpenDates(doc, today, 1, ModeWeekday, today)
	require.Len(t, days, 8)

	want := []string{"2025-07-05", "2025-07-06", "2025-07-12", "2025-07-13"}
	for i, w := range want {
		assert.Equal(t, w, days[i].DateStr)
		assert.Equal(t, 3, days[i].Remaining)
	}
}

func TestListOpenDates_SkipsPastAndFullDays(t *testing.T) {
	doc := models.NewDocument(weekendSettings())
	confirmedOn(doc, "2025-07-12", 1, 2, 3)

	start := date(t, "2025-07-01")
	today := date(t, "2025-07-06")

	days := ListOpenDates(doc, start, 1, ModeWeekday, today)

	var got []string
	for _, d := range days {
		got = append(got, d.DateStr)
	}
	assert.Equal(t, []string{"2025-07-06", "2025-07-13", "2025-07-19", "2025-07-20", "2025-07-26", "2025-07-27"}, got)
}

func TestListOpenDates_HorizonEndsAtMonthBoundary(t *testing.T) {
	doc := models.NewDocument(weekendSettings())
	today := date(t, "2025-11-20")

	days := ListOpenDates(doc, today, 2, ModeWeekday, today)
	require.NotEmpty(t, days)

	last := days[len(days)-1]
	assert.Equal(t, "2025-12-28", last.DateStr)
	assert.Equal(t, "2025-11-22", days[0].DateStr)

	assert.Empty(t, ListOpenDates(doc, today, 0, ModeWeekday, today))
}

func TestListOpenDates_SpecificMode(t *testing.T) {
	s := weekendSettings()
	s.SpecificDays["2025-07-02"] = 2 // среда
	s.SpecificDays["2025-07-05"] = 0 // суббота закрыта
	s.SpecificDays["2025-07-09"] = 1
	doc := models.NewDocument(s)
	confirmedOn(doc, "2025-07-09", 1)

	today := date(t, "2025-07-01")

	specific := ListOpenDates(doc, today, 1, ModeSpecificDays, today)
	require.Len(t, specific, 1)
	assert.Equal(t, "2025-07-02", specific[0].DateStr)
	assert.Equal(t, 2, specific[0].Remaining)

	// В режиме дней недели среда не подходит, а суббота закрыта явно
	weekday := ListOpenDates(doc, today, 1, ModeWeekday, today)
	for _, d := range weekday {
		assert.NotEqual(t, "2025-07-02", d.DateStr)
		assert.NotEqual(t, "2025-07-05", d.DateStr)
	}
}

func TestListMonthsWithAvailability(t *testing.T) {
	s := weekendSettings()
	s.SpecificDays["2025-09-10"] = 2
	s.SpecificDays["2025-07-20"] = 1
	s.SpecificDays["2025-07-21"] = 3
	s.SpecificDays["2025-08-01"] = 0
	s.SpecificDays["2025-06-15"] = 4 // прошлое
	doc := models.NewDocument(s)

	months := ListMonthsWithAvailability(doc, date(t, "2025-07-01"))
	assert.Equal(t, []YearMonth{
		{Year: 2025, Month: time.July},
		{Year: 2025, Month: time.September},
	}, months)
}

func TestMonthView_WeekRows(t *testing.T) {
	doc := models.NewDocument(weekendSettings())
	confirmedOn(doc, "2025-07-05", 1)

	rows := MonthView(doc, YearMonth{Year: 2025, Month: time.July}, ModeWeekday, date(t, "2025-07-01"))

	// Июль 2025 начинается во вторник: строки 6, 7, 7, 7, 4 дней
	require.Len(t, rows, 5)
	lengths := make([]int, len(rows))
	for i, r := range rows {
		lengths[i] = len(r)
		if i < len(rows)-1 {
			assert.Equal(t, 6, r[len(r)-1].Weekday, "row %d must end on Sunday", i)
		}
	}
	assert.Equal(t, []int{6, 7, 7, 7, 4}, lengths)

	first := rows[0]
	assert.Equal(t, 1, first[0].Day)
	assert.False(t, first[0].Available)

	sat := first[4]
	assert.Equal(t, 5, sat.Day)
	assert.True(t, sat.Available)
	assert.Equal(t, 2, sat.Remaining)

	last := rows[4][3]
	assert.Equal(t, 31, last.Day)
}

func TestMonthView_PastDaysBlank(t *testing.T) {
	doc := models.NewDocument(weekendSettings())

	rows := MonthView(doc, YearMonth{Year: 2025, Month: time.July}, ModeWeekday, date(t, "2025-07-10"))

	assert.False(t, rows[0][4].Available, "5 July is in the past")
	assert.True(t, rows[1][5].Available, "12 July is open")
}

func TestHorizonMonths_CrossesYear(t *testing.T) {
	months := HorizonMonths(date(t, "2025-11-15"), 3)
	assert.Equal(t, []YearMonth{
		{Year: 2025, Month: time.November},
		{Year: 2025, Month: time.December},
		{Year: 2026, Month: time.January},
	}, months)
}

package keyboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/bot/intent"
	"telegram_jump_bot/internal/storage/models"
)

func TestCreateMonthGridKeyboard(t *testing.T) {
	s := models.DefaultSettings()
	s.WorkingDays = []int{5, 6}
	s.DaySlots = map[int]int{}
	doc := models.NewDocument(s)

	today := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	grid := booking.MonthView(doc, booking.YearMonth{Year: 2025, Month: time.July}, booking.ModeWeekday, today)

	kb := CreateMonthGridKeyboard(grid, intent.PurposeSchedule)

	// заголовок, недели и кнопка "Назад"
	require.Len(t, kb.InlineKeyboard, len(grid)+2)
	for _, row := range kb.InlineKeyboard[1 : len(kb.InlineKeyboard)-1] {
		assert.Len(t, row, 7)
	}

	// 1 июля 2025 - вторник, первая неделя: пн пустой, сб 5 и вс 6 доступны
	first := kb.InlineKeyboard[1]
	assert.Equal(t, EmptyCell, first[0].Text)
	assert.Equal(t, EmptyCell, first[1].Text)
	assert.Equal(t, "5", first[5].Text)
	assert.Equal(t, "6", first[6].Text)

	in, err := intent.Parse(first[5].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, intent.PickDay{Purpose: intent.PurposeSchedule, Date: "2025-07-05"}, in)

	noop, err := intent.Parse(first[0].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, intent.Noop{}, noop)
}

func TestCreateDatesKeyboard(t *testing.T) {
	days := []booking.DayAvailability{
		{Date: time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC), DateStr: "2025-07-05", Remaining: 2},
	}

	kb := CreateDatesKeyboard(days, intent.PurposeBook)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Contains(t, kb.InlineKeyboard[0][0].Text, "2 места")

	in, err := intent.Parse(kb.InlineKeyboard[0][0].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, intent.BookDate{Date: "2025-07-05"}, in)

	kb = CreateDatesKeyboard(days, intent.PurposeReschedule)
	in, err = intent.Parse(kb.InlineKeyboard[0][0].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, intent.PickDay{Purpose: intent.PurposeReschedule, Date: "2025-07-05"}, in)
}

func TestCreateDecisionKeyboard(t *testing.T) {
	kb := CreateDecisionKeyboard("2025-07-05", 123456789)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)

	approve, err := intent.Parse(kb.InlineKeyboard[0][0].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, intent.Decide{Date: "2025-07-05", UserID: 123456789, Approve: true}, approve)

	reject, err := intent.Parse(kb.InlineKeyboard[0][1].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, intent.Decide{Date: "2025-07-05", UserID: 123456789}, reject)
}

func TestCallbackDataFitsLimit(t *testing.T) {
	kb := CreateDecisionKeyboard("2025-12-31", 9223372036854775807)
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			assert.LessOrEqual(t, len(btn.CallbackData), intent.MaxCallbackDataLen)
		}
	}
}

func TestCreateContactKeyboard(t *testing.T) {
	kb := CreateContactKeyboard()
	require.Len(t, kb.Keyboard, 1)
	assert.True(t, kb.Keyboard[0][0].RequestContact)
	assert.True(t, kb.OneTimeKeyboard)
}

package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/internal/bot/intent"
	"telegram_jump_bot/internal/storage/models"
	"telegram_jump_bot/internal/testutils"
)

const adminID = 1

func request() models.BookingRequest {
	return models.BookingRequest{
		UserID:    42,
		Applicant: models.Applicant{FirstName: "Иван", LastName: "Петров", Age: 30, Weight: 80, Phone: "+79991234567"},
	}
}

func TestNotifyAdminNewRequest(t *testing.T) {
	m := testutils.NewRecordingMessenger()
	n := NewTelegramNotifier(m, adminID, testutils.SetupTestLogger())

	require.NoError(t, n.NotifyAdminNewRequest(context.Background(), "2025-07-05", request()))

	msg, ok := m.Last(adminID)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "Иван Петров")

	kb := msg.Inline()
	require.NotNil(t, kb)
	approve, err := intent.Parse(kb.InlineKeyboard[0][0].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, intent.Decide{Date: "2025-07-05", UserID: 42, Approve: true}, approve)
}

func TestNotifyDecision(t *testing.T) {
	m := testutils.NewRecordingMessenger()
	n := NewTelegramNotifier(m, adminID, testutils.SetupTestLogger())

	out := booking.Outcome{Approved: true, Date: "2025-07-05", EffectiveDate: "2025-07-06", Time: "11:00", Request: request()}
	require.NoError(t, n.NotifyDecision(context.Background(), 42, out))

	msg, ok := m.Last(42)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "06.07.2025")
	assert.Contains(t, msg.Text, "11:00")
	assert.Nil(t, msg.Markup)
}

func TestSendReminder(t *testing.T) {
	m := testutils.NewRecordingMessenger()
	n := NewTelegramNotifier(m, adminID, testutils.SetupTestLogger())

	b := models.ConfirmedBooking{BookingRequest: request(), BookingTime: "09:30"}
	require.NoError(t, n.SendReminder(context.Background(), "2025-07-05", b))

	msg, ok := m.Last(42)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "09:30")
	assert.Contains(t, msg.Text, "Иван")
}

func TestNotifyAdminCancellation(t *testing.T) {
	m := testutils.NewRecordingMessenger()
	n := NewTelegramNotifier(m, adminID, testutils.SetupTestLogger())

	b := models.ConfirmedBooking{BookingRequest: request()}
	require.NoError(t, n.NotifyAdminCancellation(context.Background(), "2025-07-05", b))

	msg, ok := m.Last(adminID)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "отменил")
}

func TestSendFailure(t *testing.T) {
	m := testutils.NewRecordingMessenger()
	m.FailSends(errors.New("network down"))
	n := NewTelegramNotifier(m, adminID, testutils.SetupTestLogger())

	assert.Error(t, n.NotifyAdminNewRequest(context.Background(), "2025-07-05", request()))
	assert.Empty(t, m.Messages())
}

package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_StartReplacesActive(t *testing.T) {
	r := NewRegistry(nil)

	first := r.Start(7, KindBooking, StateCollectingFirstName)
	second := r.Start(7, KindConfig, StateConfigPickingMonth)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Get(7, first.ID)
	assert.False(t, ok)

	active, ok := r.Active(7)
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
}

func TestRegistry_TerminalStateRemovesConversation(t *testing.T) {
	r := NewRegistry(nil)
	r.Start(7, KindBooking, StateCollectingPhone)

	conv, ok := r.Update(7, func(c *Conversation) {
		c.State = StateAwaitingModeration
	})
	require.True(t, ok)
	assert.Equal(t, StateAwaitingModeration, conv.State)

	_, ok = r.Active(7)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r := NewRegistry(nil)
	r.Start(7, KindBooking, StateCollectingFirstName)
	r.Update(7, func(c *Conversation) {
		c.Booking = &BookingFlow{Date: "2025-07-05"}
	})

	conv, _ := r.Active(7)
	conv.Booking.Date = "2030-01-01"

	again, _ := r.Active(7)
	assert.Equal(t, "2025-07-05", again.Booking.Date)
}

func TestRegistry_Expire(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	r := NewRegistry(func() time.Time { return now })

	r.Start(7, KindBooking, StateCollectingFirstName)
	now = now.Add(2 * time.Hour)
	r.Start(8, KindBooking, StateCollectingFirstName)

	assert.Equal(t, 1, r.Expire(time.Hour))
	_, ok := r.Active(7)
	assert.False(t, ok)
	_, ok = r.Active(8)
	assert.True(t, ok)
}

package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram_jump_bot/internal/booking"
	"telegram_jump_bot/pkg/errors"
)

func TestParse_EncodedIntents(t *testing.T) {
	intents := []Intent{
		BookDate{Date: "2025-07-05"},
		Override{Proceed: true},
		Override{Proceed: false},
		Decide{Date: "2025-07-05", UserID: 1234567890123, Approve: true},
		Decide{Date: "2025-07-05", UserID: 42, Approve: false},
		Review{Action: ReviewChangeDate},
		PickMonth{Purpose: PurposeReschedule, Month: booking.YearMonth{Year: 2025, Month: time.December}},
		PickDay{Purpose: PurposeConfig, Date: "2025-12-31"},
		Back{Purpose: PurposeConfig},
		CancelBooking{Date: "2025-07-06"},
		Noop{},
	}

	for _, in := range intents {
		data := Encode(in)
		assert.LessOrEqual(t, len(data), MaxCallbackDataLen, data)

		got, err := Parse(data)
		require.NoError(t, err, data)
		assert.Equal(t, in, got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "unknown prefix", data: "zz:1"},
		{name: "bad date", data: "bk:2025-13-01"},
		{name: "missing user", data: "dc:a:2025-07-05"},
		{name: "non numeric user", data: "dc:a:2025-07-05:abc"},
		{name: "bad decision", data: "dc:x:2025-07-05:1"},
		{name: "bad month", data: "mo:s:2025:13"},
		{name: "bad purpose", data: "dy:q:2025-07-05"},
		{name: "bad review", data: "rv:z"},
		{name: "override value", data: "ov:yes"},
		{name: "legacy token", data: "confirm_2025-07-05_42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeValidation))
		})
	}
}

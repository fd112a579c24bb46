package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodi-rentals/service-rental/pkg/domain"
)

func bookingWithStatus(t *testing.T, in, out string, status BookingStatus) *Booking {
	t.Helper()
	return ReconstructBooking(
		uuid.New(), uuid.New(), uuid.New(), mustRange(t, in, out), status,
		100, domain.CurrencyRWF, nil, "", "", 1, date("2024-01-01"), date("2024-01-01"),
	)
}

func TestFindConflict(t *testing.T) {
	confirmed := bookingWithStatus(t, "2024-03-01", "2024-03-04", StatusConfirmed)
	canceled := bookingWithStatus(t, "2024-03-10", "2024-03-12", StatusCanceled)
	pending := bookingWithStatus(t, "2024-03-20", "2024-03-25", StatusPending)
	existing := []*Booking{confirmed, canceled, pending}

	t.Run("overlapping confirmed booking", func(t *testing.T) {
		c := FindConflict(mustRange(t, "2024-03-03", "2024-03-06"), existing, uuid.Nil)
		require.NotNil(t, c)
		assert.Equal(t, confirmed.ID(), c.ID())
	})

	t.Run("overlapping pending booking", func(t *testing.T) {
		c := FindConflict(mustRange(t, "2024-03-24", "2024-03-26"), existing, uuid.Nil)
		require.NotNil(t, c)
		assert.Equal(t, pending.ID(), c.ID())
	})

	t.Run("canceled bookings never conflict", func(t *testing.T) {
		assert.Nil(t, FindConflict(mustRange(t, "2024-03-10", "2024-03-12"), existing, uuid.Nil))
	})

	t.Run("back-to-back stay is available", func(t *testing.T) {
		assert.Nil(t, FindConflict(mustRange(t, "2024-03-04", "2024-03-06"), existing, uuid.Nil))
	})

	t.Run("excluded booking is ignored", func(t *testing.T) {
		assert.Nil(t, FindConflict(mustRange(t, "2024-03-02", "2024-03-05"), existing, confirmed.ID()))
	})

	t.Run("empty set", func(t *testing.T) {
		assert.Nil(t, FindConflict(mustRange(t, "2024-03-02", "2024-03-05"), nil, uuid.Nil))
	})
}

func TestEnsureAvailable_ReportsConflictingID(t *testing.T) {
	confirmed := bookingWithStatus(t, "2024-03-01", "2024-03-04", StatusConfirmed)

	err := EnsureAvailable(mustRange(t, "2024-03-03", "2024-03-06"), []*Booking{confirmed}, uuid.Nil)
	require.Error(t, err)
	assert.True(t, domain.IsBookingConflict(err))

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, confirmed.ID().String(), appErr.Details["conflicting_booking_id"])

	assert.NoError(t, EnsureAvailable(mustRange(t, "2024-03-04", "2024-03-06"), []*Booking{confirmed}, uuid.Nil))
}

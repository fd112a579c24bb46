package booking

import (
	"github.com/google/uuid"

	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// FindConflict returns the first booking in existing whose stay overlaps candidate.
// Canceled bookings and the booking identified by excludeID (uuid.Nil for none) never conflict.
func FindConflict(candidate DateRange, existing []*Booking, excludeID uuid.UUID) *Booking {
	for _, b := range existing {
		if b == nil || b.Status() == StatusCanceled {
			continue
		}
		if excludeID != uuid.Nil && b.ID() == excludeID {
			continue
		}
		if candidate.Overlaps(b.Stay()) {
			return b
		}
	}
	return nil
}

// EnsureAvailable fails with a booking conflict naming the overlapping booking, if any.
func EnsureAvailable(candidate DateRange, existing []*Booking, excludeID uuid.UUID) error {
	if conflict := FindConflict(candidate, existing, excludeID); conflict != nil {
		return domain.NewBookingConflictError(conflict.ID().String())
	}
	return nil
}

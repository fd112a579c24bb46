package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows booking listings.
type ListFilter struct {
	Status *BookingStatus
	Page   int
	Limit  int
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindActiveByPropertyID returns all non-canceled bookings of a property, skipping excludeID when set.
	FindActiveByPropertyID(ctx context.Context, propertyID, excludeID uuid.UUID) ([]*Booking, error)

	// FindLiveByRenterAndProperty returns the renter's active booking on the property whose
	// check-out lies after asOf, or nil when there is none.
	FindLiveByRenterAndProperty(ctx context.Context, renterID, propertyID uuid.UUID, asOf time.Time) (*Booking, error)

	// FindActiveByRenterID returns every non-canceled booking of a renter.
	FindActiveByRenterID(ctx context.Context, renterID uuid.UUID) ([]*Booking, error)

	// FindStalePending returns PENDING bookings whose check-in is strictly before asOf, oldest first.
	FindStalePending(ctx context.Context, asOf time.Time, limit int) ([]*Booking, error)

	// FindByRenterID retrieves bookings belonging to a renter with pagination.
	FindByRenterID(ctx context.Context, renterID uuid.UUID, filter ListFilter) ([]*Booking, int64, error)

	// FindByPropertyID retrieves bookings of a property with pagination.
	FindByPropertyID(ctx context.Context, propertyID uuid.UUID, filter ListFilter) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, filter ListFilter) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// Delete removes a booking permanently.
	Delete(ctx context.Context, id uuid.UUID) error
}
